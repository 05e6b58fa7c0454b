package mark

import "redstonec.dev/compiler/pkg/isa"

// Node is the subset of scope.Scope/scope.Node the linker needs, kept as
// a small interface so this package (already depended on by pkg/scope for
// the ID/Table types) does not import it back.
type Node interface {
	Instruction() (isa.Instruction, bool) // ok=false for a group node
	Group() []Node                        // nil for a leaf node
	MarkIDs() []ID
}

// Link flattens root into a single instruction stream and resolves every
// jump to a concrete target index, promoting any jump whose target lies
// on a different page than the jump itself to its far (disc-jump) form
// preceded by an `LCL page` selector (spec.md §4.D.2). Page promotions can
// themselves shift other jumps onto new pages, so this runs as a fixed
// point: keep promoting until a flatten pass needs no new promotions,
// then do one final pass substituting resolved target indices for the
// mark ids jump arguments still carry.
func Link(root []Node, table *Table) []isa.Instruction {
	// promoted is keyed by each jump's position in a stable pre-order
	// count of leaf (non-group) nodes — stable across iterations because
	// the node tree itself never changes, only the physical output does.
	promoted := make(map[int]bool)

	for {
		flat, leafOfPhys := flattenOnce(root, table, promoted)

		changed := false
		for phys, inst := range flat {
			if !inst.IsJump() || inst.IsDiscJump() {
				continue
			}
			arg, _ := inst.Arg()
			target, ok := table.Target(ID(arg))
			if !ok {
				continue
			}
			if Page(phys) != Page(target) {
				leaf := leafOfPhys[phys]
				if !promoted[leaf] {
					promoted[leaf] = true
					changed = true
				}
			}
		}

		if !changed {
			return resolve(flat, table)
		}
	}
}

// flattenOnce walks the node tree depth-first, binding marks to physical
// positions in the output and emitting, for each promoted jump leaf, an
// `LCL 0` page-selector placeholder ahead of its far form (the
// selector's real page argument is filled in by resolve once every mark
// is bound). It returns the flat stream and a parallel slice mapping each
// physical index back to its stable leaf index, for promotion bookkeeping.
func flattenOnce(nodes []Node, table *Table, promoted map[int]bool) ([]isa.Instruction, []int) {
	var out []isa.Instruction
	var leafOfPhys []int
	leaf := 0

	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			for _, id := range n.MarkIDs() {
				table.rebind(id, len(out))
			}

			inst, ok := n.Instruction()
			if !ok {
				walk(n.Group())
				continue
			}

			thisLeaf := leaf
			leaf++

			if inst.IsJump() && !inst.IsDiscJump() && promoted[thisLeaf] {
				arg, _ := inst.Arg()
				// Page selector argument is a placeholder (0) until
				// resolve fills in the target's real page;
				// it is never emitted as a final instruction as-is.
				selector, _ := isa.New(isa.LCL, 0)
				far, err := inst.ToFarJump()
				if err != nil {
					out = append(out, inst)
					leafOfPhys = append(leafOfPhys, thisLeaf)
					continue
				}
				_ = arg
				out = append(out, selector, far)
				leafOfPhys = append(leafOfPhys, thisLeaf, thisLeaf)
				continue
			}

			out = append(out, inst)
			leafOfPhys = append(leafOfPhys, thisLeaf)
		}
	}
	walk(nodes)
	return out, leafOfPhys
}

// resolve performs the final substitution pass: every jump's argument
// (currently a mark id) becomes the target's resolved physical index, and
// every `LCL` page-selector inserted ahead of a promoted far jump gets the
// target's actual page.
func resolve(flat []isa.Instruction, table *Table) []isa.Instruction {
	out := make([]isa.Instruction, len(flat))
	copy(out, flat)

	for i := 0; i < len(out); i++ {
		inst := out[i]
		if !inst.IsJump() {
			continue
		}
		arg, _ := inst.Arg()
		target, ok := table.Target(ID(arg))
		if !ok {
			continue
		}
		resolved, _ := inst.WithArg(uint8(target))
		out[i] = resolved

		if inst.IsDiscJump() && i > 0 {
			if sel := out[i-1]; sel.Mnemonic == isa.LCL {
				withPage, _ := sel.WithArg(Page(target))
				out[i-1] = withPage
			}
		}
	}
	return out
}
