// Package mark implements the Jump-Mark Table & Linker (spec.md §4.D.2):
// jump targets are emitted as pending mark ids, resolved to concrete
// instruction indices once the nested scope tree is flattened, with a
// fixed-point pass promoting any jump that would cross a page boundary
// to its far (disc-jump) twin and inserting the `LCL page` selector it
// needs. Grounded on original_source/src/backend/types.rs's page-aware
// linking and on the teacher's pkg/hack/codegen.go label-resolution pass.
package mark

import "fmt"

// pageSize is the number of instructions on one program page (not the
// 16-address RAM page); a jump whose target instruction lies on a different page than
// the jump itself must go through the far (disc-jump) form (spec.md §3).
const pageSize = 64

// ID identifies a pending jump target before the program is flattened.
type ID uint32

// Table allocates fresh mark ids and records, for each, the instruction
// index it should resolve to once the owning scope's position in the
// final flattened program is known.
type Table struct {
	next    ID
	targets map[ID]int
}

// NewTable returns an empty mark table.
func NewTable() *Table {
	return &Table{targets: make(map[ID]int)}
}

// New allocates a fresh, as-yet-unbound mark id.
func (t *Table) New() ID {
	id := t.next
	t.next++
	return id
}

// Bind records that id resolves to the given flattened instruction index.
// Binding an id twice is a programmer error in the compiler, not a user
// diagnostic — it panics.
func (t *Table) Bind(id ID, index int) {
	if _, exists := t.targets[id]; exists {
		panic(fmt.Sprintf("mark: id %d already bound to index %d", id, t.targets[id]))
	}
	t.targets[id] = index
}

// Target returns the instruction index id was bound to.
func (t *Table) Target(id ID) (int, bool) {
	idx, ok := t.targets[id]
	return idx, ok
}

// rebind overwrites id's bound index without the duplicate-bind panic,
// used internally by Link's fixed-point loop to rebind every mark fresh
// on each flatten pass.
func (t *Table) rebind(id ID, index int) {
	t.targets[id] = index
}

// Page returns which page the instruction at index lives on.
func Page(index int) uint8 {
	return uint8(index / pageSize)
}
