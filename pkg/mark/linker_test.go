package mark

import (
	"testing"

	"redstonec.dev/compiler/pkg/isa"
)

// leafNode is a minimal mark.Node used to build small test programs
// without depending on pkg/scope.
type leafNode struct {
	inst  isa.Instruction
	marks []ID
}

func (n leafNode) Instruction() (isa.Instruction, bool) { return n.inst, true }
func (n leafNode) Group() []Node                        { return nil }
func (n leafNode) MarkIDs() []ID                        { return n.marks }

func code(m isa.Mnemonic, arg ...uint8) isa.Instruction {
	i, err := isa.New(m, arg...)
	if err != nil {
		panic(err)
	}
	return i
}

func TestLinkResolvesNearJumpWithinPage(t *testing.T) {
	table := NewTable()
	done := table.New()

	jmp := code(isa.JMP, uint8(done))
	nodes := []Node{
		leafNode{inst: jmp},
		leafNode{inst: code(isa.NON)},
		leafNode{inst: code(isa.STP), marks: []ID{done}},
	}

	flat := Link(nodes, table)
	if len(flat) != 3 {
		t.Fatalf("expected no page-fix insertions for a 3-instruction program, got %d instructions", len(flat))
	}
	arg, _ := flat[0].Arg()
	if arg != 2 {
		t.Fatalf("expected jump to resolve to index 2, got %d", arg)
	}
	if flat[0].Mnemonic != isa.JMP {
		t.Fatalf("expected jump to remain near (same page), got %s", flat[0].Mnemonic)
	}
}

func TestLinkPromotesJumpAcrossPageBoundary(t *testing.T) {
	table := NewTable()
	done := table.New()

	jmp := code(isa.JMP, uint8(done))
	nodes := []Node{leafNode{inst: jmp}}
	for i := 0; i < pageSize; i++ {
		nodes = append(nodes, leafNode{inst: code(isa.NON)})
	}
	nodes = append(nodes, leafNode{inst: code(isa.STP), marks: []ID{done}})

	flat := Link(nodes, table)

	if flat[0].Mnemonic != isa.LCL {
		t.Fatalf("expected a page selector inserted before the promoted jump, got %s", flat[0].Mnemonic)
	}
	if flat[1].Mnemonic != isa.JMD {
		t.Fatalf("expected JMP promoted to its far form JMD, got %s", flat[1].Mnemonic)
	}

	targetIdx := len(flat) - 1
	wantPage := Page(targetIdx)
	gotPage, _ := flat[0].Arg()
	if gotPage != wantPage {
		t.Fatalf("expected selector page %d, got %d", wantPage, gotPage)
	}
}

func TestLinkBackwardJumpWithinPage(t *testing.T) {
	table := NewTable()
	top := table.New()

	nodes := []Node{
		leafNode{inst: code(isa.NON), marks: []ID{top}},
		leafNode{inst: code(isa.INB)},
		leafNode{inst: code(isa.JMP, uint8(top))},
	}

	flat := Link(nodes, table)
	if len(flat) != 3 {
		t.Fatalf("expected no insertions for a same-page backward jump, got %d instructions", len(flat))
	}
	arg, _ := flat[2].Arg()
	if arg != 0 {
		t.Fatalf("expected backward jump to resolve to index 0, got %d", arg)
	}
}
