// Package emit serializes a linked instruction program to its final
// output forms: the raw 16-bit machine words the target CPU loads, and a
// human-readable disassembly for debugging. Grounded on the teacher's
// pkg/hack/codegen.go (CodeGenerator.Generate returning a []string) and
// pkg/asm/codegen.go's one-statement-at-a-time serializer shape.
package emit

import "redstonec.dev/compiler/pkg/isa"

// Binary encodes a linked program to its 16-bit machine words, in order.
func Binary(program []isa.Instruction) []uint16 {
	words := make([]uint16, len(program))
	for i, inst := range program {
		words[i] = inst.Encode()
	}
	return words
}

// Text disassembles a linked program to one "MNEMONIC [ARG]" line per
// instruction, in program order, with no address prefix.
func Text(program []isa.Instruction) []string {
	lines := make([]string, len(program))
	for i, inst := range program {
		lines[i] = inst.String()
	}
	return lines
}
