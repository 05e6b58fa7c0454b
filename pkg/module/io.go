package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
)

// ioBase is the arena offset the eight memory-mapped I/O slots start at,
// grounded on original_source/src/backend/module/io.rs's `slot + 32`.
const ioBase = 32

var ioMethods = map[string]method{
	"read":  {argc: 1, fn: ioRead},
	"write": {argc: 2, fn: ioWrite},
}

func ioSlot(h Host, expr ast.Expression, loc ast.Range) (uint8, error) {
	v, err := mustConstant(h, expr, "io slot", expr.Span())
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 7 {
		return 0, errs.New(errs.InvalidArgs, loc, "io slot must be from 0 to 7")
	}
	return ioBase + uint8(v), nil
}

func ioRead(h Host, args []ast.Expression, loc ast.Range) error {
	slot, err := ioSlot(h, args[0], loc)
	if err != nil {
		return err
	}
	return h.Emit(isa.LA, slot)
}

func ioWrite(h Host, args []ast.Expression, loc ast.Range) error {
	slot, err := ioSlot(h, args[1], loc)
	if err != nil {
		return err
	}
	if err := h.LowerA(args[0]); err != nil {
		return err
	}
	return h.Emit(isa.SVA, slot)
}
