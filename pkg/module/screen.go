package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/isa"
)

// Monochrome screen register addresses, grounded on
// original_source/src/backend/module/screen.rs's BASE_OUT_REG + {6,7}.
const (
	screenOpReg  = 38
	screenPosReg = 39
)

const (
	screenOpFlip   int16 = 1
	screenOpClear  int16 = 2
	screenOpOn     int16 = 4
	screenOpInvert int16 = 8
	screenOpOff    int16 = 16
)

var screenMethods = map[string]method{
	"flip":      {argc: 0, fn: screenOp(screenOpFlip)},
	"clear":     {argc: 0, fn: screenOp(screenOpClear)},
	"set_at":    {argc: 2, fn: screenPixelOp(screenOpOn)},
	"invert_at": {argc: 2, fn: screenPixelOp(screenOpInvert)},
	"off_at":    {argc: 2, fn: screenPixelOp(screenOpOff)},
	"set":       {argc: 1, fn: screenWholeOp(screenOpOn)},
	"invert":    {argc: 1, fn: screenWholeOp(screenOpInvert)},
	"off":       {argc: 1, fn: screenWholeOp(screenOpOff)},
}

func screenOp(op int16) func(Host, []ast.Expression, ast.Range) error {
	return func(h Host, args []ast.Expression, loc ast.Range) error {
		return writeScreenOp(h, screenOpReg, op, loc)
	}
}

func screenPixelOp(op int16) func(Host, []ast.Expression, ast.Range) error {
	return func(h Host, args []ast.Expression, loc ast.Range) error {
		if err := putXY(h, args[0], args[1], 8, loc); err != nil {
			return err
		}
		if err := h.Emit(isa.SVA, screenPosReg); err != nil {
			return err
		}
		return writeScreenOp(h, screenOpReg, op, loc)
	}
}

func screenWholeOp(op int16) func(Host, []ast.Expression, ast.Range) error {
	return func(h Host, args []ast.Expression, loc ast.Range) error {
		if err := h.LowerA(args[0]); err != nil {
			return err
		}
		if err := h.Emit(isa.SVA, screenPosReg); err != nil {
			return err
		}
		return writeScreenOp(h, screenOpReg, op, loc)
	}
}

func writeScreenOp(h Host, reg uint8, op int16, loc ast.Range) error {
	if err := h.LowerA(ast.NewNumericLiteral(loc, op)); err != nil {
		return err
	}
	return h.Emit(isa.SVA, reg)
}

// putXY packs (x << shift) | y into A, picking the cheapest instruction
// sequence for whichever of x/y are compile-time constants — the same
// four-shape arbitration expression lowering uses, applied to a pair of
// module arguments instead of a binary expression (spec.md §4.E,
// grounded on screen.rs's write_screenpos / colorscreen.rs's put_xy).
func putXY(h Host, x, y ast.Expression, shift uint8, loc ast.Range) error {
	xv, xConst := h.TryConstant(x)
	yv, yConst := h.TryConstant(y)

	switch {
	case xConst && yConst:
		return h.LowerA(ast.NewNumericLiteral(loc, xv<<shift|yv))

	case xConst && !yConst:
		if err := h.LowerA(y); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, xv<<shift)); err != nil {
			return err
		}
		return h.Emit(isa.OR)

	case !xConst && yConst:
		if err := h.LowerA(x); err != nil {
			return err
		}
		if err := h.Emit(isa.SUP, shift); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, yv)); err != nil {
			return err
		}
		return h.Emit(isa.OR)

	default:
		temp, err := spillA(h, y)
		if err != nil {
			return err
		}
		defer h.ReleaseTemp(temp)
		if err := h.LowerA(x); err != nil {
			return err
		}
		if err := h.Emit(isa.SUP, shift); err != nil {
			return err
		}
		if err := h.Emit(isa.LB, temp); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	}
}
