package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/isa"
)

// Color screen register addresses, grounded on
// original_source/src/backend/module/colorscreen.rs.
const (
	colorScreenOpReg   = 5
	colorScreenPos1Reg = 7
	colorScreenPos2Reg = 6
)

const (
	colorOpPaint int16 = 1
	colorOpFlip  int16 = 2
)

var colorNames = map[string]int16{
	"white": 0, "orange": 1, "magenta": 2, "light_blue": 3,
	"yellow": 4, "lime": 5, "pink": 6, "gray": 7,
	"light_gray": 8, "cyan": 9, "purple": 10, "blue": 11,
	"brown": 12, "green": 13, "red": 14, "black": 15,
}

var colorscreenMethods = map[string]method{
	"set":         {argc: 2, fn: colorSet},
	"set_at":      {argc: 3, fn: colorSetAt},
	"fill":        {argc: 3, fn: colorFill},
	"fill_xy":     {argc: 5, fn: colorFillXY},
	"fill_screen": {argc: 1, fn: colorFillScreen},
	"flip":        {argc: 0, fn: colorFlip},
	"color_of":    {argc: 1, fn: colorOf},
}

// ConstantMember resolves a bare `module.constant` member access to a
// compile-time value, for use outside a module call (e.g.
// `inline red = colorscreen.red`). Only colorscreen currently defines any
// such constants.
func ConstantMember(expr ast.Expression) (int16, bool) {
	return constColor(expr)
}

// constColor recognizes a `colorscreen.<name>` member access as a
// compile-time color constant (value << 12, matching the color nibble's
// bit position in the packed position word).
func constColor(expr ast.Expression) (int16, bool) {
	m, ok := expr.(ast.Member)
	if !ok {
		return 0, false
	}
	ident, ok := m.Object.(ast.Identifier)
	if !ok || ident.Name != "colorscreen" {
		return 0, false
	}
	v, ok := colorNames[m.Property]
	if !ok {
		return 0, false
	}
	return v << 12, true
}

func colorOf(h Host, args []ast.Expression, loc ast.Range) error {
	if v, ok := constColor(args[0]); ok {
		return h.LowerA(ast.NewNumericLiteral(loc, v))
	}
	if v, ok := h.TryConstant(args[0]); ok {
		return h.LowerA(ast.NewNumericLiteral(loc, v))
	}
	return h.LowerA(args[0])
}

// putXYColor packs (x<<6|y) | color into A, the colorscreen counterpart
// of screen.go's putXY, folding a `colorscreen.<name>` color constant in
// alongside x/y's own constant-folding.
func putXYColor(h Host, x, y, color ast.Expression, loc ast.Range) error {
	if cv, ok := constColor(color); ok {
		if err := putXY(h, x, y, 6, loc); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, cv)); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	}
	if cv, ok := h.TryConstant(color); ok {
		if err := putXY(h, x, y, 6, loc); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, cv)); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	}

	temp, err := spillA(h, color)
	if err != nil {
		return err
	}
	defer h.ReleaseTemp(temp)
	if err := putXY(h, x, y, 6, loc); err != nil {
		return err
	}
	if err := h.Emit(isa.LB, temp); err != nil {
		return err
	}
	return h.Emit(isa.OR)
}

// loadPositionColor packs position | color into A, for the already-
// packed position form `set`/`fill` take (as opposed to `set_at`'s raw
// x/y pair).
func loadPositionColor(h Host, position, color ast.Expression, loc ast.Range) error {
	posV, posConst := h.TryConstant(position)
	colorV, colorConst := constColor(color)
	if !colorConst {
		colorV, colorConst = h.TryConstant(color)
	}

	switch {
	case posConst && colorConst:
		return h.LowerA(ast.NewNumericLiteral(loc, posV|colorV))
	case posConst && !colorConst:
		if err := h.LowerA(color); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, posV)); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	case !posConst && colorConst:
		if err := h.LowerA(position); err != nil {
			return err
		}
		if err := h.LowerB(ast.NewNumericLiteral(loc, colorV)); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	default:
		temp, err := spillA(h, color)
		if err != nil {
			return err
		}
		defer h.ReleaseTemp(temp)
		if err := h.LowerA(position); err != nil {
			return err
		}
		if err := h.Emit(isa.LB, temp); err != nil {
			return err
		}
		return h.Emit(isa.OR)
	}
}

func writeColorOp(h Host, op int16, loc ast.Range) error {
	if err := h.LowerA(ast.NewNumericLiteral(loc, op)); err != nil {
		return err
	}
	return h.Emit(isa.SVA, colorScreenOpReg)
}

func colorSet(h Host, args []ast.Expression, loc ast.Range) error {
	if err := loadPositionColor(h, args[0], args[1], loc); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos1Reg); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos2Reg); err != nil {
		return err
	}
	return writeColorOp(h, colorOpPaint, loc)
}

func colorSetAt(h Host, args []ast.Expression, loc ast.Range) error {
	if err := putXYColor(h, args[0], args[1], args[2], loc); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos1Reg); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos2Reg); err != nil {
		return err
	}
	return writeColorOp(h, colorOpPaint, loc)
}

func colorFill(h Host, args []ast.Expression, loc ast.Range) error {
	from, to, color := args[0], args[1], args[2]
	if err := loadPositionColor(h, from, color, loc); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos1Reg); err != nil {
		return err
	}
	if err := h.LowerA(to); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos2Reg); err != nil {
		return err
	}
	return writeColorOp(h, colorOpPaint, loc)
}

func colorFillXY(h Host, args []ast.Expression, loc ast.Range) error {
	x1, y1, x2, y2, color := args[0], args[1], args[2], args[3], args[4]
	if err := putXYColor(h, x1, y1, color, loc); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos1Reg); err != nil {
		return err
	}
	if err := putXY(h, x2, y2, 6, loc); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos2Reg); err != nil {
		return err
	}
	return writeColorOp(h, colorOpPaint, loc)
}

func colorFillScreen(h Host, args []ast.Expression, loc ast.Range) error {
	color := args[0]
	if v, ok := constColor(color); ok {
		if err := h.LowerA(ast.NewNumericLiteral(loc, v)); err != nil {
			return err
		}
	} else if err := h.LowerA(color); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos1Reg); err != nil {
		return err
	}
	if err := h.LowerA(ast.NewNumericLiteral(loc, 0x0FFF)); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, colorScreenPos2Reg); err != nil {
		return err
	}
	return writeColorOp(h, colorOpPaint, loc)
}

func colorFlip(h Host, args []ast.Expression, loc ast.Range) error {
	return writeColorOp(h, colorOpFlip, loc)
}
