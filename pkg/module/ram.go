package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
)

var ramMethods = map[string]method{
	"read":  {argc: 1, fn: ramRead},
	"write": {argc: 2, fn: ramWrite},
	"copy":  {argc: 2, fn: ramCopy},
}

// putRamAddress ensures B holds address's value, emitting RC first
// whenever the target RAM page cannot be proven identical to the one the
// symbolic state already tracks (spec.md §4.A's RC rule; grounded on
// ram.rs's put_address). A known constant address only needs RC when the
// tracked page actually differs; an address that isn't known at compile
// time always needs it, since nothing can rule out a page change.
func putRamAddress(h Host, address ast.Expression, loc ast.Range) error {
	if v, ok := h.TryConstant(address); ok {
		state, err := h.State()
		if err != nil {
			return err
		}
		want := machine.ThisPage(uint8(uint16(v) / 16))
		if state.Page != want {
			if err := h.Emit(isa.RC); err != nil {
				return err
			}
		}
		return h.LowerB(ast.NewNumericLiteral(loc, v))
	}

	if err := h.Emit(isa.RC); err != nil {
		return err
	}
	return h.LowerB(address)
}

func ramRead(h Host, args []ast.Expression, loc ast.Range) error {
	if err := putRamAddress(h, args[0], loc); err != nil {
		return err
	}
	return h.Emit(isa.RR)
}

func ramWrite(h Host, args []ast.Expression, loc ast.Range) error {
	value, address := args[0], args[1]

	switch {
	case h.IsSimple(value):
		if err := putRamAddress(h, address, loc); err != nil {
			return err
		}
		if err := h.LowerA(value); err != nil {
			return err
		}

	case h.IsSimple(address):
		if err := h.LowerA(value); err != nil {
			return err
		}
		if err := putRamAddress(h, address, loc); err != nil {
			return err
		}

	default:
		temp, err := spillA(h, value)
		if err != nil {
			return err
		}
		defer h.ReleaseTemp(temp)
		if err := putRamAddress(h, address, loc); err != nil {
			return err
		}
		if err := h.Emit(isa.LA, temp); err != nil {
			return err
		}
	}

	return h.Emit(isa.RW)
}

func ramCopy(h Host, args []ast.Expression, loc ast.Range) error {
	from, to := args[0], args[1]

	if err := putRamAddress(h, from, loc); err != nil {
		return err
	}
	if err := h.Emit(isa.RR); err != nil {
		return err
	}

	if h.IsSimple(to) {
		if err := putRamAddress(h, to, loc); err != nil {
			return err
		}
	} else {
		temp, err := h.AllocTemp()
		if err != nil {
			return err
		}
		if err := h.Emit(isa.SVA, temp); err != nil {
			return err
		}
		if err := putRamAddress(h, to, loc); err != nil {
			h.ReleaseTemp(temp)
			return err
		}
		if err := h.Emit(isa.LA, temp); err != nil {
			h.ReleaseTemp(temp)
			return err
		}
		h.ReleaseTemp(temp)
	}

	return h.Emit(isa.RW)
}
