package machine

import "redstonec.dev/compiler/pkg/isa"

// Execute applies the symbolic effect of inst to state, in place. This is
// the single source of truth the expression lowerer consults to decide
// whether a load can be skipped because the target register already
// demonstrably holds the right value (spec.md §4.A, §9).
func Execute(inst isa.Instruction, state *State) {
	arg, hasArg := inst.Arg()

	switch inst.Mnemonic {
	case isa.LA:
		state.A = VariableReg(arg)
	case isa.LB:
		state.B = VariableReg(arg)
	case isa.LC:
		state.C = VariableReg(arg)
	case isa.SVA:
		state.A = VariableReg(arg)

	case isa.LAL:
		state.A = NumberReg(int16(arg))
	case isa.LAH:
		state.A = loadHigh(state.A, arg)
	case isa.LBL:
		state.B = NumberReg(int16(arg))
	case isa.LBH:
		state.B = loadHigh(state.B, arg)
	case isa.LCL:
		state.C = NumberReg(int16(arg))

	case isa.ADD:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a + b })
	case isa.SUB:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a - b })
	case isa.MUL:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a * b })
	case isa.AND:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a & b })
	case isa.OR:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a | b })
	case isa.XOR:
		state.A = foldBinary(state.A, state.B, func(a, b int16) int16 { return a ^ b })

	case isa.SUP:
		state.A = foldShift(state.A, arg, true)
	case isa.SDN:
		state.A = foldShift(state.A, arg, false)

	case isa.RR:
		state.A = UnknownReg
	case isa.RC:
		if state.B.Kind == Number {
			state.Page = ThisPage(uint8(uint16(state.B.Value) / 16))
		} else {
			state.Page = PageUnknown
		}
	case isa.INB:
		if state.B.Kind == Number {
			state.B = NumberReg(state.B.Value + 1)
		} else {
			state.B = UnknownReg
		}

	default:
		_ = hasArg // every other opcode (STP, NON, RW, jumps, ...) leaves state unchanged
	}
}

func loadHigh(reg Register, high uint8) Register {
	if reg.Kind != Number {
		return UnknownReg
	}
	return NumberReg(reg.Value + int16(uint16(high)<<8))
}

func foldBinary(a, b Register, op func(a, b int16) int16) Register {
	if a.Kind != Number || b.Kind != Number {
		return UnknownReg
	}
	return NumberReg(op(a.Value, b.Value))
}

func foldShift(reg Register, amount uint8, up bool) Register {
	if reg.Kind != Number {
		return UnknownReg
	}
	bits := uint16(reg.Value)
	if up {
		bits <<= amount
	} else {
		bits >>= amount
	}
	return NumberReg(int16(bits))
}
