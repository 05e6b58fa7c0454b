// Package machine tracks the abstract state of the target CPU — the
// symbolically-known content of registers A, B, C and the current RAM
// page — the way original_source/src/backend/types.rs's ComputerState
// does. Every emitted instruction is fed through Execute so the rest of
// the backend can skip redundant loads (spec.md §4.A, §9).
package machine

// Kind tags which variant of RegisterContent a register holds.
type Kind int

const (
	Unknown Kind = iota
	Variable
	Number
	RamAddress
)

// Register is the tagged value a register can symbolically hold.
// Only one of Slot/Value is meaningful, selected by Kind.
type Register struct {
	Kind  Kind
	Slot  uint8
	Value int16
}

// UnknownReg is the zero/default register content.
var UnknownReg = Register{Kind: Unknown}

// VariableReg builds a Register tagged Variable(slot).
func VariableReg(slot uint8) Register { return Register{Kind: Variable, Slot: slot} }

// NumberReg builds a Register tagged Number(v).
func NumberReg(v int16) Register { return Register{Kind: Number, Value: v} }

// RamAddressReg builds a Register tagged RamAddress.
func RamAddressReg() Register { return Register{Kind: RamAddress} }

// Page is the tagged value the RAM-page register can hold: either a known
// page number or Unknown.
type Page struct {
	Known bool
	Value uint8
}

// PageZero is the default RAM page state: ThisOne(0), per
// original_source/src/backend/types.rs's `impl Default for RamPage`.
var PageZero = Page{Known: true, Value: 0}

// PageUnknown is the RAM page state after an un-trackable RC, or at the
// head of a `forever` loop where no prior analysis can be trusted.
var PageUnknown = Page{Known: false}

// ThisPage builds a known Page value.
func ThisPage(v uint8) Page { return Page{Known: true, Value: v} }

// State is the symbolic machine state: the known content of A, B, C and
// the current RAM page. Scopes carry one of these as their entry state
// (spec.md §3's "start state").
type State struct {
	A, B, C Register
	Page    Page
}

// Default returns the state a fresh `forever` loop body starts with: all
// registers and the page are Unknown, since looping back invalidates any
// prior symbolic analysis (spec.md §4.D).
func Default() State {
	return State{A: UnknownReg, B: UnknownReg, C: UnknownReg, Page: PageUnknown}
}

// Entry returns the state a top-level (root) scope starts with: registers
// unknown, RAM page defaulted to ThisOne(0).
func Entry() State {
	return State{A: UnknownReg, B: UnknownReg, C: UnknownReg, Page: PageZero}
}
