package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/isa"
)

// listPointerKey names the module-state slot listInit reserves; every
// list.* call looks its arena slot up through this key rather than
// hardcoding it, since the slot is chosen at `use list` time (whichever
// arena slot happens to be free and highest-numbered then).
const listPointerKey = "list_ptr"

var listMethods = map[string]method{
	"add":         {argc: 1, fn: listAdd},
	"pop":         {argc: 0, fn: listPop},
	"get_pointer": {argc: 0, fn: listGetPointer},
	"set_pointer": {argc: 1, fn: listSetPointer},
	"last":        {argc: 0, fn: listLast},
	"at":          {argc: 1, fn: listAt},
}

// listInit reserves the arena's highest free slot as the list's backing
// pointer variable (spec.md §4.E, grounded on list.rs's
// find_pointer_var_slot, which scans from the top down for the same
// reason: collide with high-numbered slots, not ordinary user variables
// declared from slot 0 up).
func listInit(h Host, loc ast.Range) error {
	slot, err := h.ReserveHighestSlot()
	if err != nil {
		return err
	}
	h.SetModuleState(listPointerKey, slot)
	return nil
}

func listPointer(h Host) uint8 {
	slot, _ := h.ModuleState(listPointerKey) // listInit guarantees this is set before any list.* call lowers
	return slot
}

// listAdd writes value to ram[pointer] and leaves pointer incremented by
// one: value goes into A, the pointer into B for the write, then `LAL 1`
// (which *replaces* A, it is a load not an add) followed by ADD computes
// 1 + B — i.e. pointer + 1 — since RW never disturbs B.
func listAdd(h Host, args []ast.Expression, loc ast.Range) error {
	pointer := listPointer(h)
	if err := h.LowerA(args[0]); err != nil {
		return err
	}
	if err := h.Emit(isa.LB, pointer); err != nil {
		return err
	}
	if err := h.Emit(isa.RC); err != nil {
		return err
	}
	if err := h.Emit(isa.RW); err != nil {
		return err
	}
	if err := h.Emit(isa.LAL, 1); err != nil {
		return err
	}
	if err := h.Emit(isa.ADD); err != nil {
		return err
	}
	return h.Emit(isa.SVA, pointer)
}

func listPop(h Host, args []ast.Expression, loc ast.Range) error {
	pointer := listPointer(h)
	if err := h.Emit(isa.LA, pointer); err != nil {
		return err
	}
	if err := h.Emit(isa.LBL, 1); err != nil {
		return err
	}
	if err := h.Emit(isa.SUB); err != nil {
		return err
	}
	if err := h.Emit(isa.SVA, pointer); err != nil {
		return err
	}
	if err := h.Emit(isa.RC); err != nil {
		return err
	}
	return h.Emit(isa.RR)
}

func listGetPointer(h Host, args []ast.Expression, loc ast.Range) error {
	return h.Emit(isa.LA, listPointer(h))
}

func listSetPointer(h Host, args []ast.Expression, loc ast.Range) error {
	pointer := listPointer(h)
	if err := h.LowerA(args[0]); err != nil {
		return err
	}
	return h.Emit(isa.SVA, pointer)
}

func listLast(h Host, args []ast.Expression, loc ast.Range) error {
	pointer := listPointer(h)
	if err := h.Emit(isa.LA, pointer); err != nil {
		return err
	}
	if err := h.Emit(isa.LBL, 1); err != nil {
		return err
	}
	if err := h.Emit(isa.SUB); err != nil {
		return err
	}
	if err := h.Emit(isa.RC); err != nil {
		return err
	}
	return h.Emit(isa.RR)
}

func listAt(h Host, args []ast.Expression, loc ast.Range) error {
	if err := putRamAddress(h, args[0], loc); err != nil {
		return err
	}
	return h.Emit(isa.RR)
}
