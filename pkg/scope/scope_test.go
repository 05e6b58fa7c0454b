package scope

import (
	"testing"

	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/machine"
)

func TestArenaExhaustion(t *testing.T) {
	arena := NewArena()
	for i := 0; i < arenaSize; i++ {
		if _, err := arena.Alloc(); err != nil {
			t.Fatalf("unexpected error allocating slot %d: %v", i, err)
		}
	}

	_, err := arena.Alloc()
	if err == nil {
		t.Fatal("expected TooManyVars, got nil")
	}
	if e, ok := err.(*errs.Error); !ok || e.Kind != errs.TooManyVars {
		t.Fatalf("expected TooManyVars, got %v", err)
	}
}

func TestArenaReuseAfterFree(t *testing.T) {
	arena := NewArena()
	slot, err := arena.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	arena.Free(slot)

	again, err := arena.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	if again != slot {
		t.Fatalf("expected freed slot %d to be reused, got %d", slot, again)
	}
}

func TestScopesDeclareInNestedScopeAliasesEnclosing(t *testing.T) {
	arena := NewArena()
	scopes := NewScopes(arena, machine.Entry())

	outerSlot, err := scopes.DeclareVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}

	scopes.Enter(machine.Entry())
	innerSlot, err := scopes.DeclareVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	if innerSlot != outerSlot {
		t.Fatalf("expected nested declaration of 'x' to alias the enclosing slot %d, got %d", outerSlot, innerSlot)
	}

	got, err := scopes.LookupVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	if got != outerSlot {
		t.Fatalf("expected aliased binding (slot %d), got slot %d", outerSlot, got)
	}

	if _, err := scopes.Leave(); err != nil {
		t.Fatal(err)
	}

	got, err = scopes.LookupVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	if got != outerSlot {
		t.Fatalf("expected outer binding (slot %d) to still resolve after inner scope popped, got slot %d", outerSlot, got)
	}
}

func TestScopesDeclareInNestedScopeNewNameAllocatesFresh(t *testing.T) {
	arena := NewArena()
	scopes := NewScopes(arena, machine.Entry())

	if _, err := scopes.DeclareVar("x", zeroRange); err != nil {
		t.Fatal(err)
	}

	scopes.Enter(machine.Entry())
	ySlot, err := scopes.DeclareVar("y", zeroRange)
	if err != nil {
		t.Fatal(err)
	}

	xSlot, err := scopes.LookupVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	if ySlot == xSlot {
		t.Fatalf("expected distinct names to get distinct slots, both got %d", xSlot)
	}
}

func TestScopesAliasingAfterLeave(t *testing.T) {
	arena := NewArena()
	scopes := NewScopes(arena, machine.Entry())

	scopes.Enter(machine.Entry())
	firstSlot, err := scopes.DeclareVar("tmp", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := scopes.Leave(); err != nil {
		t.Fatal(err)
	}

	scopes.Enter(machine.Entry())
	secondSlot, err := scopes.DeclareVar("other", zeroRange)
	if err != nil {
		t.Fatal(err)
	}

	if secondSlot != firstSlot {
		t.Fatalf("expected sibling scope to alias the freed slot %d, got %d", firstSlot, secondSlot)
	}
}

func TestRedeclareVarInSameScopeAliasesSameSlot(t *testing.T) {
	arena := NewArena()
	scopes := NewScopes(arena, machine.Entry())

	first, err := scopes.DeclareVar("x", zeroRange)
	if err != nil {
		t.Fatal(err)
	}
	second, err := scopes.DeclareVar("x", zeroRange)
	if err != nil {
		t.Fatalf("redeclaring 'x' in the same scope should not error, got %v", err)
	}
	if second != first {
		t.Fatalf("expected redeclaration to reuse slot %d, got %d", first, second)
	}
}

func TestLookupInlineMissing(t *testing.T) {
	arena := NewArena()
	scopes := NewScopes(arena, machine.Entry())

	if _, ok := scopes.LookupInline("missing", zeroRange); ok {
		t.Fatal("expected LookupInline to report not-found")
	}
}
