package scope

import "redstonec.dev/compiler/pkg/errs"

// arenaSize is the number of global variable slots the target machine's
// fixed register-addressed RAM window provides (spec.md §3).
const arenaSize = 32

// Arena is the 32-slot global variable arena every Compiler owns exactly
// one of. Scopes allocate and release slots from it as variables and
// temporaries come into and go out of scope.
type Arena struct {
	used [arenaSize]bool
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// Alloc reserves the lowest free slot and returns it. It fails with
// errs.TooManyVars once every slot is taken.
func (a *Arena) Alloc() (uint8, error) {
	for i := 0; i < arenaSize; i++ {
		if !a.used[i] {
			a.used[i] = true
			return uint8(i), nil
		}
	}
	return 0, errs.New(errs.TooManyVars, zeroRange, "")
}

// AllocHighest reserves the highest-numbered free slot instead of the
// lowest, the way original_source's list module claims its backing
// pointer variable (it wants a slot unlikely to collide with ordinary
// low-numbered user variables).
func (a *Arena) AllocHighest() (uint8, error) {
	for i := arenaSize - 1; i >= 0; i-- {
		if !a.used[i] {
			a.used[i] = true
			return uint8(i), nil
		}
	}
	return 0, errs.New(errs.TooManyVars, zeroRange, "")
}

// Free releases slot back to the arena so a later declaration can reuse
// it — this is how aliasing across disjoint scopes is achieved (two
// variables declared in sibling scopes may legitimately share a slot).
func (a *Arena) Free(slot uint8) {
	a.used[slot] = false
}
