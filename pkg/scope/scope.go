// Package scope implements the Scope Stack & Variable Arena (spec.md §4.C):
// nested lexical scopes over a single shared 32-slot global arena, plus
// the per-scope instruction group used to defer jump-mark flattening,
// grounded on original_source/src/backend/types.rs's Scope/Instr and on
// the teacher's pkg/jack/scopes.go ScopeTable (innermost-first lookup).
package scope

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
	"redstonec.dev/compiler/pkg/mark"
	"redstonec.dev/compiler/pkg/utils"
)

var zeroRange ast.Range

// Node is one element of a scope's flattened instruction body: either a
// concrete instruction, or a nested scope group awaiting later flattening
// (original_source's Instr::Code | Instr::Scope).
type Node struct {
	Code   isa.Instruction
	Nested *Scope // non-nil for a nested group; mutually exclusive with Code

	// Marks are mark ids that resolve to this node's eventual index in the
	// flattened instruction stream (its first instruction, if Nested).
	Marks []mark.ID
}

// CodeNode wraps a single instruction as a flat Node.
func CodeNode(i isa.Instruction) Node { return Node{Code: i} }

// GroupNode wraps a nested scope as a deferred Node.
func GroupNode(s *Scope) Node { return Node{Nested: s} }

// IsGroup reports whether n holds a nested scope rather than an instruction.
func (n Node) IsGroup() bool { return n.Nested != nil }

// Instruction implements mark.Node.
func (n Node) Instruction() (isa.Instruction, bool) { return n.Code, !n.IsGroup() }

// Group implements mark.Node: it returns the nested scope's body converted
// to mark.Node values, or nil for a leaf node.
func (n Node) Group() []mark.Node {
	if !n.IsGroup() {
		return nil
	}
	return n.Nested.MarkNodes()
}

// MarkIDs implements mark.Node.
func (n Node) MarkIDs() []mark.ID { return n.Marks }

// Scope is one lexical nesting level: its variables, its inline (constant)
// bindings, the abstract machine state instructions are emitted against,
// and the body of Nodes accumulated so far.
type Scope struct {
	Start machine.State // symbolic state this scope's body begins executing in

	live     machine.State // state as of the last emitted instruction
	liveInit bool

	vars    map[string]uint8
	inline  map[string]int16
	body    []Node
	pending []mark.ID // marks queued to attach to the next emitted Node
}

// NewScope creates an empty scope starting in state.
func NewScope(state machine.State) *Scope {
	return &Scope{
		Start:  state,
		vars:   make(map[string]uint8),
		inline: make(map[string]int16),
	}
}

// State returns the machine state as of the last instruction appended to
// this scope (or Start, if nothing has been emitted yet); the compiler
// mutates the returned pointer's pointee via machine.Execute as it emits.
func (s *Scope) State() *machine.State {
	s.ensureLive()
	return &s.live
}

// Emit appends inst to the body and advances the scope's live state.
func (s *Scope) Emit(inst isa.Instruction) {
	s.ensureLive()
	node := CodeNode(inst)
	node.Marks = s.takePending()
	s.body = append(s.body, node)
	machine.Execute(inst, &s.live)
}

// EmitGroup appends a nested scope as a deferred group.
func (s *Scope) EmitGroup(group *Scope) {
	node := GroupNode(group)
	node.Marks = s.takePending()
	s.body = append(s.body, node)
}

// MarkHere queues id to resolve to the index of whatever is Emit'd (or
// EmitGroup'd) next. Used to bind a jump's target to "the next
// instruction this scope produces" (e.g. an `else:`/`end:` label).
func (s *Scope) MarkHere(id mark.ID) {
	s.pending = append(s.pending, id)
}

func (s *Scope) takePending() []mark.ID {
	if len(s.pending) == 0 {
		return nil
	}
	ids := s.pending
	s.pending = nil
	return ids
}

// PendingMarks returns marks queued via MarkHere that have not yet been
// attached to a node — used when a scope ends with no further emission
// (e.g. an empty loop body), so the caller can carry them to whatever
// follows this scope in the enclosing body.
func (s *Scope) PendingMarks() []mark.ID { return s.pending }

// Body returns the accumulated Nodes.
func (s *Scope) Body() []Node { return s.body }

// MarkNodes exposes this scope's body as mark.Node values, for handing the
// root scope to mark.Link once lowering has finished emitting.
func (s *Scope) MarkNodes() []mark.Node {
	nodes := make([]mark.Node, len(s.body))
	for i, n := range s.body {
		nodes[i] = n
	}
	return nodes
}

// ensureLive lazily seeds live from Start the first time it's needed, so
// a freshly-constructed Scope with no emissions yet still reports Start.
func (s *Scope) ensureLive() {
	if !s.liveInit {
		s.live = s.Start
		s.liveInit = true
	}
}

// declareFresh binds name to a freshly allocated arena slot in this scope.
// Called only once Scopes.DeclareVar has confirmed name isn't already
// bound anywhere on the stack.
func (s *Scope) declareFresh(arena *Arena, name string, _ ast.Range) (uint8, error) {
	slot, err := arena.Alloc()
	if err != nil {
		return 0, err
	}
	s.vars[name] = slot
	return slot, nil
}

// DeclareInline binds name to a compile-time constant value, overwriting
// any existing binding of the same name in this scope.
func (s *Scope) DeclareInline(name string, value int16, _ ast.Range) error {
	s.inline[name] = value
	return nil
}

// lookupVar/lookupInline report whether name is bound directly in this
// scope (no parent walk — that's Scopes.Lookup*'s job).
func (s *Scope) lookupVar(name string) (uint8, bool) {
	slot, ok := s.vars[name]
	return slot, ok
}

func (s *Scope) lookupInline(name string) (int16, bool) {
	v, ok := s.inline[name]
	return v, ok
}

// release frees every arena slot this scope's variables hold, called when
// the scope is popped so sibling/later scopes may reuse the slots.
func (s *Scope) release(arena *Arena) {
	for _, slot := range s.vars {
		arena.Free(slot)
	}
}

// Scopes is the scope stack a Compiler threads through lowering: Enter
// pushes a new nested scope, Leave pops and releases it, and the Lookup*
// methods walk the stack innermost-first the way the teacher's
// ScopeTable.ResolveVariable does.
type Scopes struct {
	arena *Arena
	stack utils.Stack[*Scope]
}

// NewScopes creates a scope stack sharing the given arena, with a single
// root scope already pushed (the entry scope, per spec.md §4.C).
func NewScopes(arena *Arena, root machine.State) *Scopes {
	s := &Scopes{arena: arena}
	s.stack.Push(NewScope(root))
	return s
}

// Enter pushes a new child scope starting in state and returns it so the
// caller can emit into it directly.
func (s *Scopes) Enter(state machine.State) *Scope {
	child := NewScope(state)
	s.stack.Push(child)
	return child
}

// Leave pops the current scope, releases its arena slots, and returns it
// so the caller can fold it into the parent's body as a group Node.
func (s *Scopes) Leave() (*Scope, error) {
	top, err := s.stack.Pop()
	if err != nil {
		return nil, err
	}
	top.release(s.arena)
	return top, nil
}

// Current returns the innermost scope without modifying the stack.
func (s *Scopes) Current() (*Scope, error) {
	return s.stack.Top()
}

// Depth returns the number of scopes currently on the stack (1 for just
// the root scope).
func (s *Scopes) Depth() int { return s.stack.Count() }

// AllocTemp/ReleaseTemp hand out and return arena slots for the compiler's
// own short-lived spill variables (e.g. the already-evaluated right-hand
// operand of a binary op, held while the left operand is loaded into A,
// spec.md §4.C.2) — unlike DeclareVar these are not named or scope-bound, since
// their lifetime is a single expression's lowering, not a lexical scope.
func (s *Scopes) AllocTemp() (uint8, error) { return s.arena.Alloc() }

func (s *Scopes) ReleaseTemp(slot uint8) { s.arena.Free(slot) }

// AllocHighest reserves the arena's highest free slot, for a module's
// persistent backing storage (e.g. list's pointer variable).
func (s *Scopes) AllocHighest() (uint8, error) { return s.arena.AllocHighest() }

// DeclareVar declares name, searching every enclosing scope innermost-first
// first: if name is already bound anywhere on the stack its existing slot
// is reused (aliasing, not shadowing), and only an unbound name allocates a
// fresh arena slot in the innermost scope.
func (s *Scopes) DeclareVar(name string, loc ast.Range) (uint8, error) {
	for _, scope := range s.stack.Iterator() {
		if slot, ok := scope.lookupVar(name); ok {
			return slot, nil
		}
	}
	top, err := s.stack.Top()
	if err != nil {
		return 0, err
	}
	return top.declareFresh(s.arena, name, loc)
}

// DeclareInline declares a constant binding in the innermost scope.
func (s *Scopes) DeclareInline(name string, value int16, loc ast.Range) error {
	top, err := s.stack.Top()
	if err != nil {
		return err
	}
	return top.DeclareInline(name, value, loc)
}

// LookupVar walks the stack innermost-first looking for a variable
// binding, returning its arena slot.
func (s *Scopes) LookupVar(name string, loc ast.Range) (uint8, error) {
	for _, scope := range s.stack.Iterator() {
		if slot, ok := scope.lookupVar(name); ok {
			return slot, nil
		}
	}
	return 0, errs.New(errs.NonexistentVar, loc, name)
}

// LookupInline walks the stack innermost-first looking for an inline
// constant binding.
func (s *Scopes) LookupInline(name string, loc ast.Range) (int16, bool) {
	for _, scope := range s.stack.Iterator() {
		if v, ok := scope.lookupInline(name); ok {
			return v, true
		}
	}
	return 0, false
}
