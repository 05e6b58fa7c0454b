// Package compiler implements Expression Lowering and Statement Lowering
// (spec.md §4.C–§4.D): it walks an ast.Program and emits isa.Instruction
// values into a scope.Scopes stack, using pkg/machine's symbolic state to
// skip redundant loads and pkg/mark for forward/backward jump targets.
// Grounded on the teacher's pkg/jack/lowering.go (statement/expression
// dispatch shape, label-numbering via a running counter) and on
// original_source/src/backend/compiler.rs (register arbitration, inline
// vars, temp-var lifetime).
package compiler

import (
	"fmt"

	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
	"redstonec.dev/compiler/pkg/mark"
	"redstonec.dev/compiler/pkg/module"
	"redstonec.dev/compiler/pkg/scope"
)

// Compiler is the single top-to-bottom pass over a program: one Scopes
// stack sharing one Arena, one mark Table, and the set of modules `use`d
// so far.
type Compiler struct {
	scopes *scope.Scopes
	marks  *mark.Table
	used   map[string]bool

	// moduleState is a small per-module scratch area intrinsics use for
	// state that outlives a single call (e.g. list's backing pointer
	// slot, reserved once at `use list` and referenced by every
	// list.* call afterwards).
	moduleState map[string]uint8
}

// New creates a Compiler with a fresh arena and a root scope starting in
// the program's entry state.
func New() *Compiler {
	arena := scope.NewArena()
	return &Compiler{
		scopes:      scope.NewScopes(arena, machine.Entry()),
		marks:       mark.NewTable(),
		used:        make(map[string]bool),
		moduleState: make(map[string]uint8),
	}
}

// Emit pushes inst into the innermost scope.
func (c *Compiler) Emit(m isa.Mnemonic, arg ...uint8) error {
	inst, err := isa.New(m, arg...)
	if err != nil {
		return err
	}
	top, err := c.scopes.Current()
	if err != nil {
		return err
	}
	top.Emit(inst)
	return nil
}

// NewMark allocates a fresh jump-mark id.
func (c *Compiler) NewMark() mark.ID { return c.marks.New() }

// MarkHere queues id to bind to whatever the innermost scope emits next.
func (c *Compiler) MarkHere(id mark.ID) error {
	top, err := c.scopes.Current()
	if err != nil {
		return err
	}
	top.MarkHere(id)
	return nil
}

// EnterScope pushes a nested scope starting in the given symbolic state.
// lowerConditional passes the current live state, so `if`/`elif`/`else`
// bodies keep what is known about the registers; lowerWhileLoop and
// lowerEndlessLoop pass machine.Default(), so loop bodies start with every
// register and the RAM page Unknown.
func (c *Compiler) EnterScope(start machine.State) {
	c.scopes.Enter(start)
}

// LeaveScope pops the innermost scope, releases its arena slots, and
// folds it into the parent scope's body as a deferred group.
func (c *Compiler) LeaveScope() error {
	child, err := c.scopes.Leave()
	if err != nil {
		return err
	}
	parent, err := c.scopes.Current()
	if err != nil {
		return err
	}
	parent.EmitGroup(child)
	// Marks queued at the very end of the child bind to whatever the
	// parent emits after the group.
	for _, id := range child.PendingMarks() {
		parent.MarkHere(id)
	}
	return nil
}

// State returns the innermost scope's current symbolic register state.
func (c *Compiler) State() (*machine.State, error) {
	top, err := c.scopes.Current()
	if err != nil {
		return nil, err
	}
	return top.State(), nil
}

// DeclareVar/DeclareInline/LookupVar/LookupInline proxy to the scope stack.
func (c *Compiler) DeclareVar(name string, loc ast.Range) (uint8, error) {
	return c.scopes.DeclareVar(name, loc)
}

func (c *Compiler) DeclareInline(name string, value int16, loc ast.Range) error {
	return c.scopes.DeclareInline(name, value, loc)
}

func (c *Compiler) LookupVar(name string, loc ast.Range) (uint8, error) {
	return c.scopes.LookupVar(name, loc)
}

func (c *Compiler) LookupInline(name string, loc ast.Range) (int16, bool) {
	return c.scopes.LookupInline(name, loc)
}

// AllocTemp/ReleaseTemp proxy to the scope stack's arena, for expression
// lowering's spill slots.
func (c *Compiler) AllocTemp() (uint8, error) { return c.scopes.AllocTemp() }
func (c *Compiler) ReleaseTemp(slot uint8)    { c.scopes.ReleaseTemp(slot) }

// UseModule records that module is in scope. It's only valid at the root
// scope (UseOutsideGlobalScope otherwise); failing that, it fails with
// UnknownModule for a name module.Known does not recognize and with
// ModuleInitTwice if already used, then runs the module's one-time
// initialization hook if it has one.
func (c *Compiler) UseModule(name string, loc ast.Range) error {
	if c.scopes.Depth() != 1 {
		return errs.New(errs.UseOutsideGlobalScope, loc, name)
	}
	if !module.Known(name) {
		return errs.New(errs.UnknownModule, loc, name)
	}
	if c.used[name] {
		return errs.New(errs.ModuleInitTwice, loc, name)
	}
	c.used[name] = true
	return module.Init(c, name, loc)
}

// ModuleInUse reports whether name has been `use`d, checked (as
// UnknownModule) at a module-method call site.
func (c *Compiler) ModuleInUse(name string) bool { return c.used[name] }

// SetModuleState/ModuleState let an intrinsic module stash a single uint8
// of state (an arena slot, typically) that survives across separate
// calls to the same module within one compile.
func (c *Compiler) SetModuleState(key string, v uint8) { c.moduleState[key] = v }

func (c *Compiler) ModuleState(key string) (uint8, bool) {
	v, ok := c.moduleState[key]
	return v, ok
}

// LowerA lowers expr into register A (an alias of LowerExpr, named to
// pair with LowerB for module call sites that need either register).
func (c *Compiler) LowerA(expr ast.Expression) error { return c.lowerInto(regA, expr) }

// LowerB lowers expr into register B.
func (c *Compiler) LowerB(expr ast.Expression) error { return c.lowerInto(regB, expr) }

// IsSimple reports whether expr can be loaded in a single instruction.
func (c *Compiler) IsSimple(expr ast.Expression) bool { return c.isSimple(expr) }

// ReserveHighestSlot reserves the arena's highest free slot, for a
// module's persistent backing storage.
func (c *Compiler) ReserveHighestSlot() (uint8, error) { return c.scopes.AllocHighest() }

// Finish flattens and links the root scope into the final instruction
// program, ready for pkg/emit. Every statement-lowering function that
// calls EnterScope is required to pair it with a matching LeaveScope
// before returning, so by the time Finish runs only the root scope
// remains on the stack; c.scopes.Depth() guards against a lowering bug
// that left scopes unbalanced.
func (c *Compiler) Finish() ([]isa.Instruction, error) {
	if depth := c.scopes.Depth(); depth != 1 {
		panic(fmt.Sprintf("compiler: %d scopes still open at Finish, lowering left the stack unbalanced", depth))
	}
	root, err := c.scopes.Current()
	if err != nil {
		return nil, err
	}
	// Marks still queued after the last instruction (e.g. the exit of a
	// trailing loop) resolve to one past the end, via an empty group.
	if len(root.PendingMarks()) > 0 {
		root.EmitGroup(scope.NewScope(machine.Default()))
	}
	return mark.Link(root.MarkNodes(), c.marks), nil
}
