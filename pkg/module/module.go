// Package module implements the Module Dispatcher and its five intrinsic
// modules (spec.md §4.E): io, screen, colorscreen, ram, and list. Each
// maps a handful of `module.method(args...)` calls onto raw instruction
// sequences against fixed, memory-mapped register addresses. Grounded on
// original_source/src/backend/module/{io,screen,colorscreen,ram,list}.rs.
package module

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
)

// Host is the slice of *compiler.Compiler every intrinsic needs: register
// loads in either accumulator, temp-slot bookkeeping, constant folding,
// and the symbolic state modules consult to skip a redundant RC (spec.md
// §4.E.1). Expressed as an interface so pkg/module never imports
// pkg/compiler.
type Host interface {
	Emit(m isa.Mnemonic, arg ...uint8) error
	LowerA(expr ast.Expression) error
	LowerB(expr ast.Expression) error
	TryConstant(expr ast.Expression) (int16, bool)
	IsSimple(expr ast.Expression) bool
	AllocTemp() (uint8, error)
	ReleaseTemp(slot uint8)
	State() (*machine.State, error)
	SetModuleState(key string, v uint8)
	ModuleState(key string) (uint8, bool)
	ReserveHighestSlot() (uint8, error)
}

// method is one module function: its required argument count and the
// Go function implementing it.
type method struct {
	argc int
	fn   func(h Host, args []ast.Expression, loc ast.Range) error
}

// registry maps module name -> method name -> implementation.
var registry = map[string]map[string]method{
	"io":          ioMethods,
	"screen":      screenMethods,
	"colorscreen": colorscreenMethods,
	"ram":         ramMethods,
	"list":        listMethods,
}

// inits holds the one-time per-module setup hook, if the module has one
// (only list does — reserving its backing pointer slot).
var inits = map[string]func(h Host, loc ast.Range) error{
	"list": listInit,
}

// Known reports whether name is a recognized module; Compiler.UseModule
// calls it to reject a `use` of an unknown module (UnknownModule).
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Init runs module name's one-time setup hook, if it has one.
func Init(h Host, name string, loc ast.Range) error {
	if init, ok := inits[name]; ok {
		return init(h, loc)
	}
	return nil
}

// Dispatch resolves `module.method(args...)` and lowers it, failing with
// UnknownModule, UnknownMethod, or InvalidArgs as appropriate (spec.md §7).
func Dispatch(h Host, moduleName, methodName string, args []ast.Expression, loc ast.Range) error {
	methods, ok := registry[moduleName]
	if !ok {
		return errs.New(errs.UnknownModule, loc, moduleName)
	}
	m, ok := methods[methodName]
	if !ok {
		return errs.New(errs.UnknownMethod, loc, moduleName+"."+methodName)
	}
	if len(args) != m.argc {
		return errs.New(errs.InvalidArgs, loc, "Wrong number of Arguments")
	}
	return m.fn(h, args, loc)
}

// mustConstant evaluates expr as a compile-time constant or fails with
// CompileTimeArg at loc — used for the io slot argument of io.read and
// io.write.
func mustConstant(h Host, expr ast.Expression, name string, loc ast.Range) (int16, error) {
	v, ok := h.TryConstant(expr)
	if !ok {
		return 0, errs.New(errs.CompileTimeArg, loc, name)
	}
	return v, nil
}

// spillA evaluates expr into A then immediately stores it to a fresh temp
// slot, returning the slot so the caller can reload it after computing
// something else into A. The caller must ReleaseTemp when done.
func spillA(h Host, expr ast.Expression) (uint8, error) {
	if err := h.LowerA(expr); err != nil {
		return 0, err
	}
	temp, err := h.AllocTemp()
	if err != nil {
		return 0, err
	}
	if err := h.Emit(isa.SVA, temp); err != nil {
		return 0, err
	}
	return temp, nil
}
