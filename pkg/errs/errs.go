// Package errs implements the Error Model (spec.md §7): a closed set of
// thirteen error kinds, each carrying the source Range of the offending
// construct, grounded on original_source/src/backend/error.rs's Type enum
// and its Display implementation.
package errs

import (
	"fmt"

	"redstonec.dev/compiler/pkg/ast"
)

// Kind is one of the thirteen closed error kinds spec.md §7 names.
type Kind int

const (
	NonexistentVar Kind = iota
	NonexistentInlineVar
	TooManyVars
	ForbiddenInline
	UnknownModule
	UnknownMethod
	InvalidArgs
	CompileTimeArg
	ModuleInitTwice
	EqInNormalExpr
	NormalInEqExpr
	UseOutsideGlobalScope
	Internal
)

// Error is a located compiler diagnostic: a Kind plus the name/message
// argument its rendering needs, plus the source Range it occurred at.
type Error struct {
	Kind     Kind
	Location ast.Range
	Name     string // variable/module/method name or free-form message, where applicable
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.message(), e.Location.Start.Line, e.Location.Start.Col)
}

func (e *Error) message() string {
	switch e.Kind {
	case NonexistentVar:
		return fmt.Sprintf("Variable %s is not defined", e.Name)
	case NonexistentInlineVar:
		return fmt.Sprintf("Inline variable %s is not defined", e.Name)
	case TooManyVars:
		return "There are too many variables"
	case ForbiddenInline:
		return "This expression cannot be used in an inline expression"
	case UnknownModule:
		return fmt.Sprintf("The module %s is either not loaded or doesn't exist", e.Name)
	case UnknownMethod:
		return fmt.Sprintf("The method %s doesn't exist", e.Name)
	case InvalidArgs:
		return fmt.Sprintf("The arguments %s are invalid", e.Name)
	case CompileTimeArg:
		return fmt.Sprintf("%s has to be known at compile-time", e.Name)
	case ModuleInitTwice:
		return fmt.Sprintf("The module %s was initialized twice", e.Name)
	case EqInNormalExpr:
		return "You can't use an Equality Expression in a Normal Expression"
	case NormalInEqExpr:
		return "You can't use a normal Expression here"
	case UseOutsideGlobalScope:
		return "You can only use 'use' in the global scope"
	case Internal:
		return fmt.Sprintf("Something else has gone wrong: %s. Please report this to the developer", e.Name)
	default:
		return "unknown error"
	}
}

// New builds an Error of the given kind, location and name/message.
func New(kind Kind, loc ast.Range, name string) *Error {
	return &Error{Kind: kind, Location: loc, Name: name}
}
