package compiler

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
	"redstonec.dev/compiler/pkg/mark"
)

// LowerProgram lowers a whole statement list (the top-level program body)
// and returns the final linked instruction stream.
func (c *Compiler) LowerProgram(stmts []ast.Statement) ([]isa.Instruction, error) {
	if err := c.LowerStatements(stmts); err != nil {
		return nil, err
	}
	return c.Finish()
}

// LowerStatements lowers each statement in order into the current scope.
func (c *Compiler) LowerStatements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := c.LowerStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// LowerStatement dispatches on the concrete statement shape, mirroring
// the teacher's HandleStatement dispatch.
func (c *Compiler) LowerStatement(s ast.Statement) error {
	switch st := s.(type) {
	case ast.InlineDeclaration:
		return c.lowerInlineDeclaration(st)
	case ast.VarDeclaration:
		_, err := c.DeclareVar(st.Symbol, st.Span())
		return err
	case ast.Use:
		return c.UseModule(st.Module, st.Span())
	case ast.Pass:
		return nil
	case ast.ExprStatement:
		return c.LowerExpr(st.Expr)
	case ast.Conditional:
		return c.lowerConditional(st)
	case ast.EndlessLoop:
		return c.lowerEndlessLoop(st)
	case ast.WhileLoop:
		return c.lowerWhileLoop(st)
	default:
		return errs.New(errs.Internal, s.Span(), "unhandled statement shape")
	}
}

func (c *Compiler) lowerInlineDeclaration(st ast.InlineDeclaration) error {
	v, err := c.tryConstant(st.Value)
	if err != nil {
		return err
	}
	return c.DeclareInline(st.Symbol, v, st.Span())
}

// lowerBlock runs stmts inside a freshly entered nested scope starting in
// start, then folds the scope back into its parent as a deferred group.
func (c *Compiler) lowerBlock(stmts []ast.Statement, start machine.State) error {
	c.EnterScope(start)
	if err := c.LowerStatements(stmts); err != nil {
		// Still leave the scope so the stack stays balanced even on error;
		// the caller is about to abort the whole compile anyway.
		_ = c.LeaveScope()
		return err
	}
	return c.LeaveScope()
}

type branch struct {
	cond ast.Expression
	body []ast.Statement
}

// lowerConditional implements the if/elif*/else? chain (spec.md §4.D.1):
// one jump-past-body per branch on the branch's negated condition, one
// unconditional jump-to-done after a taken branch's body, and a trailing
// else body with no guard.
func (c *Compiler) lowerConditional(s ast.Conditional) error {
	branches := make([]branch, 0, 1+len(s.Paths))
	branches = append(branches, branch{s.Condition, s.Body})
	for _, p := range s.Paths {
		branches = append(branches, branch{p.Condition, p.Body})
	}

	hasElse := s.Alternate != nil
	doneMark := c.NewMark()

	for i, b := range branches {
		isLast := i == len(branches)-1
		skip := c.NewMark()

		if err := c.lowerGuard(b.cond, skip); err != nil {
			return err
		}

		state, err := c.State()
		if err != nil {
			return err
		}
		if err := c.lowerBlock(b.body, *state); err != nil {
			return err
		}

		if !isLast || hasElse {
			if err := c.Emit(isa.JMP, uint8(doneMark)); err != nil {
				return err
			}
		}
		if err := c.MarkHere(skip); err != nil {
			return err
		}
	}

	if hasElse {
		state, err := c.State()
		if err != nil {
			return err
		}
		if err := c.lowerBlock(s.Alternate, *state); err != nil {
			return err
		}
	}

	return c.MarkHere(doneMark)
}

// lowerEndlessLoop lowers a `forever` loop: body re-enters with fully
// unknown symbolic state since the back-edge invalidates any analysis
// done across iterations (spec.md §4.D).
func (c *Compiler) lowerEndlessLoop(s ast.EndlessLoop) error {
	top := c.NewMark()
	if err := c.MarkHere(top); err != nil {
		return err
	}
	if err := c.lowerBlock(s.Body, machine.Default()); err != nil {
		return err
	}
	return c.Emit(isa.JMP, uint8(top))
}

// lowerWhileLoop lowers a `while cond ... end` loop.
func (c *Compiler) lowerWhileLoop(s ast.WhileLoop) error {
	top := c.NewMark()
	done := c.NewMark()

	if err := c.MarkHere(top); err != nil {
		return err
	}
	if err := c.lowerGuard(s.Condition, done); err != nil {
		return err
	}
	if err := c.lowerBlock(s.Body, machine.Default()); err != nil {
		return err
	}
	if err := c.Emit(isa.JMP, uint8(top)); err != nil {
		return err
	}
	return c.MarkHere(done)
}

// lowerGuard loads cond's operands into A/B (spec.md §4.D.1: the same
// commutativity arbitration binary expressions use, with is_commutative
// always true) and emits a jump to exit when cond is negated true — i.e.
// jump away from the body when cond is FALSE. cond must be a canonical
// `L op R` comparison; a bare expression here is NormalInEqExpr, not an
// implicit `!= 0`.
func (c *Compiler) lowerGuard(cond ast.Expression, exit mark.ID) error {
	eq, ok := cond.(ast.EqExpr)
	if !ok {
		return errs.New(errs.NormalInEqExpr, cond.Span(), "")
	}

	a, b, swapped, err := c.arbitrate(eq.Left, eq.Right, true)
	if err != nil {
		return err
	}
	if err := c.lowerInto(regA, a); err != nil {
		return err
	}
	if err := c.lowerInto(regB, b); err != nil {
		return err
	}

	op := eq.Op
	if swapped {
		op = turnaround(op)
	}
	return c.Emit(jumpFor(negate(op)), uint8(exit))
}

// turnaround returns op as seen with its operands reversed, for when
// arbitrate swapped L and R into B/A instead of A/B (spec.md §4.D.1): `==`
// and `!=` are symmetric, `>` and `<` trade places, as do `>=` and `<=`.
func turnaround(op ast.Op) ast.Op {
	switch op {
	case ast.Gt:
		return ast.Lt
	case ast.Lt:
		return ast.Gt
	case ast.Gte:
		return ast.Lte
	case ast.Lte:
		return ast.Gte
	default:
		return op
	}
}

// negate returns op's logical complement, for turning "jump into the
// body when true" into "jump past the body when false".
func negate(op ast.Op) ast.Op {
	switch op {
	case ast.Eq:
		return ast.Neq
	case ast.Neq:
		return ast.Eq
	case ast.Gt:
		return ast.Lte
	case ast.Gte:
		return ast.Lt
	case ast.Lt:
		return ast.Gte
	case ast.Lte:
		return ast.Gt
	default:
		return op
	}
}

func jumpFor(op ast.Op) isa.Mnemonic {
	switch op {
	case ast.Eq:
		return isa.JE
	case ast.Neq:
		return isa.JNE
	case ast.Gt:
		return isa.JG
	case ast.Gte:
		return isa.JGE
	case ast.Lt:
		return isa.JL
	case ast.Lte:
		return isa.JLE
	default:
		return isa.JNE
	}
}
