package compiler

import (
	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/errs"
	"redstonec.dev/compiler/pkg/isa"
	"redstonec.dev/compiler/pkg/machine"
	"redstonec.dev/compiler/pkg/module"
)

// reg names which accumulator register an operand should land in.
type reg int

const (
	regA reg = iota
	regB
)

// LowerExpr lowers expr so its result ends up in register A, applying
// the A/B arbitration and skip-redundant-load rules of spec.md §4.C.2.
func (c *Compiler) LowerExpr(expr ast.Expression) error {
	return c.lowerInto(regA, expr)
}

// TryConstant attempts to fold expr to a compile-time constant without
// emitting anything, for contexts that require one (spec.md §4.C.4, e.g.
// an array/module argument that must be a literal page or address). It
// tolerates exactly ForbiddenInline and NonexistentInlineVar, reporting
// simply "not a constant" for either; every other error from the inline
// evaluator would indicate a deeper problem and is not expected here since
// the inline-only grammar it walks can't produce one.
func (c *Compiler) TryConstant(expr ast.Expression) (int16, bool) {
	v, err := c.tryConstant(expr)
	return v, err == nil
}

// tryConstant is the inline-only recursive evaluator (spec.md §4.C.4): it
// resolves numeric literals, inline identifiers, module constants, and
// binary operations over them, and fails with a specific typed error for
// every name it can't resolve this way.
func (c *Compiler) tryConstant(expr ast.Expression) (int16, error) {
	switch e := expr.(type) {
	case ast.NumericLiteral:
		return e.Value, nil
	case ast.Identifier:
		if v, ok := c.LookupInline(e.Name, e.Span()); ok {
			return v, nil
		}
		if _, err := c.LookupVar(e.Name, e.Span()); err == nil {
			return 0, errs.New(errs.ForbiddenInline, e.Span(), e.Name)
		}
		return 0, errs.New(errs.NonexistentInlineVar, e.Span(), e.Name)
	case ast.BinaryExpr:
		l, err := c.tryConstant(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := c.tryConstant(e.Right)
		if err != nil {
			return 0, err
		}
		return foldConstant(e.Op, l, r), nil
	case ast.Member:
		if v, ok := module.ConstantMember(e); ok {
			return v, nil
		}
		return 0, errs.New(errs.ForbiddenInline, e.Span(), "member")
	default:
		return 0, errs.New(errs.ForbiddenInline, expr.Span(), "expression")
	}
}

func foldConstant(op ast.Op, l, r int16) int16 {
	switch op {
	case ast.Plus:
		return l + r
	case ast.Minus:
		return l - r
	case ast.Mul:
		return l * r
	case ast.And:
		return l & r
	case ast.Or:
		return l | r
	case ast.Xor:
		return l ^ r
	default:
		return 0
	}
}

// isSimple reports whether expr can be loaded directly into a register in
// one step: a variable reference, a numeric literal, `debug`, or a binary
// expression that folds to a compile-time constant — spec.md §4.C's
// can-load-B predicate. Anything else (a non-constant binary expression, a
// call) must be evaluated into A first and spilled to a temp if it's
// needed as the right-hand operand (spec.md §4.C.2).
func (c *Compiler) isSimple(expr ast.Expression) bool {
	switch e := expr.(type) {
	case ast.NumericLiteral:
		return true
	case ast.Identifier:
		return true
	case ast.Debug:
		return true
	case ast.BinaryExpr:
		if _, ok := c.TryConstant(e); ok {
			return true
		}
	}
	return false
}

// canLoadA is spec.md §4.C's can-load-A predicate: everything isSimple
// admits, plus an assignment whose value recursively satisfies it (its
// SVA leaves A carrying the stored value, so it loads into A in one shot
// too, unlike into B).
func (c *Compiler) canLoadA(expr ast.Expression) bool {
	if a, ok := expr.(ast.Assignment); ok {
		return c.canLoadA(a.Value)
	}
	return c.isSimple(expr)
}

// regValueOf reports the symbolic register content expr would load as,
// without emitting anything — used only to compare against the machine's
// current register state for the commutativity arbitration below.
func (c *Compiler) regValueOf(expr ast.Expression) (machine.Register, bool) {
	switch e := expr.(type) {
	case ast.NumericLiteral:
		return machine.NumberReg(e.Value), true
	case ast.Debug:
		return machine.NumberReg(17), true
	case ast.Identifier:
		if v, ok := c.LookupInline(e.Name, e.Span()); ok {
			return machine.NumberReg(v), true
		}
		if slot, err := c.LookupVar(e.Name, e.Span()); err == nil {
			return machine.VariableReg(slot), true
		}
	default:
		if v, ok := c.TryConstant(expr); ok {
			return machine.NumberReg(v), true
		}
	}
	return machine.Register{}, false
}

func regEqual(a, b machine.Register) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case machine.Number:
		return a.Value == b.Value
	case machine.Variable:
		return a.Slot == b.Slot
	default:
		return false
	}
}

// arbitrate picks which of left/right lands in A and which in B. When the
// operator is commutative, it prefers whichever assignment already
// matches the machine's current A/B contents (minimizing reloads); tied or
// undecided, it tie-breaks toward putting an identifier rather than a
// literal into A (spec.md §4.C.2, §4.D.1). Called with commutative=false
// (a non-commutative binary operator), it always keeps left in A and right
// in B, and swapped is always false; lowerGuard always passes true.
func (c *Compiler) arbitrate(left, right ast.Expression, commutative bool) (a, b ast.Expression, swapped bool, err error) {
	if !commutative {
		return left, right, false, nil
	}

	state, err := c.State()
	if err != nil {
		return nil, nil, false, err
	}

	leftReg, leftKnown := c.regValueOf(left)
	rightReg, rightKnown := c.regValueOf(right)

	keepScore := 0
	if leftKnown && regEqual(state.A, leftReg) {
		keepScore++
	}
	if rightKnown && regEqual(state.B, rightReg) {
		keepScore++
	}

	swapScore := 0
	if rightKnown && regEqual(state.A, rightReg) {
		swapScore++
	}
	if leftKnown && regEqual(state.B, leftReg) {
		swapScore++
	}

	if swapScore > keepScore {
		return right, left, true, nil
	}
	if swapScore == keepScore {
		_, leftIsIdent := left.(ast.Identifier)
		_, rightIsIdent := right.(ast.Identifier)
		if !leftIsIdent && rightIsIdent {
			return right, left, true, nil
		}
	}
	return left, right, false, nil
}

// lowerInto lowers expr so its result lands in the named register.
func (c *Compiler) lowerInto(dst reg, expr ast.Expression) error {
	switch e := expr.(type) {
	case ast.NumericLiteral:
		return c.loadNumber(dst, e.Value)

	case ast.Identifier:
		if v, ok := c.LookupInline(e.Name, e.Span()); ok {
			return c.loadNumber(dst, v)
		}
		slot, err := c.LookupVar(e.Name, e.Span())
		if err != nil {
			return err
		}
		return c.loadVariable(dst, slot)

	case ast.Debug:
		return c.loadNumber(dst, 17)

	case ast.Assignment:
		return c.lowerAssignment(dst, e)

	case ast.BinaryExpr:
		if v, ok := c.TryConstant(e); ok {
			return c.loadNumber(dst, v)
		}
		return c.lowerBinary(dst, e)

	case ast.EqExpr:
		// A comparison only has meaning as a condition, lowered directly by
		// lowerGuard; reaching here means it turned up as an ordinary value
		// (an assignment's right-hand side, a call argument, ...).
		return errs.New(errs.EqInNormalExpr, e.Span(), "")

	case ast.Call:
		if err := c.lowerModuleCall(e); err != nil {
			return err
		}
		if dst != regA {
			return c.moveAtoB()
		}
		return nil

	case ast.Member:
		if v, ok := module.ConstantMember(e); ok {
			return c.loadNumber(dst, v)
		}
		return errs.New(errs.UnknownMethod, e.Span(), e.Property)

	default:
		return errs.New(errs.Internal, expr.Span(), "unhandled expression shape")
	}
}

// loadNumber emits LxL (+ LxH if the high byte is non-zero) to load a
// literal into dst, skipping entirely if dst's symbolic content already
// equals v.
func (c *Compiler) loadNumber(dst reg, v int16) error {
	state, err := c.State()
	if err != nil {
		return err
	}
	current := regOf(state, dst)
	if current.Kind == machine.Number && current.Value == v {
		return nil // already loaded, spec.md §4.A/§9 redundant-load elision
	}

	low := uint8(uint16(v) & 0xFF)
	high := uint8(uint16(v) >> 8)

	if err := c.Emit(lowMnemonic(dst), low); err != nil {
		return err
	}
	if high != 0 {
		if err := c.Emit(highMnemonic(dst), high); err != nil {
			return err
		}
	}
	return nil
}

// loadVariable emits Lx <slot> to load a variable into dst, skipping if
// dst already symbolically holds that variable.
func (c *Compiler) loadVariable(dst reg, slot uint8) error {
	state, err := c.State()
	if err != nil {
		return err
	}
	current := regOf(state, dst)
	if current.Kind == machine.Variable && current.Slot == slot {
		return nil
	}
	return c.Emit(loadMnemonic(dst), slot)
}

// lowerAssignment evaluates e.Value into A, stores it to e.Symbol
// (declaring it first if no enclosing scope has it yet), and (since an
// assignment is itself an expression, spec.md §6) leaves the assigned
// value in A so it can participate in a further expression.
func (c *Compiler) lowerAssignment(dst reg, e ast.Assignment) error {
	if err := c.lowerInto(regA, e.Value); err != nil {
		return err
	}
	slot, err := c.DeclareVar(e.Symbol, e.Span())
	if err != nil {
		return err
	}
	if err := c.Emit(isa.SVA, slot); err != nil {
		return err
	}
	if dst != regA {
		return c.moveAtoB()
	}
	return nil
}

// lowerBinary dispatches to one of the 4 shapes spec.md §4.C.2 describes,
// chosen by (can-load-A(left), can-load-B(right)).
func (c *Compiler) lowerBinary(dst reg, e ast.BinaryExpr) error {
	left, right := e.Left, e.Right
	leftLoadableA, rightLoadableB := c.canLoadA(left), c.isSimple(right)

	switch {
	case leftLoadableA && rightLoadableB:
		return c.lowerSimpleSimple(dst, left, right, e)
	case leftLoadableA:
		return c.lowerSimpleComplex(dst, left, right, e)
	case rightLoadableB:
		return c.lowerComplexSimple(dst, left, right, e)
	default:
		return c.lowerComplexComplex(dst, left, right, e)
	}
}

// lowerSimpleSimple is shape 1: both operands load directly. When the
// operator is commutative, arbitrate may reassign which operand goes to
// which register to avoid a redundant reload.
func (c *Compiler) lowerSimpleSimple(dst reg, left, right ast.Expression, e ast.BinaryExpr) error {
	a, b, _, err := c.arbitrate(left, right, e.Op.Commutative())
	if err != nil {
		return err
	}
	if err := c.lowerInto(regA, a); err != nil {
		return err
	}
	if err := c.lowerInto(regB, b); err != nil {
		return err
	}
	return c.finishBinary(dst, e.Op, e.Span())
}

// lowerComplexSimple is shape 3: left must be evaluated, right loads
// directly into B.
func (c *Compiler) lowerComplexSimple(dst reg, left, right ast.Expression, e ast.BinaryExpr) error {
	if err := c.lowerInto(regA, left); err != nil {
		return err
	}
	if err := c.lowerInto(regB, right); err != nil {
		return err
	}
	return c.finishBinary(dst, e.Op, e.Span())
}

// lowerSimpleComplex is shape 2: right must be evaluated into A first.
// Three ways to get both operands loaded without losing that result:
// if the op is commutative and left loads directly, just load B from
// left; else if right was itself an assignment, reload B from the
// variable it just stored (cheaper than spilling through a temp) and load
// A from left; else spill A to a temp before re-loading A from left.
func (c *Compiler) lowerSimpleComplex(dst reg, left, right ast.Expression, e ast.BinaryExpr) error {
	if err := c.lowerInto(regA, right); err != nil {
		return err
	}

	if e.Op.Commutative() && c.isSimple(left) {
		if err := c.lowerInto(regB, left); err != nil {
			return err
		}
		return c.finishBinary(dst, e.Op, e.Span())
	}

	if assign, ok := right.(ast.Assignment); ok {
		slot, err := c.LookupVar(assign.Symbol, assign.Span())
		if err != nil {
			return err
		}
		if err := c.loadVariable(regB, slot); err != nil {
			return err
		}
		if err := c.lowerInto(regA, left); err != nil {
			return err
		}
		return c.finishBinary(dst, e.Op, e.Span())
	}

	return c.spillThenLoadLeft(dst, left, e.Op, e.Span())
}

// lowerComplexComplex is shape 4: both operands need evaluating. right is
// lowered first; if it was itself an assignment, left can be lowered
// straight into A and B reloaded from right's slot, else the generic
// spill-through-a-temp applies exactly as in shape 2.
func (c *Compiler) lowerComplexComplex(dst reg, left, right ast.Expression, e ast.BinaryExpr) error {
	if err := c.lowerInto(regA, right); err != nil {
		return err
	}

	if assign, ok := right.(ast.Assignment); ok {
		if err := c.lowerInto(regA, left); err != nil {
			return err
		}
		slot, err := c.LookupVar(assign.Symbol, assign.Span())
		if err != nil {
			return err
		}
		if err := c.loadVariable(regB, slot); err != nil {
			return err
		}
		return c.finishBinary(dst, e.Op, e.Span())
	}

	return c.spillThenLoadLeft(dst, left, e.Op, e.Span())
}

// spillThenLoadLeft stores A (the already-lowered right-hand operand) to
// a fresh temp, lowers left into A, reloads B from the temp, and releases
// it — the fallback spill shared by shapes 2 and 4 when no cheaper source
// for B is available.
func (c *Compiler) spillThenLoadLeft(dst reg, left ast.Expression, op ast.Op, loc ast.Range) error {
	temp, err := c.AllocTemp()
	if err != nil {
		return err
	}
	if err := c.Emit(isa.SVA, temp); err != nil {
		return err
	}
	if err := c.lowerInto(regA, left); err != nil {
		return err
	}
	if err := c.Emit(isa.LB, temp); err != nil {
		return err
	}
	c.ReleaseTemp(temp)
	return c.finishBinary(dst, op, loc)
}

// finishBinary emits op's ALU instruction and, if the caller wanted the
// result in B rather than A, moves it there.
func (c *Compiler) finishBinary(dst reg, op ast.Op, loc ast.Range) error {
	if err := c.emitOp(op, loc); err != nil {
		return err
	}
	if dst != regA {
		return c.moveAtoB()
	}
	return nil
}

// lowerModuleCall dispatches a `module.method(args...)` call (spec.md
// §4.E): Function must be a Member selecting a method off a `use`d
// module identifier.
func (c *Compiler) lowerModuleCall(call ast.Call) error {
	member, ok := call.Function.(ast.Member)
	if !ok {
		return errs.New(errs.UnknownMethod, call.Span(), "call target")
	}
	ident, ok := member.Object.(ast.Identifier)
	if !ok {
		return errs.New(errs.UnknownModule, call.Span(), "")
	}
	if !c.ModuleInUse(ident.Name) {
		return errs.New(errs.UnknownModule, call.Span(), ident.Name)
	}
	return module.Dispatch(c, ident.Name, member.Property, call.Args, call.Span())
}

// emitOp emits the single instruction a BinaryExpr's operator lowers to.
// BinaryExpr never carries a comparison operator (those only ever appear
// on an EqExpr, handled by lowerGuard), so the default case is unreachable
// given a well-formed AST.
func (c *Compiler) emitOp(op ast.Op, loc ast.Range) error {
	switch op {
	case ast.Plus:
		return c.Emit(isa.ADD)
	case ast.Minus:
		return c.Emit(isa.SUB)
	case ast.Mul:
		return c.Emit(isa.MUL)
	case ast.And:
		return c.Emit(isa.AND)
	case ast.Or:
		return c.Emit(isa.OR)
	case ast.Xor:
		return c.Emit(isa.XOR)
	default:
		return errs.New(errs.Internal, loc, "unhandled binary operator")
	}
}

// moveAtoB copies the just-computed result out of A into B, for the rare
// case a caller explicitly asked for the result in B (module argument
// evaluation order, spec.md §4.E).
func (c *Compiler) moveAtoB() error {
	temp, err := c.AllocTemp()
	if err != nil {
		return err
	}
	defer c.ReleaseTemp(temp)
	if err := c.Emit(isa.SVA, temp); err != nil {
		return err
	}
	return c.Emit(isa.LB, temp)
}

func regOf(state *machine.State, dst reg) machine.Register {
	if dst == regA {
		return state.A
	}
	return state.B
}

func loadMnemonic(dst reg) isa.Mnemonic {
	if dst == regA {
		return isa.LA
	}
	return isa.LB
}

func lowMnemonic(dst reg) isa.Mnemonic {
	if dst == regA {
		return isa.LAL
	}
	return isa.LBL
}

func highMnemonic(dst reg) isa.Mnemonic {
	if dst == regA {
		return isa.LAH
	}
	return isa.LBH
}
