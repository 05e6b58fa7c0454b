package parser

import (
	"fmt"
	"strconv"

	pc "github.com/prataprc/goparsec"

	"redstonec.dev/compiler/pkg/ast"
)

// zeroRange stands in for every node's source Range. The grammar's
// pc.Queryable tree (unlike a position-tracking scanner) only exposes
// GetName/GetValue/GetChildren, so this build pass cannot recover line/col
// information; diagnostics raised during lowering instead report against
// the zero Range. Recovering real positions would mean carrying a custom
// scanner wrapper through every combinator, which nothing in spec.md §8's
// testable properties requires.
var zeroRange ast.Range

// BuildProgram walks a parsed "program" AST root into the statement list
// the compiler's LowerProgram consumes.
func BuildProgram(root pc.Queryable) ([]ast.Statement, error) {
	if root.GetName() != "program" {
		return nil, fmt.Errorf("parser: expected root node %q, got %q", "program", root.GetName())
	}
	return buildStatementList(root.GetChildren(), "statement_or_comment")
}

// buildStatementList converts a list of statement-or-comment wrapper nodes
// (the shape both the top-level program and every block body share) into
// ast.Statement values, dropping comments.
func buildStatementList(children []pc.Queryable, wrapperName string) ([]ast.Statement, error) {
	stmts := make([]ast.Statement, 0, len(children))
	for _, c := range children {
		n := unwrap(c, wrapperName)
		if n.GetName() == "comment" {
			continue
		}
		n = unwrap(n, "statement")
		st, err := buildStatement(n)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

func buildBody(n pc.Queryable) ([]ast.Statement, error) {
	if n.GetName() != "body" {
		return nil, fmt.Errorf("parser: expected node %q, got %q", "body", n.GetName())
	}
	return buildStatementList(n.GetChildren(), "body_statement_or_comment")
}

func buildStatement(n pc.Queryable) (ast.Statement, error) {
	switch n.GetName() {
	case "inline_decl":
		c := significant(n, "INLINE", "ASSIGN")
		value, err := buildExpression(c[1])
		if err != nil {
			return nil, err
		}
		return ast.NewInlineDeclaration(zeroRange, c[0].GetValue(), value), nil

	case "use_decl":
		c := significant(n, "USE")
		return ast.NewUse(zeroRange, c[0].GetValue()), nil

	case "var_decl":
		c := significant(n, "VAR")
		return ast.NewVarDeclaration(zeroRange, c[0].GetValue()), nil

	case "pass_stmt":
		return ast.NewPass(zeroRange), nil

	case "forever_stmt":
		c := significant(n, "FOREVER", "END")
		body, err := buildBody(c[0])
		if err != nil {
			return nil, err
		}
		return ast.NewEndlessLoop(zeroRange, body), nil

	case "while_stmt":
		c := significant(n, "WHILE", "END")
		cond, err := buildExpression(c[0])
		if err != nil {
			return nil, err
		}
		body, err := buildBody(c[1])
		if err != nil {
			return nil, err
		}
		return ast.NewWhileLoop(zeroRange, cond, body), nil

	case "if_stmt":
		return buildConditional(n)

	case "expr_stmt":
		c := n.GetChildren()
		expr, err := buildExpression(c[0])
		if err != nil {
			return nil, err
		}
		return ast.NewExprStatement(zeroRange, expr), nil

	default:
		return nil, fmt.Errorf("parser: unrecognized statement node %q", n.GetName())
	}
}

func buildConditional(n pc.Queryable) (ast.Statement, error) {
	c := significant(n, "IF", "END")
	cond, err := buildExpression(c[0])
	if err != nil {
		return nil, err
	}
	body, err := buildBody(c[1])
	if err != nil {
		return nil, err
	}

	elifs := c[2] // "elif_clauses" Kleene node
	var paths []ast.ElifPath
	for _, clause := range elifs.GetChildren() {
		cc := significant(clause, "ELIF")
		elifCond, err := buildExpression(cc[0])
		if err != nil {
			return nil, err
		}
		elifBody, err := buildBody(cc[1])
		if err != nil {
			return nil, err
		}
		paths = append(paths, ast.ElifPath{Condition: elifCond, Body: elifBody})
	}

	var alt []ast.Statement
	if len(c) > 3 {
		if elseClause, ok := maybeChild(c[3]); ok {
			ec := significant(elseClause, "ELSE")
			alt, err = buildBody(ec[0])
			if err != nil {
				return nil, err
			}
		}
	}

	return ast.NewConditional(zeroRange, cond, body, paths, alt), nil
}

func buildExpression(n pc.Queryable) (ast.Expression, error) {
	n = unwrap(n, "expr")
	switch n.GetName() {
	case "assignment":
		c := significant(n, "ASSIGN")
		value, err := buildExpression(c[1])
		if err != nil {
			return nil, err
		}
		return ast.NewAssignment(zeroRange, c[0].GetValue(), value), nil

	case "comparison":
		return buildComparison(n)

	default:
		return nil, fmt.Errorf("parser: unexpected expression node %q", n.GetName())
	}
}

func buildComparison(n pc.Queryable) (ast.Expression, error) {
	c := n.GetChildren()
	left, err := buildAdditive(c[0])
	if err != nil {
		return nil, err
	}
	if len(c) < 2 {
		return left, nil
	}
	tail, ok := maybeChild(c[1])
	if !ok {
		return left, nil
	}
	cc := tail.GetChildren()
	op := cmpOp(unwrap(cc[0], "cmp_op_tok"))
	right, err := buildAdditive(cc[1])
	if err != nil {
		return nil, err
	}
	return ast.NewEqExpr(zeroRange, left, right, op), nil
}

func buildAdditive(n pc.Queryable) (ast.Expression, error) {
	c := n.GetChildren()
	left, err := buildMultiplicative(c[0])
	if err != nil {
		return nil, err
	}
	if len(c) < 2 {
		return left, nil
	}
	for _, tailItem := range c[1].GetChildren() {
		tc := tailItem.GetChildren()
		op := addOp(unwrap(tc[0], "add_op_tok"))
		right, err := buildMultiplicative(tc[1])
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(zeroRange, left, right, op)
	}
	return left, nil
}

func buildMultiplicative(n pc.Queryable) (ast.Expression, error) {
	c := n.GetChildren()
	left, err := buildPostfix(c[0])
	if err != nil {
		return nil, err
	}
	if len(c) < 2 {
		return left, nil
	}
	for _, tailItem := range c[1].GetChildren() {
		tc := tailItem.GetChildren()
		op := mulOp(unwrap(tc[0], "mul_op_tok"))
		right, err := buildPostfix(tc[1])
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(zeroRange, left, right, op)
	}
	return left, nil
}

func buildPostfix(n pc.Queryable) (ast.Expression, error) {
	c := n.GetChildren()
	primary, err := buildPrimary(c[0])
	if err != nil {
		return nil, err
	}
	if len(c) < 2 {
		return primary, nil
	}
	member, ok := maybeChild(c[1])
	if !ok {
		return primary, nil
	}
	mc := significant(member, "DOT")
	property := mc[0].GetValue()
	result := ast.Expression(ast.NewMember(zeroRange, primary, property))

	if len(mc) > 1 {
		if callArgs, ok := maybeChild(mc[1]); ok {
			cc := significant(callArgs, "LPAREN", "RPAREN")
			args, err := buildArgList(cc[0])
			if err != nil {
				return nil, err
			}
			result = ast.NewCall(zeroRange, result, args)
		}
	}
	return result, nil
}

func buildArgList(n pc.Queryable) ([]ast.Expression, error) {
	var args []ast.Expression
	for _, c := range n.GetChildren() {
		if c.GetName() == "COMMA" {
			continue
		}
		expr, err := buildExpression(c)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
	}
	return args, nil
}

func buildPrimary(n pc.Queryable) (ast.Expression, error) {
	n = unwrap(n, "primary")
	switch n.GetName() {
	case "DEBUG":
		return ast.NewDebug(zeroRange), nil
	case "INT":
		v, err := strconv.ParseInt(n.GetValue(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parser: invalid numeric literal %q: %w", n.GetValue(), err)
		}
		return ast.NewNumericLiteral(zeroRange, int16(uint16(v))), nil
	case "IDENT":
		return ast.NewIdentifier(zeroRange, n.GetValue()), nil
	case "paren_expr":
		c := significant(n, "LPAREN", "RPAREN")
		return buildExpression(c[0])
	default:
		return nil, fmt.Errorf("parser: unrecognized primary node %q", n.GetName())
	}
}

func cmpOp(n pc.Queryable) ast.Op {
	switch n.GetName() {
	case "EQ":
		return ast.Eq
	case "NEQ":
		return ast.Neq
	case "GTE":
		return ast.Gte
	case "LTE":
		return ast.Lte
	case "GT":
		return ast.Gt
	case "LT":
		return ast.Lt
	default:
		return ast.Eq
	}
}

func addOp(n pc.Queryable) ast.Op {
	if n.GetName() == "MINUS" {
		return ast.Minus
	}
	return ast.Plus
}

func mulOp(n pc.Queryable) ast.Op {
	switch n.GetName() {
	case "AND":
		return ast.And
	case "OR":
		return ast.Or
	case "XOR":
		return ast.Xor
	default:
		return ast.Mul
	}
}

// unwrap strips a single-child OrdChoice wrapper node named wrapperName,
// returning its one real child. Nodes not matching wrapperName pass
// through unchanged, since goparsec sometimes folds a trivial alternative
// directly rather than nesting it.
func unwrap(n pc.Queryable, wrapperName string) pc.Queryable {
	if n.GetName() != wrapperName {
		return n
	}
	c := n.GetChildren()
	if len(c) == 0 {
		return n
	}
	return c[0]
}

// significant returns n's children with any leaf named in skip (keywords
// and punctuation tokens carried only for grammar shape) removed, leaving
// just the children a builder needs to inspect.
func significant(n pc.Queryable, skip ...string) []pc.Queryable {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	var out []pc.Queryable
	for _, c := range n.GetChildren() {
		if skipSet[c.GetName()] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// maybeChild reports whether a pc.Maybe wrapper node actually matched,
// returning its single real child when it did.
func maybeChild(n pc.Queryable) (pc.Queryable, bool) {
	c := n.GetChildren()
	if len(c) == 0 {
		return nil, false
	}
	return c[0], true
}
