// Package parser is the front end: a goparsec combinator grammar that
// turns source text into the pkg/ast node shapes the compiler consumes.
// Grammar shape and parser-struct idiom grounded on the teacher's
// pkg/jack/parsing.go; the AST-to-struct conversion (build.go) is written
// fresh, since the teacher's own conversion is left unimplemented.
package parser

import (
	pc "github.com/prataprc/goparsec"
)

var root = pc.NewAST("program", 0)

// pExpr and pStatement are mutually and self recursive (an assignment's
// value is itself an expression, a parenthesized expression wraps one, a
// conditional's body is a list of statements including nested
// conditionals) so they cannot be package vars initialized from the
// combinators that reference them back — Go would reject the cycle. Both
// are declared as plain functions that dereference a var filled in by
// init, once every combinator in the grammar below has been built.
var exprImpl, stmtImpl pc.Parser

func pExpr(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return exprImpl(s) }
func pStatement(s pc.Scanner) (pc.ParsecNode, pc.Scanner) { return stmtImpl(s) }

func init() {
	exprImpl = root.OrdChoice("expr", nil, pAssignment, pComparison)
	stmtImpl = root.OrdChoice("statement", nil,
		pInlineDecl, pUseDecl, pVarDecl, pConditional, pForever, pWhile, pPass, pExprStmt,
	)
}

var (
	pProgram = root.Kleene("program", nil,
		root.OrdChoice("statement_or_comment", nil, pStatement, pComment),
	)

	pComment = root.OrdChoice("comment", nil,
		root.And("sl_comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT")),
	)
)

var (
	pInlineDecl = root.And("inline_decl", nil,
		pc.Atom("inline", "INLINE"), pIdent, pc.Atom("=", "ASSIGN"), pExpr,
	)

	pUseDecl = root.And("use_decl", nil, pc.Atom("use", "USE"), pIdent)

	pVarDecl = root.And("var_decl", nil, pc.Atom("var", "VAR"), pIdent)

	pPass = root.And("pass_stmt", nil, pc.Atom("pass", "PASS"))

	pForever = root.And("forever_stmt", nil,
		pc.Atom("forever", "FOREVER"), pBody, pc.Atom("end", "END"),
	)

	pWhile = root.And("while_stmt", nil,
		pc.Atom("while", "WHILE"), pExpr, pBody, pc.Atom("end", "END"),
	)

	pElif = root.And("elif_clause", nil, pc.Atom("elif", "ELIF"), pExpr, pBody)

	pElse = root.And("else_clause", nil, pc.Atom("else", "ELSE"), pBody)

	pConditional = root.And("if_stmt", nil,
		pc.Atom("if", "IF"), pExpr, pBody,
		root.Kleene("elif_clauses", nil, pElif),
		pc.Maybe(nil, pElse),
		pc.Atom("end", "END"),
	)

	pBody = root.Kleene("body", nil,
		root.OrdChoice("body_statement_or_comment", nil, pStatement, pComment),
	)

	pExprStmt = root.And("expr_stmt", nil, pExpr)
)

// Expression grammar, precedence low to high:
// comparison > additive > multiplicative > postfix (member/call) > primary.
// Assignment binds loosest of all, since `x = y == z` and `x = a.b(c)` must
// both parse with the whole right-hand side as the assigned value.
var (
	pAssignment = root.And("assignment", nil, pIdent, pc.Atom("=", "ASSIGN"), pExpr)

	pComparison = root.And("comparison", nil,
		pAdditive, pc.Maybe(nil, root.And("cmp_op", nil, pCmpOp, pAdditive)),
	)

	pCmpOp = root.OrdChoice("cmp_op_tok", nil,
		pc.Atom("==", "EQ"), pc.Atom("!=", "NEQ"),
		pc.Atom(">=", "GTE"), pc.Atom("<=", "LTE"),
		pc.Atom(">", "GT"), pc.Atom("<", "LT"),
	)

	pAdditive = root.And("additive", nil,
		pMultiplicative,
		root.Kleene("additive_tail", nil, root.And("additive_op", nil, pAddOp, pMultiplicative)),
	)

	pAddOp = root.OrdChoice("add_op_tok", nil, pc.Atom("+", "PLUS"), pc.Atom("-", "MINUS"))

	pMultiplicative = root.And("multiplicative", nil,
		pPostfix,
		root.Kleene("mul_tail", nil, root.And("mul_op", nil, pMulOp, pPostfix)),
	)

	pMulOp = root.OrdChoice("mul_op_tok", nil,
		pc.Atom("*", "MUL"), pc.Atom("&", "AND"), pc.Atom("|", "OR"), pc.Atom("^", "XOR"),
	)

	// Postfix handles one level of `.property` / `(args)` off a primary,
	// which is all the source language's module-call/constant shape needs
	// (`io.write(...)`, `colorscreen.red`) — it never nests further.
	pPostfix = root.And("postfix", nil,
		pPrimary,
		pc.Maybe(nil, root.And("member", nil,
			pc.Atom(".", "DOT"), pIdent,
			pc.Maybe(nil, root.And("call_args", nil,
				pc.Atom("(", "LPAREN"),
				root.Kleene("args", nil, pExpr, pc.Atom(",", "COMMA")),
				pc.Atom(")", "RPAREN"),
			)),
		)),
	)

	pPrimary = root.OrdChoice("primary", nil,
		pc.Atom("debug", "DEBUG"),
		pc.Int(),
		pIdent,
		root.And("paren_expr", nil, pc.Atom("(", "LPAREN"), pExpr, pc.Atom(")", "RPAREN")),
	)

	pIdent = pc.Token(`[A-Za-z_][0-9a-zA-Z_]*`, "IDENT")
)
