package parser_test

import (
	"strings"
	"testing"

	"redstonec.dev/compiler/pkg/ast"
	"redstonec.dev/compiler/pkg/parser"
)

func parse(t *testing.T, src string) []ast.Statement {
	t.Helper()
	p := parser.NewParser(strings.NewReader(src))
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %s", src, err)
	}
	return stmts
}

func TestParseAssignmentAndUse(t *testing.T) {
	stmts := parse(t, "x = 3\ny = x + 2\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}

	first, ok := stmts[0].(ast.ExprStatement)
	if !ok {
		t.Fatalf("expected ExprStatement, got %T", stmts[0])
	}
	assign, ok := first.Expr.(ast.Assignment)
	if !ok {
		t.Fatalf("expected Assignment, got %T", first.Expr)
	}
	if assign.Symbol != "x" {
		t.Errorf("expected symbol 'x', got %q", assign.Symbol)
	}
	lit, ok := assign.Value.(ast.NumericLiteral)
	if !ok || lit.Value != 3 {
		t.Errorf("expected numeric literal 3, got %#v", assign.Value)
	}
}

func TestParseInlineFolding(t *testing.T) {
	stmts := parse(t, "inline N = 4 + 1\nx = N * 3\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	decl, ok := stmts[0].(ast.InlineDeclaration)
	if !ok {
		t.Fatalf("expected InlineDeclaration, got %T", stmts[0])
	}
	if decl.Symbol != "N" {
		t.Errorf("expected symbol 'N', got %q", decl.Symbol)
	}
	bin, ok := decl.Value.(ast.BinaryExpr)
	if !ok || bin.Op != ast.Plus {
		t.Fatalf("expected BinaryExpr(+), got %#v", decl.Value)
	}
}

func TestParseWhileLoop(t *testing.T) {
	stmts := parse(t, "x = 0\nwhile x != 10\n  x = x + 1\nend\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	loop, ok := stmts[1].(ast.WhileLoop)
	if !ok {
		t.Fatalf("expected WhileLoop, got %T", stmts[1])
	}
	cond, ok := loop.Condition.(ast.EqExpr)
	if !ok || cond.Op != ast.Neq {
		t.Fatalf("expected EqExpr(!=), got %#v", loop.Condition)
	}
	if len(loop.Body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(loop.Body))
	}
}

func TestParseConditionalWithElifElse(t *testing.T) {
	stmts := parse(t, "if x == 1\n  pass\nelif x == 2\n  pass\nelse\n  pass\nend\n")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	cond, ok := stmts[0].(ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %T", stmts[0])
	}
	if len(cond.Paths) != 1 {
		t.Fatalf("expected 1 elif path, got %d", len(cond.Paths))
	}
	if cond.Alternate == nil || len(cond.Alternate) != 1 {
		t.Fatalf("expected a 1-statement else body, got %#v", cond.Alternate)
	}
}

func TestParseModuleUseAndCall(t *testing.T) {
	stmts := parse(t, "use io\nio.write(1, 0)\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	use, ok := stmts[0].(ast.Use)
	if !ok || use.Module != "io" {
		t.Fatalf("expected Use(io), got %#v", stmts[0])
	}
	callStmt, ok := stmts[1].(ast.ExprStatement)
	if !ok {
		t.Fatalf("expected ExprStatement, got %T", stmts[1])
	}
	call, ok := callStmt.Expr.(ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %T", callStmt.Expr)
	}
	member, ok := call.Function.(ast.Member)
	if !ok || member.Property != "write" {
		t.Fatalf("expected Member(write), got %#v", call.Function)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
}

func TestParseForeverLoop(t *testing.T) {
	stmts := parse(t, "forever\n  pass\nend\n")
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	if _, ok := stmts[0].(ast.EndlessLoop); !ok {
		t.Fatalf("expected EndlessLoop, got %T", stmts[0])
	}
}
