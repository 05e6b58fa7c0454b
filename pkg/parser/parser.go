package parser

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"

	"redstonec.dev/compiler/pkg/ast"
)

// Parser scans source text from an io.Reader and produces a Program (a
// statement list). Struct shape and feature-flag env vars grounded on
// the teacher's pkg/jack.Parser.
type Parser struct{ reader io.Reader }

// NewParser initializes a Parser reading from r.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the full input, parses it to an AST, and builds the
// ast.Statement list the compiler's LowerProgram consumes.
func (p *Parser) Parse() ([]ast.Statement, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	tree, ok := p.FromSource(content)
	if !ok {
		return nil, fmt.Errorf("failed to parse AST from input content")
	}

	return BuildProgram(tree)
}

// FromSource scans source into a traversable goparsec AST, without
// building it into ast.Statement values. Exposed for callers (and tests)
// that want to inspect the raw parse tree.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		root.SetDebug()
	}

	tree, _ := root.Parsewith(pProgram, pc.NewScanner(source))

	if os.Getenv("EXPORT_AST") != "" {
		if file, err := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER"))); err == nil {
			defer file.Close()
			file.Write([]byte(root.Dotstring("\"redstonec AST\"")))
		}
	}

	if os.Getenv("PRINT_AST") != "" {
		root.Prettyprint()
	}

	return tree, tree != nil
}
