package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"redstonec.dev/compiler/pkg/compiler"
	"redstonec.dev/compiler/pkg/emit"
	"redstonec.dev/compiler/pkg/parser"
)

var Description = strings.ReplaceAll(`
The redstonec compiler takes source written in the redstone-style control
language and lowers it into a flat instruction stream for the target 16-bit
accumulator machine, either as raw binary words or as a textual mnemonic
dump.
`, "\n", " ")

var Redstonec = cli.New(Description).
	WithArg(cli.NewArg("input", "The source (.rs) file to be compiled")).
	WithArg(cli.NewArg("output", "The compiled program output")).
	WithOption(cli.NewOption("format", "Output format: 'bin' (default) or 'asm'").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	output, err := os.Create(args[1])
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	// Instantiate a parser for the source program.
	front := parser.NewParser(bytes.NewReader(input))
	// Parses the input file content and extracts the statement list.
	program, err := front.Parse()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	// Instantiate a compiler and run the lowering + linking passes.
	backend := compiler.New()
	linked, err := backend.LowerProgram(program)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	format := options["format"]
	if format == "" {
		format = "bin"
	}

	switch format {
	case "asm":
		for _, line := range emit.Text(linked) {
			fmt.Fprintf(output, "%s\n", line)
		}
	case "bin":
		for _, word := range emit.Binary(linked) {
			if err := writeWord(output, word); err != nil {
				fmt.Printf("ERROR: Unable to complete 'emit' pass: %s\n", err)
				return -1
			}
		}
	default:
		fmt.Printf("ERROR: Unknown output format %q, use 'bin' or 'asm'\n", format)
		return -1
	}

	return 0
}

func writeWord(output *os.File, word uint16) error {
	_, err := output.Write([]byte{byte(word >> 8), byte(word)})
	return err
}

func main() { os.Exit(Redstonec.Run(os.Args, os.Stdout)) }
