package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestRedstonecHandler(t *testing.T) {
	dir := t.TempDir()

	input := filepath.Join(dir, "prog.rs")
	if err := os.WriteFile(input, []byte("x = 3\ny = x + 2\n"), 0o644); err != nil {
		t.Fatalf("writing fixture source: %s", err)
	}

	t.Run("binary output", func(t *testing.T) {
		output := filepath.Join(dir, "prog.bin")
		status := Handler([]string{input, output}, map[string]string{})
		if status != 0 {
			t.Fatalf("unexpected exit status: expected 0 got %d", status)
		}

		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("reading output file %s: %s", output, err)
		}
		if len(compiled)%2 != 0 {
			t.Fatalf("expected an even number of bytes (16-bit words), got %d", len(compiled))
		}
		if len(compiled) == 0 {
			t.Fatal("expected a non-empty compiled program")
		}
	})

	t.Run("asm output", func(t *testing.T) {
		output := filepath.Join(dir, "prog.asm")
		status := Handler([]string{input, output}, map[string]string{"format": "asm"})
		if status != 0 {
			t.Fatalf("unexpected exit status: expected 0 got %d", status)
		}

		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("reading output file %s: %s", output, err)
		}
		if len(compiled) == 0 {
			t.Fatal("expected non-empty disassembly output")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		output := filepath.Join(dir, "prog.bad")
		status := Handler([]string{input, output}, map[string]string{"format": "wat"})
		if status == 0 {
			t.Fatal("expected a non-zero exit status for an unknown format")
		}
	})

	t.Run("bad input path", func(t *testing.T) {
		status := Handler([]string{fmt.Sprintf("%s/missing.rs", dir), filepath.Join(dir, "out.bin")}, map[string]string{})
		if status == 0 {
			t.Fatal("expected a non-zero exit status for a missing input file")
		}
	})
}
