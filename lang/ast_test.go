package lang

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/nixsyn/lang/parser"
	"github.com/ardnew/nixsyn/lang/tree"
)

func TestParseString_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  tree.Kind
	}{
		{"integer", "42", tree.KindInteger},
		{"attrset", "{ a = 1; }", tree.KindAttrset},
		{"function", "{ pkgs, ... }: pkgs.hello", tree.KindFunctionExpression},
		{"let", "let x = 1; in x", tree.KindLetExpression},
		{"indented string", "''\n  hi\n''", tree.KindIndentedString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ast, err := ParseString(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ParseString failed: %v", err)
			}

			if got := ast.Expression().Kind(); got != tt.kind {
				t.Errorf("expected %v, got %v", tt.kind, got)
			}

			if ast.Err() != nil {
				t.Errorf("expected no error, got %v", ast.Err())
			}

			if got := ast.Reconstruct(); got != tt.input {
				t.Errorf("round trip mismatch:\nwant: %q\ngot:  %q", tt.input, got)
			}
		})
	}
}

func TestParseString_EmptyInput(t *testing.T) {
	ast, err := ParseString(context.Background(), "  # only a comment\n")
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if ast.Root.Kind() != tree.KindSourceFile {
		t.Errorf("expected source_file root, got %v", ast.Root.Kind())
	}

	if ast.Expression() != nil {
		t.Errorf("expected no expression, got %v", ast.Expression().Kind())
	}
}

func TestParseString_InvalidInput(t *testing.T) {
	src := "{ a = 1; b 2; c = 3; }"

	ast, err := ParseString(context.Background(), src)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}

	if !errors.Is(err, ErrParse) {
		t.Error("expected errors.Is(err, ErrParse)")
	}

	if !errors.Is(err, parser.ErrExpected) {
		t.Error("expected errors.Is(err, parser.ErrExpected)")
	}

	if len(ast.Diagnostics()) != 1 {
		t.Errorf("expected 1 diagnostic, got %d", len(ast.Diagnostics()))
	}

	want := "parse error at line 1, column 12: expected '=', found '2'\n" +
		"  1 | { a = 1; b 2; c = 3; }\n" +
		strings.Repeat(" ", 17) + "^"

	if got := err.Error(); got != want {
		t.Errorf("error mismatch:\nwant: %q\ngot:  %q", want, got)
	}

	if got := ast.Reconstruct(); got != src {
		t.Errorf("round trip mismatch:\nwant: %q\ngot:  %q", src, got)
	}
}

func TestParseString_MultipleErrors(t *testing.T) {
	ast, err := ParseString(context.Background(), "{ a 1; b 2; }", WithName("multi.nix"))
	if err == nil {
		t.Fatal("expected parse error")
	}

	msg := err.Error()

	if !strings.HasPrefix(msg, "parse error at multi.nix, line 1, column 5:") {
		t.Errorf("unexpected header: %q", msg)
	}

	if !strings.HasSuffix(msg, "(and 1 more errors)") {
		t.Errorf("expected error count suffix: %q", msg)
	}

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}

	snips := pe.Snippets()
	if len(snips) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(snips))
	}

	if snips[1].Line != 1 || snips[1].Column != 10 {
		t.Errorf("expected second snippet at 1:10, got %d:%d", snips[1].Line, snips[1].Column)
	}

	if len(ast.Errors()) != 2 {
		t.Errorf("expected 2 error nodes, got %d", len(ast.Errors()))
	}
}

func TestParseString_Strict(t *testing.T) {
	src := "{ a 1; b 2; }"

	ast, err := ParseString(context.Background(), src, WithStrict(true))
	if err == nil {
		t.Fatal("expected parse error")
	}

	if n := len(ast.Diagnostics()); n != 1 {
		t.Errorf("expected 1 diagnostic in strict mode, got %d", n)
	}

	if got := ast.Reconstruct(); got != src {
		t.Errorf("round trip mismatch:\nwant: %q\ngot:  %q", src, got)
	}
}

func TestParseString_MaxDepth(t *testing.T) {
	src := strings.Repeat("[", 50) + strings.Repeat("]", 50)

	_, err := ParseString(context.Background(), src, WithMaxDepth(10))
	if !errors.Is(err, parser.ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}

	if _, err := ParseString(context.Background(), src); err != nil {
		t.Errorf("default depth should allow 50 levels: %v", err)
	}
}

func TestParseString_Stats(t *testing.T) {
	ast, err := ParseString(context.Background(), "f 1", WithCache(false))
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if ast.Stats.Tokens != 2 {
		t.Errorf("expected 2 tokens, got %d", ast.Stats.Tokens)
	}

	if ast.Stats.Nodes == 0 {
		t.Error("expected node count")
	}
}

func TestParseReader(t *testing.T) {
	ast, err := ParseReader(context.Background(), strings.NewReader("{ x = 1; }"))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}

	if ast.Expression().Kind() != tree.KindAttrset {
		t.Errorf("expected attrset, got %v", ast.Expression().Kind())
	}
}

func TestParseReader_ParseError(t *testing.T) {
	ast, err := ParseReader(context.Background(), strings.NewReader("{ x = ; }"))
	if err == nil {
		t.Fatal("expected error for invalid input")
	}

	if ast == nil {
		t.Fatal("expected AST even on error")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.nix")

	if err := os.WriteFile(path, []byte("{ a = ; }"), 0o600); err != nil {
		t.Fatal(err)
	}

	ast, err := ParseFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected parse error")
	}

	if ast.Name != path {
		t.Errorf("expected name %q, got %q", path, ast.Name)
	}

	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected error to name the file: %v", err)
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "nope.nix"))
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestError_With(t *testing.T) {
	err := ErrQuery.Wrap(errors.New("boom"))

	if got := err.Error(); got != "invalid query: boom" {
		t.Errorf("unexpected message %q", got)
	}

	if !errors.Is(err, ErrQuery) {
		t.Error("expected errors.Is(err, ErrQuery)")
	}

	if errors.Is(err, ErrFormat) {
		t.Error("did not expect errors.Is(err, ErrFormat)")
	}
}
