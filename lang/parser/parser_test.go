package parser

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/nixsyn/lang/lexer"
	"github.com/ardnew/nixsyn/lang/tree"
)

// shape renders the named structure of n. Anonymous leaves are shown only
// when they carry a field, as their quoted text.
func shape(n *tree.Node, src string) string {
	var b strings.Builder

	writeShape(&b, n, src)

	return b.String()
}

func writeShape(b *strings.Builder, n *tree.Node, src string) {
	b.WriteString("(" + n.Kind().String())

	for f, c := range n.All() {
		if !c.Kind().Named() && f == tree.FieldNone {
			continue
		}

		b.WriteByte(' ')

		if f != tree.FieldNone {
			b.WriteString(f.String() + ": ")
		}

		if !c.Kind().Named() {
			b.WriteString(strconv.Quote(c.Text(src)))

			continue
		}

		writeShape(b, c, src)
	}

	b.WriteByte(')')
}

func mustParse(t *testing.T, src string, opts ...Option) *tree.Tree {
	t.Helper()

	tr, err := Parse(src, opts...)
	require.NoError(t, err)
	require.NotNil(t, tr.Expression())

	return tr
}

func TestParseShapes(t *testing.T) {
	const (
		id  = "(identifier)"
		one = "(attrpath attr: (identifier))"
	)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "multiplication binds tighter than addition",
			input: "1 + 2 * 3",
			want:  `(binary_expression left: (integer) operator: "+" right: (binary_expression left: (integer) operator: "*" right: (integer)))`,
		},
		{
			name:  "implication is right associative",
			input: "a -> b -> c",
			want:  `(binary_expression left: ` + id + ` operator: "->" right: (binary_expression left: ` + id + ` operator: "->" right: ` + id + `))`,
		},
		{
			name:  "update is right associative",
			input: "a // b // c",
			want:  `(binary_expression left: ` + id + ` operator: "//" right: (binary_expression left: ` + id + ` operator: "//" right: ` + id + `))`,
		},
		{
			name:  "concatenation is right associative",
			input: "a ++ b ++ c",
			want:  `(binary_expression left: ` + id + ` operator: "++" right: (binary_expression left: ` + id + ` operator: "++" right: ` + id + `))`,
		},
		{
			name:  "subtraction is left associative",
			input: "a - b - c",
			want:  `(binary_expression left: (binary_expression left: ` + id + ` operator: "-" right: ` + id + `) operator: "-" right: ` + id + `)`,
		},
		{
			name:  "application binds tighter than addition",
			input: "f g + h",
			want:  `(binary_expression left: (application function: ` + id + ` argument: ` + id + `) operator: "+" right: ` + id + `)`,
		},
		{
			name:  "application is left associative",
			input: "f g h",
			want:  `(application function: (application function: ` + id + ` argument: ` + id + `) argument: ` + id + `)`,
		},
		{
			name:  "list elements are terms",
			input: "[ 1 2 3 ]",
			want:  `(list elements: (integer) elements: (integer) elements: (integer))`,
		},
		{
			name:  "list does not apply",
			input: "[ f x ]",
			want:  `(list elements: ` + id + ` elements: ` + id + `)`,
		},
		{
			name:  "not binds looser than addition",
			input: "!a + b",
			want:  `(unary_expression operator: "!" argument: (binary_expression left: ` + id + ` operator: "+" right: ` + id + `))`,
		},
		{
			name:  "not binds tighter than and",
			input: "!a && b",
			want:  `(binary_expression left: (unary_expression operator: "!" argument: ` + id + `) operator: "&&" right: ` + id + `)`,
		},
		{
			name:  "negation binds tightest",
			input: "-x.a",
			want:  `(select expression: (unary_expression operator: "-" argument: ` + id + `) attrpath: ` + one + `)`,
		},
		{
			name:  "comparison below update",
			input: "a // b == c",
			want:  `(binary_expression left: (binary_expression left: ` + id + ` operator: "//" right: ` + id + `) operator: "==" right: ` + id + `)`,
		},
		{
			name:  "identifier parameter",
			input: "x: x + 1",
			want:  `(function_expression parameter: ` + id + ` body: (binary_expression left: ` + id + ` operator: "+" right: (integer)))`,
		},
		{
			name:  "formals with default, ellipsis and trailing name",
			input: "{ a, b ? 1, ... } @ args: a",
			want:  `(function_expression formals: (formals formal: (formal name: ` + id + `) formal: (formal name: ` + id + ` default: (integer)) ellipses: "...") universal: ` + id + ` body: ` + id + `)`,
		},
		{
			name:  "leading name before formals",
			input: "args @ { a }: a",
			want:  `(function_expression universal: ` + id + ` formals: (formals formal: (formal name: ` + id + `)) body: ` + id + `)`,
		},
		{
			name:  "empty formals",
			input: "{ }: 1",
			want:  `(function_expression formals: (formals) body: (integer))`,
		},
		{
			name:  "curried function",
			input: "a: b: a",
			want:  `(function_expression parameter: ` + id + ` body: (function_expression parameter: ` + id + ` body: ` + id + `))`,
		},
		{
			name:  "attribute set",
			input: "{ a = 1; b.c = 2; }",
			want:  `(attrset bindings: (binding attrpath: ` + one + ` expression: (integer)) bindings: (binding attrpath: (attrpath attr: ` + id + ` attr: ` + id + `) expression: (integer)))`,
		},
		{
			name:  "recursive attribute set",
			input: "rec { a = 1; b = a; }",
			want:  `(rec_attrset bindings: (binding attrpath: ` + one + ` expression: (integer)) bindings: (binding attrpath: ` + one + ` expression: ` + id + `))`,
		},
		{
			name:  "dynamic attribute names",
			input: `{ ${x} = 1; "y" = 2; }`,
			want:  `(attrset bindings: (binding attrpath: (attrpath attr: (string_interpolation expression: ` + id + `)) expression: (integer)) bindings: (binding attrpath: (attrpath attr: (string)) expression: (integer)))`,
		},
		{
			name:  "inherit",
			input: `{ inherit (x) a "b"; inherit c; }`,
			want:  `(attrset bindings: (inherit from: ` + id + ` attributes: ` + id + ` attributes: (string)) bindings: (inherit attributes: ` + id + `))`,
		},
		{
			name:  "or as an identifier",
			input: "let or = 1; in or + 1",
			want:  `(let_expression bindings: (binding attrpath: ` + one + ` expression: (integer)) body: (binary_expression left: ` + id + ` operator: "+" right: (integer)))`,
		},
		{
			name:  "or as a selection default",
			input: "attrs.x or 0",
			want:  `(select expression: ` + id + ` attrpath: ` + one + ` default: (integer))`,
		},
		{
			name:  "has attribute",
			input: "a ? b.c",
			want:  `(has_attr expression: ` + id + ` attrpath: (attrpath attr: ` + id + ` attr: ` + id + `))`,
		},
		{
			name:  "if",
			input: "if a then b else c",
			want:  `(if_expression condition: ` + id + ` consequence: ` + id + ` alternative: ` + id + `)`,
		},
		{
			name:  "with and assert",
			input: "with a; assert b; c",
			want:  `(with_expression environment: ` + id + ` body: (assert_expression condition: ` + id + ` body: ` + id + `))`,
		},
		{
			name:  "string interpolation",
			input: `"a${b}c"`,
			want:  `(string (string_interpolation expression: ` + id + `))`,
		},
		{
			name:  "indented string interpolation",
			input: "''\n  a ${b}\n''",
			want:  `(indented_string (string_interpolation expression: ` + id + `))`,
		},
		{
			name:  "attribute set inside interpolation",
			input: `"${ { a = 1; }.a }"`,
			want:  `(string (string_interpolation expression: (select expression: (attrset bindings: (binding attrpath: ` + one + ` expression: (integer))) attrpath: ` + one + `)))`,
		},
		{
			name:  "literals",
			input: `[ ./a/b ~/c <nixpkgs> https://nixos.org 1.5 true null ]`,
			want:  `(list elements: (path) elements: (path) elements: (path) elements: (uri) elements: (float) elements: (boolean) elements: (null))`,
		},
		{
			name:  "parentheses",
			input: "(a)",
			want:  `(parenthesized_expression expression: ` + id + `)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustParse(t, tt.input)
			assert.Equal(t, tt.want, shape(tr.Expression(), tt.input))
			assert.Equal(t, tt.input, tr.Reconstruct())
		})
	}
}

func TestSourceFile(t *testing.T) {
	src := "  # comment\n  1  \n"
	tr := mustParse(t, src)

	assert.Equal(t, tree.KindSourceFile, tr.Root.Kind())
	assert.Equal(t, 0, tr.Root.Span().Start)
	assert.Equal(t, len(src), tr.Root.Span().End)
	assert.Equal(t, "1", tr.Text(tr.Expression()))

	empty, err := Parse("")
	require.NoError(t, err)
	assert.Nil(t, empty.Expression())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unclosed parenthesis", "( a", ErrUnclosed},
		{"unclosed list", "[ 1 2", ErrUnclosed},
		{"missing then", "if a b else c", ErrExpected},
		{"trailing token", "1 )", ErrUnexpectedToken},
		{"ellipsis not last", "{ ..., a }: a", ErrMalformedFormals},
		{"duplicate ellipsis", "{ a, ..., ... }: a", ErrMalformedFormals},
		{"inherit from without names", "{ inherit (x); }", ErrInheritFrom},
		{"operator in list", "[ 1 + 2 ]", ErrListOperator},
		{"if as operand", "1 + if a then b else c", ErrParenthesize},
		{"missing expression", "a +", ErrExpected},
		{"invalid escape", `"\q"`, lexer.ErrInvalidEscape},
		{"invalid number", "1abc", lexer.ErrInvalidNumber},
		{"unterminated comment", "1 /* a", lexer.ErrUnterminatedComment},
		{"unterminated interpolation", `"${ a`, lexer.ErrUnterminatedInterpolation},
		{"unexpected character", "a $ b", lexer.ErrUnexpectedChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse(tt.input)
			require.Error(t, err)
			require.NotNil(t, tr)

			assert.ErrorIs(t, err, tt.want)
			assert.True(t, tr.HasError())
			assert.NotEmpty(t, tr.Errors())
			assert.Equal(t, tt.input, tr.Reconstruct())

			var list ErrorList
			require.ErrorAs(t, err, &list)
			assert.NotEmpty(t, list)
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	src := `"abc`

	tr, err := Parse(src)
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].Lexical)
	assert.Equal(t, 0, list[0].Span.Start)
	assert.Equal(t, len(src), list[0].Span.End)
	assert.ErrorIs(t, err, lexer.ErrUnterminatedString)

	expr := tr.Expression()
	require.NotNil(t, expr)
	assert.True(t, expr.IsError())
	assert.Equal(t, 0, expr.Span().Start)
	assert.Equal(t, len(src), expr.Span().End)
	assert.Equal(t, src, tr.Reconstruct())
}

func TestResynchronization(t *testing.T) {
	src := "{ a = 1; b 2; c = 3; }"

	tr, err := Parse(src)
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 1)

	bindings := tr.Expression().Children(tree.FieldBindings)
	require.Len(t, bindings, 3)

	assert.Equal(t, tree.KindBinding, bindings[0].Kind())
	assert.False(t, bindings[0].HasError())

	assert.True(t, bindings[1].IsError())
	assert.Equal(t, "b 2;", tr.Text(bindings[1]))

	assert.Equal(t, tree.KindBinding, bindings[2].Kind())
	assert.False(t, bindings[2].HasError())
	assert.Equal(t, "c = 3;", tr.Text(bindings[2]))

	assert.Equal(t, src, tr.Reconstruct())
}

func TestResynchronizationInLet(t *testing.T) {
	src := "let a = 1; b = ; = 2; c = 3; in c"

	tr, err := Parse(src)
	require.Error(t, err)

	let := tr.Expression()
	require.Equal(t, tree.KindLetExpression, let.Kind())

	bindings := let.Children(tree.FieldBindings)
	require.Len(t, bindings, 4)
	assert.False(t, bindings[0].HasError())
	assert.True(t, bindings[1].HasError())
	assert.True(t, bindings[2].IsError())
	assert.False(t, bindings[3].HasError())

	require.NotNil(t, let.Child(tree.FieldBody))
	assert.Equal(t, "c", tr.Text(let.Child(tree.FieldBody)))
	assert.Equal(t, src, tr.Reconstruct())
}

func TestStrictMode(t *testing.T) {
	src := "{ a = 1; b 2; c = 3; }"

	tr, err := Parse(src, WithMode(ModeStrict))
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	assert.Len(t, list, 1)

	bindings := 0

	for n := range tr.Root.Descendants() {
		if n.Kind() == tree.KindBinding {
			bindings++
		}
	}

	assert.Equal(t, 1, bindings)

	last := tr.Root.At(tr.Root.Len() - 1).Node
	assert.True(t, last.IsError())
	assert.Equal(t, len(src), last.Span().End)
	assert.Equal(t, src, tr.Reconstruct())
}

func TestStrictModeLexical(t *testing.T) {
	src := `[ "a\q" "b" c ]`

	tr, err := Parse(src, WithMode(ModeStrict))
	require.Error(t, err)

	var list ErrorList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].Lexical)
	assert.Equal(t, src, tr.Reconstruct())
}

func TestMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50)

	for _, mode := range []Mode{ModeTolerant, ModeStrict} {
		t.Run(mode.String(), func(t *testing.T) {
			tr, err := Parse(deep, WithMaxDepth(10), WithMode(mode))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDepthExceeded)
			assert.Equal(t, deep, tr.Reconstruct())
		})
	}

	tr, err := Parse(deep)
	require.NoError(t, err)
	assert.Equal(t, deep, tr.Reconstruct())
}

func TestMaxDepth_CountsNesting(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"1", 1},
		{"(1)", 2},
		{"((1))", 3},
		{"[ [ 1 ] ]", 3},
		{"a + b + c + d + e", 2},
		{"a ++ b ++ c", 3},
		{"- - 1", 3},
		{"!!x", 3},
		{"{ a = { b = 1; }; }", 3},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			var stats Stats

			_, err := Parse(tt.src, WithStats(&stats))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.MaxDepth)
		})
	}
}

func TestMaxDepth_DefaultLimit(t *testing.T) {
	parens := func(n int) string {
		return strings.Repeat("(", n) + "1" + strings.Repeat(")", n)
	}

	var stats Stats

	_, err := Parse(parens(DefaultMaxDepth-1), WithStats(&stats))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxDepth, stats.MaxDepth)

	src := parens(DefaultMaxDepth)
	tr, err := Parse(src)
	require.ErrorIs(t, err, ErrDepthExceeded)
	assert.Equal(t, src, tr.Reconstruct())

	chain := "a" + strings.Repeat(" + a", 5*DefaultMaxDepth)
	_, err = Parse(chain)
	require.NoError(t, err)
}

func TestDeterministic(t *testing.T) {
	src := `let f = { a, b ? [ 1 2 ], ... } @ args: a // { inherit b; c = "${a}"; }; in f { a = 1; }`

	first := mustParse(t, src)
	second := mustParse(t, src)

	assert.Equal(t, shape(first.Root, src), shape(second.Root, src))
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"  ",
		"# only a comment",
		"{ a = 1; /* b */ c = [ 1 2 ]; }",
		"let\n  x = ''\n    ${y}\n  '';\nin x",
		`{ a = "x${ { b = "y${c}"; }.b }z"; }`,
		"{ a = 1 b = 2; }",
		"{ a = ",
		"[ 1 + ]",
		"f (x: ",
		`"${"${"${`,
		"''abc",
		"{ inherit (a; }",
		") ] } ; in then",
	}

	for _, src := range inputs {
		for _, mode := range []Mode{ModeTolerant, ModeStrict} {
			t.Run(mode.String()+"/"+strconv.Quote(src), func(t *testing.T) {
				tr, _ := Parse(src, WithMode(mode))
				require.NotNil(t, tr)
				assert.Equal(t, src, tr.Reconstruct())
			})
		}
	}
}

func TestStats(t *testing.T) {
	var stats Stats

	_, err := Parse("{ a = 1; }", WithStats(&stats))
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Tokens)
	assert.Equal(t, 0, stats.Errors)
	assert.Positive(t, stats.Nodes)
	assert.Positive(t, stats.MaxDepth)
}

func TestErrorListMessage(t *testing.T) {
	_, err := Parse("[ 1 + 2 ] )")
	require.Error(t, err)

	var list ErrorList
	require.True(t, errors.As(err, &list))
	require.Len(t, list, 2)
	assert.Contains(t, err.Error(), "(and 1 more errors)")
}

func FuzzRoundTrip(f *testing.F) {
	for _, seed := range []string{
		"x: x + 1",
		`{ a = "b${c}"; }`,
		"''a'''b''",
		"[ 1 2 ] ++ [ 3 ]",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		tr, _ := Parse(src)
		if got := tr.Reconstruct(); got != src {
			t.Fatalf("round trip mismatch: %q != %q", got, src)
		}
	})
}
