package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
)

// builtinParams lists the parameters of the expr-lang builtins that are
// useful on node fields.
var builtinParams = map[string][]string{
	"len":         {"v"},
	"abs":         {"number"},
	"int":         {"v"},
	"float":       {"v"},
	"string":      {"v"},
	"trim":        {"string", "chars"},
	"trimPrefix":  {"string", "prefix"},
	"trimSuffix":  {"string", "suffix"},
	"upper":       {"string"},
	"lower":       {"string"},
	"split":       {"string", "separator"},
	"replace":     {"string", "old", "new"},
	"repeat":      {"string", "n"},
	"indexOf":     {"string", "substring"},
	"lastIndexOf": {"string", "substring"},
	"hasPrefix":   {"string", "prefix"},
	"hasSuffix":   {"string", "suffix"},
	"max":         {"a", "...b"},
	"min":         {"a", "...b"},
}

// builtinNames returns the names of every expr-lang builtin function.
func builtinNames() []string {
	return slices.Sorted(maps.Keys(builtin.Index))
}

// isFunction reports whether name is an expr-lang builtin function.
func isFunction(name string) bool {
	_, ok := builtin.Index[name]

	return ok
}

// signature returns the signature of a builtin and its parameter names, or
// "" if there is none to show.
func signature(name string) (string, []string) {
	params, ok := builtinParams[name]
	if !ok {
		if !isFunction(name) {
			return "", nil
		}

		params = []string{"..."}
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string
	argIndex int
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor and the
// index of the argument being typed. Parentheses and commas inside string
// literals are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	var open []int // offsets of unclosed '('

	args := map[int]int{}
	quote := rune(0)

	for i, r := range input[:cursor] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '(':
			open = append(open, i)
		case r == ')':
			if len(open) > 0 {
				delete(args, open[len(open)-1])
				open = open[:len(open)-1]
			}
		case r == ',':
			if len(open) > 0 {
				args[open[len(open)-1]]++
			}
		}
	}

	if len(open) == 0 {
		return functionCall{}
	}

	paren := open[len(open)-1]

	start := paren
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isIdentRune(r) {
			break
		}

		start -= size
	}

	name := input[start:paren]
	if name == "" {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: args[paren], inCall: true}
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// renderSignatureHint renders a signature with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
