package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// StringValue returns the value of a string or indented_string node.
//
// Escape sequences of quoted strings are decoded. Indented strings are
// dedented: a whitespace-only first line is dropped, the smallest
// indentation of the lines holding text is removed from every line, and a
// whitespace-only last line is emptied. Interpolations and malformed
// escapes are kept as their source text.
func StringValue(ast *AST, n *tree.Node) (string, error) {
	if n == nil {
		return "", ErrNotString
	}

	switch n.Kind() {
	case tree.KindString:
		return ast.stringParts(n, unescape), nil

	case tree.KindIndentedString:
		return dedent(ast.stringParts(n, nil)), nil
	}

	return "", ErrNotString.With(slog.String("kind", n.Kind().String()))
}

// stringParts concatenates the content of a string node. Escape leaves are
// passed through decode when it is not nil.
func (ast *AST) stringParts(n *tree.Node, decode func(string) string) string {
	var sb strings.Builder

	for _, c := range n.All() {
		tok, ok := c.Token()
		if !ok {
			sb.WriteString(ast.Text(c))

			continue
		}

		switch tok.Kind {
		case token.StringContent, token.IndentedStringContent:
			sb.WriteString(tok.Text)

		case token.EscapeSequence:
			if decode != nil {
				sb.WriteString(decode(tok.Text))
			} else {
				sb.WriteString(tok.Text)
			}
		}
	}

	return sb.String()
}

// unescape decodes one escape sequence of a quoted string.
func unescape(esc string) string {
	if len(esc) < 2 {
		return esc
	}

	switch esc[1] {
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case 'x':
		b, err := strconv.ParseUint(esc[2:], 16, 8)
		if err != nil {
			return esc
		}

		return string([]byte{byte(b)})
	}

	return esc[1:]
}

// dedent removes the common indentation of an indented string.
// Only spaces count as indentation.
func dedent(s string) string {
	lines := strings.Split(s, "\n")

	if len(lines) > 1 && isBlank(lines[0]) {
		lines = lines[1:]
	}

	indent := -1

	for _, line := range lines {
		if isBlank(line) {
			continue
		}

		n := leadingSpaces(line)
		if indent < 0 || n < indent {
			indent = n
		}
	}

	if indent < 0 {
		indent = 0
	}

	for i, line := range lines {
		lines[i] = line[min(indent, leadingSpaces(line)):]
	}

	if last := len(lines) - 1; isBlank(lines[last]) {
		lines[last] = ""
	}

	return strings.Join(lines, "\n")
}

func isBlank(line string) bool { return strings.TrimLeft(line, " ") == "" }

func leadingSpaces(line string) int { return len(line) - len(strings.TrimLeft(line, " ")) }
