package lexer

import "github.com/ardnew/nixsyn/lang/token"

// The match functions return the length of the longest lexeme of their
// class starting at src[pos], or zero.

func isAlpha(c byte) bool      { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return isAlpha(c) || c == '_' }

func isIdentContinue(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '\'' || c == '-'
}

// isPathChar reports whether c may appear in a path segment.
func isPathChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '.' || c == '_' || c == '-' || c == '+'
}

func isURIChar(c byte) bool {
	if isAlpha(c) || isDigit(c) {
		return true
	}

	switch c {
	case '%', '/', '?', ':', '@', '&', '=', '+', '$', ',', '-', '_', '.', '!', '~', '*', '\'':
		return true
	}

	return false
}

func matchIdent(src string, pos int) int {
	i := pos + 1
	for i < len(src) && isIdentContinue(src[i]) {
		i++
	}

	return i - pos
}

func isSchemeChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '+' || c == '-' || c == '.'
}

// run remembers the extent of the last maximal run of one character class,
// so that tokens lexed from inside the same run do not rescan it.
type run struct {
	in         func(byte) bool
	start, end int
	valid      bool
	scanned    int // bytes examined, for tests
}

// endAt returns the offset of the first byte at or after pos that is not in
// the class.
func (r *run) endAt(src string, pos int) int {
	if r.valid && r.start <= pos && pos <= r.end {
		return r.end
	}

	i := pos
	for i < len(src) && r.in(src[i]) {
		i++
	}

	r.scanned += i - pos
	r.start, r.end, r.valid = pos, i, true

	return i
}

// matchURI matches scheme ":" rest, where the scheme starts with a letter.
// schemeEnd is the end of the run of scheme characters at pos.
func matchURI(src string, pos, schemeEnd int) int {
	i := schemeEnd

	if i >= len(src) || src[i] != ':' {
		return 0
	}

	i++

	rest := i
	for i < len(src) && isURIChar(src[i]) {
		i++
	}

	if i == rest {
		return 0
	}

	return i - pos
}

// segments matches one or more "/" segment groups starting at i, followed by
// an optional trailing slash. It returns the end offset and the number of
// segments matched.
func segments(src string, i int) (int, int) {
	n := 0

	for i+1 < len(src) && src[i] == '/' && isPathChar(src[i+1]) {
		i++
		for i < len(src) && isPathChar(src[i]) {
			i++
		}

		n++
	}

	if n > 0 && i < len(src) && src[i] == '/' {
		if i+1 >= len(src) || (src[i+1] != '/' && src[i+1] != '*') {
			i++
		}
	}

	return i, n
}

// matchPath matches a relative or absolute path such as ./a, ../b/c or /etc.
// runEnd is the end of the run of path characters at pos.
func matchPath(src string, pos, runEnd int) int {
	end, n := segments(src, runEnd)
	if n == 0 {
		return 0
	}

	return end - pos
}

// matchHomePath matches ~/a/b.
func matchHomePath(src string, pos int) int {
	end, n := segments(src, pos+1)
	if n == 0 {
		return 0
	}

	return end - pos
}

// matchSearchPath matches <a/b>.
func matchSearchPath(src string, pos int) int {
	i := pos + 1

	start := i
	for i < len(src) && isPathChar(src[i]) {
		i++
	}

	if i == start {
		return 0
	}

	for i+1 < len(src) && src[i] == '/' && isPathChar(src[i+1]) {
		i++
		for i < len(src) && isPathChar(src[i]) {
			i++
		}
	}

	if i >= len(src) || src[i] != '>' {
		return 0
	}

	return i + 1 - pos
}

// matchNumber matches an integer or float literal. When ok is false the
// literal is malformed and n covers the whole malformed run.
func matchNumber(src string, pos int) (n int, kind token.Kind, ok bool) {
	i := pos
	for i < len(src) && isDigit(src[i]) {
		i++
	}

	kind = token.Integer
	whole := src[pos:i]

	if i < len(src) && src[i] == '.' {
		switch {
		case i+1 < len(src) && isDigit(src[i+1]):
			kind = token.Float
			i++

			for i < len(src) && isDigit(src[i]) {
				i++
			}

		case whole != "" && whole[0] != '0' && (i+1 >= len(src) || !isPathChar(src[i+1])):
			kind = token.Float
			i++
		}
	}

	ok = true

	if kind == token.Float && i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		i++
		if i < len(src) && (src[i] == '+' || src[i] == '-') {
			i++
		}

		digits := i
		for i < len(src) && isDigit(src[i]) {
			i++
		}

		ok = i > digits
	}

	if i < len(src) && (isAlpha(src[i]) || src[i] == '_' || src[i] == '\'') {
		ok = false
		for i < len(src) && isIdentContinue(src[i]) {
			i++
		}
	}

	return i - pos, kind, ok
}

// operators lists punctuation longest first so the first prefix match wins.
var operators = []struct {
	text string
	kind token.Kind
}{
	{"...", token.Ellipsis},
	{"//", token.Update},
	{"++", token.Concat},
	{"==", token.Equal},
	{"!=", token.NotEqual},
	{"<=", token.LessEqual},
	{">=", token.GreaterEqual},
	{"&&", token.And},
	{"||", token.OrOr},
	{"->", token.Implies},
	{".", token.Dot},
	{"?", token.Question},
	{"@", token.At},
	{":", token.Colon},
	{";", token.Semicolon},
	{",", token.Comma},
	{"=", token.Assign},
	{"(", token.LParen},
	{")", token.RParen},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"!", token.Not},
	{"<", token.Less},
	{">", token.Greater},
}

func matchOperator(src string, pos int) (int, token.Kind) {
	rest := src[pos:]

	for _, op := range operators {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			return len(op.text), op.kind
		}
	}

	return 0, token.Invalid
}
