package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/nixsyn/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrUnexpectedToken  = NewError("unexpected token")
	ErrExpected         = NewError("missing token")
	ErrUnclosed         = NewError("unclosed delimiter")
	ErrMalformedFormals = NewError("malformed formals")
	ErrInheritFrom      = NewError("inherit from-clause without attributes")
	ErrDepthExceeded    = NewError("maximum nesting depth exceeded")
	ErrParenthesize     = NewError("expression must be parenthesized")
	ErrListOperator     = NewError("operator in list element must be parenthesized")
	ErrUnterminated     = NewError("unterminated string")
)

// Error is a parser failure category. Diagnostics refer to one of the
// sentinel values above.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.err == nil && t.msg == e.msg
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{msg: e.msg, err: e.err, attrs: newAttrs}
}

// Diagnostic is one problem found while parsing.
type Diagnostic struct {
	// Err is the sentinel or lexer error describing the category.
	Err error
	// Message is the human-readable description.
	Message string
	Span    token.Span
	// Lexical is set when the lexer rejected the input.
	Lexical bool
}

func (d Diagnostic) Error() string { return d.Message }

func (d Diagnostic) Unwrap() error { return d.Err }

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("message", d.Message),
		slog.Any("span", d.Span),
		slog.Bool("lexical", d.Lexical),
	)
}

// ErrorList is the error returned by [Parse] when the tree contains error
// nodes. It holds every diagnostic in source order of discovery.
type ErrorList []Diagnostic

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Message
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Message, len(l)-1)
	}
}

// Unwrap exposes every diagnostic to [errors.Is] and [errors.As].
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, d := range l {
		errs[i] = d
	}

	return errs
}

// describe renders a token for use in a diagnostic.
func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.StringContent, token.IndentedStringContent:
		return "string content"
	}

	text := tok.Text
	if len(text) > 24 {
		text = text[:21] + "..."
	}

	return "'" + text + "'"
}
