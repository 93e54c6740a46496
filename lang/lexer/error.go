package lexer

import (
	"log/slog"
	"strings"

	"github.com/ardnew/nixsyn/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrNoToken                    = NewError("no valid token")
	ErrStateOverflow              = NewError("state does not fit buffer")
	ErrStateCorrupt               = NewError("malformed state encoding")
	ErrUnterminatedString         = NewError("unterminated string")
	ErrUnterminatedIndentedString = NewError("unterminated indented string")
	ErrUnterminatedInterpolation  = NewError("unterminated interpolation")
	ErrUnterminatedComment        = NewError("unterminated block comment")
	ErrInvalidEscape              = NewError("invalid escape sequence")
	ErrInvalidNumber              = NewError("invalid numeric literal")
	ErrUnexpectedChar             = NewError("unexpected character")
)

// Error is a lexer failure. Lexical errors carry the source span where the
// failure was detected.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	span  token.Span
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

// Message returns the error text without any wrapped cause.
func (e *Error) Message() string { return e.msg }

// Span returns the source range the error applies to.
func (e *Error) Span() token.Span { return e.span }

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.span != (token.Span{}) {
		attrs = append(attrs, slog.Any("span", e.span))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// At returns a copy of e positioned at span.
func (e *Error) At(span token.Span) *Error {
	return &Error{msg: e.msg, err: e.err, attrs: e.attrs, span: span}
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs, span: e.span}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{msg: e.msg, err: e.err, attrs: newAttrs, span: e.span}
}
