package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/nixsyn/lang/parser"
	"github.com/ardnew/nixsyn/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrParse        = NewError("parse failed")
	ErrRead         = NewError("failed to read input")
	ErrQuery        = NewError("invalid query")
	ErrFormat       = NewError("failed to format tree")
	ErrUnknownKind  = NewError("unknown node kind")
	ErrNotString    = NewError("node is not a string literal")
	ErrStaleVersion = NewError("stale document version")
	ErrNoDocument   = NewError("document not open")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches any error derived from the same sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.err == nil && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
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
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError reports every diagnostic of a parse together with the source
// it refers to.
type ParseError struct {
	Diagnostics parser.ErrorList
	Name        string // File name, if any
	Source      string // The original source input
}

// NewParseError returns a ParseError for the diagnostics of a parse of
// source.
func NewParseError(list parser.ErrorList, name, source string) *ParseError {
	return &ParseError{Diagnostics: list, Name: name, Source: source}
}

// Error implements the error interface. It describes the first diagnostic
// with the offending source line and a caret under its column.
func (e *ParseError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "parse error"
	}

	snips := e.Snippets()
	first := snips[0]

	var buf strings.Builder

	buf.WriteString(first.header(e.Name))
	buf.WriteString(first.Message)
	buf.WriteByte('\n')
	buf.WriteString(first.Context)

	if n := len(snips) - 1; n > 0 {
		buf.WriteString("(and ")
		buf.WriteString(strconv.Itoa(n))
		buf.WriteString(" more errors)\n")
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// Unwrap exposes the diagnostics to errors.Is and errors.As, and marks the
// error as an [ErrParse].
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Diagnostics}
}

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("errors", len(e.Diagnostics))}

	if e.Name != "" {
		attrs = append(attrs, slog.String("file", e.Name))
	}

	if len(e.Diagnostics) > 0 {
		s := e.Snippets()[0]
		attrs = append(attrs,
			slog.String("first", s.Message),
			slog.Int("line", s.Line),
			slog.Int("column", s.Column),
		)
	}

	return slog.GroupValue(attrs...)
}

// Snippet is one diagnostic located in its source.
type Snippet struct {
	Message string
	// Context is the numbered source line followed by a caret line.
	Context string
	Span    token.Span
	Line    int
	Column  int
	Lexical bool
}

func (s Snippet) header(name string) string {
	var buf strings.Builder

	buf.WriteString("parse error at ")

	if name != "" {
		buf.WriteString(name)
		buf.WriteString(", ")
	}

	buf.WriteString("line ")
	buf.WriteString(strconv.Itoa(s.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(s.Column))
	buf.WriteString(": ")

	return buf.String()
}

// Snippets returns every diagnostic with its line, column and source
// context.
func (e *ParseError) Snippets() []Snippet {
	file := token.NewFile(e.Source)
	out := make([]Snippet, len(e.Diagnostics))

	for i, d := range e.Diagnostics {
		pos := file.Position(d.Span.Start)
		out[i] = Snippet{
			Message: d.Message,
			Context: formatWithContext(file, pos),
			Span:    d.Span,
			Line:    pos.Line,
			Column:  pos.Column,
			Lexical: d.Lexical,
		}
	}

	return out
}

// formatWithContext renders the line holding pos with its number and a
// caret under the column.
func formatWithContext(file *token.File, pos token.Position) string {
	if pos.Line < 1 || pos.Line > file.LineCount() {
		return ""
	}

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(pos.Line))
	src.WriteString(" | ")
	src.WriteString(file.Line(pos.Line))
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	lineNumWidth := len(strconv.Itoa(pos.Line))
	padding := strings.Repeat(" ", lineNumWidth+5)

	if pos.Column > 0 {
		padding += strings.Repeat(" ", pos.Column-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}
