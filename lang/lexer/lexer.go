package lexer

import (
	"errors"
	"iter"
	"log/slog"
	"unicode/utf8"

	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/log"
)

// Lexer produces the token stream of one document. It skips whitespace and
// comments in code, recording them as trivia, delegates nesting-sensitive
// tokens to its [Scanner], and lexes every remaining token by longest match.
//
// A Lexer is not safe for concurrent use. Independent documents should use
// independent lexers.
type Lexer struct {
	sc      *Scanner
	trivia  []token.Token
	logger  log.Logger
	src     string
	paths   run
	schemes run
	inline  bool
}

// Option configures a [Lexer].
type Option func(*Lexer)

// WithLogger sets the logger used for trace output.
func WithLogger(logger log.Logger) Option {
	return func(l *Lexer) { l.logger = logger }
}

// withInlineTrivia makes Next return whitespace and comments instead of
// recording them.
func withInlineTrivia() Option {
	return func(l *Lexer) { l.inline = true }
}

// New returns a lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{
		src:     src,
		sc:      NewScanner(src, nil),
		paths:   run{in: isPathChar},
		schemes: run{in: isSchemeChar},
	}

	for _, opt := range opts {
		opt(l)
	}

	l.sc.logger = l.logger

	return l
}

// Pos returns the offset of the next unread byte.
func (l *Lexer) Pos() int { return l.sc.pos }

// State returns the live nesting state.
func (l *Lexer) State() *State { return l.sc.state }

// Source returns the document text.
func (l *Lexer) Source() string { return l.src }

// Trivia returns the whitespace and comment tokens skipped so far, in source
// order.
func (l *Lexer) Trivia() []token.Token { return l.trivia }

// Hint returns the set of kinds that can be produced in the current mode.
func (l *Lexer) Hint() token.Set {
	switch l.sc.state.Top().Mode {
	case ModeString:
		return token.StringParts
	case ModeIndented:
		return token.IndentedStringParts
	default:
		return token.CodeKinds
	}
}

// Next returns the next token whose kind is in valid.
//
// A nil error means tok is well formed. A non-nil error is an [*Error]
// describing a lexical failure; tok then has kind [token.Error] or
// [token.Illegal] and covers the bytes that were consumed, so the caller can
// keep it in the tree and continue. At end of input Next returns
// [token.EOF] repeatedly.
func (l *Lexer) Next(valid token.Set) (token.Token, error) {
	for {
		code := l.sc.state.Top().Mode == ModeCode

		if code {
			if ws, ok := l.whitespace(); ok {
				if l.inline {
					return ws, nil
				}

				l.trivia = append(l.trivia, ws)
			}
		}

		tok, err := l.sc.Scan(valid.Union(token.Of(token.Comment)))

		switch {
		case err == nil && tok.Kind == token.Comment:
			if l.inline {
				return tok, nil
			}

			l.trivia = append(l.trivia, tok)

			continue

		case err == nil:
			return tok, nil

		case !errors.Is(err, ErrNoToken):
			l.logger.Trace("lexical error", slog.Any("error", err))

			return tok, err
		}

		if l.sc.pos >= len(l.src) {
			return token.Token{Kind: token.EOF, Span: token.Span{Start: len(l.src), End: len(l.src)}}, nil
		}

		if !code {
			return l.illegal()
		}

		return l.scanToken()
	}
}

// Checkpoint is a restorable lexer position.
type Checkpoint struct {
	state  []byte
	pos    int
	trivia int
}

// Checkpoint captures the cursor, the serialized state and the trivia
// count.
func (l *Lexer) Checkpoint() Checkpoint {
	b, _ := l.sc.state.MarshalBinary()

	return Checkpoint{state: b, pos: l.sc.pos, trivia: len(l.trivia)}
}

// Restore rewinds the lexer to cp.
func (l *Lexer) Restore(cp Checkpoint) error {
	if err := l.sc.state.UnmarshalBinary(cp.state); err != nil {
		return err
	}

	l.sc.pos = cp.pos
	l.trivia = l.trivia[:cp.trivia]

	return nil
}

// Tokenize streams every token of src in source order, trivia included,
// until end of input. Lexical errors are yielded alongside their tokens.
func Tokenize(src string, opts ...Option) iter.Seq2[token.Token, error] {
	return func(yield func(token.Token, error) bool) {
		l := New(src, append(opts, withInlineTrivia())...)

		for {
			tok, err := l.Next(l.Hint())
			if tok.Kind == token.EOF {
				return
			}

			if !yield(tok, err) {
				return
			}
		}
	}
}

func (l *Lexer) whitespace() (token.Token, bool) {
	start := l.sc.pos

	end := start
	for end < len(l.src) && isSpace(l.src[end]) {
		end++
	}

	if end == start {
		return token.Token{}, false
	}

	return l.sc.emit(token.Whitespace, end), true
}

func (l *Lexer) illegal() (token.Token, error) {
	_, size := utf8.DecodeRuneInString(l.src[l.sc.pos:])
	start := l.sc.pos
	tok := l.sc.emit(token.Illegal, start+size)

	return tok, ErrUnexpectedChar.At(tok.Span).With(slog.String("text", tok.Text))
}

// scanToken lexes a conventional token by longest match.
func (l *Lexer) scanToken() (token.Token, error) {
	src, pos := l.src, l.sc.pos
	c := src[pos]

	best, kind := 0, token.Invalid

	consider := func(n int, k token.Kind) {
		if n > best {
			best, kind = n, k
		}
	}

	if isAlpha(c) {
		consider(matchURI(src, pos, l.schemes.endAt(src, pos)), token.URI)
	}

	if isPathChar(c) || c == '/' {
		consider(matchPath(src, pos, l.paths.endAt(src, pos)), token.Path)
	}

	switch c {
	case '~':
		consider(matchHomePath(src, pos), token.HPath)
	case '<':
		consider(matchSearchPath(src, pos), token.SPath)
	}

	if isIdentStart(c) {
		n := matchIdent(src, pos)
		consider(n, token.Lookup(src[pos:pos+n]))
	}

	if isDigit(c) || (c == '.' && pos+1 < len(src) && isDigit(src[pos+1])) {
		n, k, ok := matchNumber(src, pos)
		if !ok && n >= best {
			return l.sc.fail(ErrInvalidNumber, pos+n)
		}

		consider(n, k)
	}

	if best == 0 {
		n, k := matchOperator(src, pos)
		consider(n, k)
	}

	if best == 0 {
		return l.illegal()
	}

	tok := l.sc.emit(kind, pos+best)
	l.sc.Track(kind)

	return tok, nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
