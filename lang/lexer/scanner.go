package lexer

import (
	"log/slog"
	"unicode/utf8"

	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/log"
)

// Scanner recognizes the structural tokens whose meaning depends on nesting:
// string delimiters and content, escape sequences, interpolation boundaries,
// and comments. Every other token is left to [Lexer].
//
// A Scanner mutates its [State] as it goes. It is not safe for concurrent
// use.
type Scanner struct {
	state  *State
	logger log.Logger
	src    string
	pos    int
}

// NewScanner returns a scanner over src positioned at offset 0. If state is
// nil a fresh document state is used.
func NewScanner(src string, state *State) *Scanner {
	if state == nil {
		state = NewState()
	}

	return &Scanner{src: src, state: state}
}

// Pos returns the cursor offset.
func (s *Scanner) Pos() int { return s.pos }

// State returns the live nesting state.
func (s *Scanner) State() *State { return s.state }

// Scan returns the structural token at the cursor if its kind is in valid.
//
// It returns [ErrNoToken] without moving the cursor when no acceptable
// structural token starts here. A lexical failure returns an [token.Error]
// token together with an [*Error]; the token covers the bytes consumed and
// may be empty when the failure is detected at end of input.
func (s *Scanner) Scan(valid token.Set) (token.Token, error) {
	switch s.state.Top().Mode {
	case ModeString:
		return s.scanString(valid)
	case ModeIndented:
		return s.scanIndented(valid)
	default:
		return s.scanCode(valid)
	}
}

// Track updates bracket counters of the innermost frame for a bracket token
// produced outside of the scanner.
func (s *Scanner) Track(kind token.Kind) {
	f := s.state.top()

	switch kind {
	case token.LBrace:
		f.Brace++
	case token.RBrace:
		if f.Brace > 0 {
			f.Brace--
		}
	case token.LParen:
		f.Paren++
	case token.RParen:
		if f.Paren > 0 {
			f.Paren--
		}
	}
}

func (s *Scanner) scanCode(valid token.Set) (token.Token, error) {
	if s.pos >= len(s.src) {
		if s.state.Depth() > 1 {
			return s.unterminated(ErrUnterminatedInterpolation)
		}

		return token.Token{}, ErrNoToken
	}

	switch c, next := s.src[s.pos], s.peek(1); {
	case c == '#' && valid.Has(token.Comment):
		return s.lineComment(), nil

	case c == '/' && next == '*' && valid.Has(token.Comment):
		return s.blockComment()

	case c == '"' && valid.Has(token.StringStart):
		s.enter(ModeString)

		return s.emit(token.StringStart, s.pos+1), nil

	case c == '\'' && next == '\'' && valid.Has(token.IndentedStringStart):
		s.enter(ModeIndented)

		return s.emit(token.IndentedStringStart, s.pos+2), nil

	case c == '$' && next == '{' && valid.Has(token.InterpolationStart):
		s.enter(ModeCode)

		return s.emit(token.InterpolationStart, s.pos+2), nil

	case c == '}' && s.state.closesInterpolation() && valid.Has(token.InterpolationEnd):
		s.leave()

		return s.emit(token.InterpolationEnd, s.pos+1), nil
	}

	return token.Token{}, ErrNoToken
}

func (s *Scanner) scanString(valid token.Set) (token.Token, error) {
	if s.pos >= len(s.src) {
		return s.unterminated(ErrUnterminatedString)
	}

	switch c, next := s.src[s.pos], s.peek(1); {
	case c == '"':
		if !valid.Has(token.StringEnd) {
			return token.Token{}, ErrNoToken
		}

		s.leave()

		return s.emit(token.StringEnd, s.pos+1), nil

	case c == '\\':
		if !valid.Has(token.EscapeSequence) {
			return token.Token{}, ErrNoToken
		}

		return s.escape()

	case c == '$' && next == '{':
		if !valid.Has(token.InterpolationStart) {
			return token.Token{}, ErrNoToken
		}

		s.enter(ModeCode)

		return s.emit(token.InterpolationStart, s.pos+2), nil
	}

	if !valid.Has(token.StringContent) {
		return token.Token{}, ErrNoToken
	}

	end := s.pos
	for end < len(s.src) {
		c := s.src[end]
		if c == '"' || c == '\\' || (c == '$' && end+1 < len(s.src) && s.src[end+1] == '{') {
			break
		}

		end++
	}

	return s.emit(token.StringContent, end), nil
}

func (s *Scanner) scanIndented(valid token.Set) (token.Token, error) {
	if s.pos >= len(s.src) {
		return s.unterminated(ErrUnterminatedIndentedString)
	}

	if s.src[s.pos] == '$' && s.peek(1) == '{' {
		if !valid.Has(token.InterpolationStart) {
			return token.Token{}, ErrNoToken
		}

		s.enter(ModeCode)

		return s.emit(token.InterpolationStart, s.pos+2), nil
	}

	if s.quoteRun(s.pos) == 2 {
		if !valid.Has(token.IndentedStringEnd) {
			return token.Token{}, ErrNoToken
		}

		s.leave()

		return s.emit(token.IndentedStringEnd, s.pos+2), nil
	}

	if !valid.Has(token.IndentedStringContent) {
		return token.Token{}, ErrNoToken
	}

	// Content runs up to an interpolation or up to the final two quotes of a
	// run of two or more. Quotes before those two are literal content.
	end := s.pos
	for end < len(s.src) {
		c := s.src[end]
		if c == '$' && end+1 < len(s.src) && s.src[end+1] == '{' {
			break
		}

		if c == '\'' {
			n := s.quoteRun(end)
			if n >= 2 {
				end += n - 2

				break
			}
		}

		end++
	}

	return s.emit(token.IndentedStringContent, end), nil
}

// quoteRun returns the number of consecutive single quotes at offset i.
func (s *Scanner) quoteRun(i int) int {
	j := i
	for j < len(s.src) && s.src[j] == '\'' {
		j++
	}

	return j - i
}

func (s *Scanner) escape() (token.Token, error) {
	start := s.pos
	if start+1 >= len(s.src) {
		return s.fail(ErrInvalidEscape, start+1)
	}

	switch s.src[start+1] {
	case 'n', 'r', 't', '\\', '"', '\'', '$':
		return s.emit(token.EscapeSequence, start+2), nil

	case 'x':
		end := start + 2
		for end < len(s.src) && end < start+4 && isHex(s.src[end]) {
			end++
		}

		if end-start != 4 {
			return s.fail(ErrInvalidEscape, end)
		}

		return s.emit(token.EscapeSequence, end), nil
	}

	_, size := utf8.DecodeRuneInString(s.src[start+1:])

	return s.fail(ErrInvalidEscape, start+1+size)
}

func (s *Scanner) lineComment() token.Token {
	end := s.pos
	for end < len(s.src) && s.src[end] != '\n' {
		end++
	}

	return s.emit(token.Comment, end)
}

// blockComment consumes a possibly nested /* */ comment.
func (s *Scanner) blockComment() (token.Token, error) {
	depth := 0
	end := s.pos

	for end < len(s.src) {
		switch {
		case s.src[end] == '/' && end+1 < len(s.src) && s.src[end+1] == '*':
			depth++
			end += 2

		case s.src[end] == '*' && end+1 < len(s.src) && s.src[end+1] == '/':
			depth--
			end += 2

			if depth == 0 {
				return s.emit(token.Comment, end), nil
			}

		default:
			end++
		}
	}

	return s.fail(ErrUnterminatedComment, end)
}

// unterminated reports end of input inside the innermost frame and discards
// every open frame so lexing can finish.
func (s *Scanner) unterminated(sentinel *Error) (token.Token, error) {
	opened := s.state.Top().Start
	s.state.Reset()

	s.logger.Trace("reset state at end of input",
		slog.String("error", sentinel.Message()),
		slog.Int("opened", opened),
	)

	tok := s.emit(token.Error, s.pos)

	return tok, sentinel.At(token.Span{Start: opened, End: len(s.src)})
}

// fail consumes through end as an error token.
func (s *Scanner) fail(sentinel *Error, end int) (token.Token, error) {
	start := s.pos
	tok := s.emit(token.Error, end)

	return tok, sentinel.At(token.Span{Start: start, End: end})
}

func (s *Scanner) enter(m Mode) {
	s.state.push(m, s.pos)

	s.logger.Trace("enter frame",
		slog.String("mode", m.String()),
		slog.Int("offset", s.pos),
		slog.Int("depth", s.state.Depth()),
	)
}

func (s *Scanner) leave() {
	f := s.state.pop()

	s.logger.Trace("leave frame",
		slog.String("mode", f.Mode.String()),
		slog.Int("offset", s.pos),
		slog.Int("depth", s.state.Depth()),
	)
}

// emit returns the token from the cursor to end and advances the cursor.
func (s *Scanner) emit(kind token.Kind, end int) token.Token {
	tok := token.Token{
		Kind: kind,
		Span: token.Span{Start: s.pos, End: end},
		Text: s.src[s.pos:end],
	}
	s.pos = end

	return tok
}

func (s *Scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}

	return 0
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
