package parser

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ardnew/nixsyn/lang/lexer"
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
	"github.com/ardnew/nixsyn/log"
)

// Mode selects how the parser reacts to the first syntax error.
type Mode uint8

const (
	// ModeTolerant records each error as an error node, resynchronizes at the
	// next binding boundary, and keeps parsing. Suited to editors.
	ModeTolerant Mode = iota
	// ModeStrict stops at the first error. The rest of the input is kept in
	// a single error node so the tree still covers the whole source.
	ModeStrict
)

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}

	return "tolerant"
}

// DefaultMaxDepth is the default limit on expression nesting.
const DefaultMaxDepth = 1000

// Stats summarizes one parse.
type Stats struct {
	Tokens int
	Nodes  int
	Errors int
	// MaxDepth is the deepest expression nesting reached. See [WithMaxDepth].
	MaxDepth int
}

type config struct {
	stats    *Stats
	logger   log.Logger
	maxDepth int
	mode     Mode
}

// Option configures a parse.
type Option func(*config)

// WithMode selects strict or tolerant error handling.
func WithMode(mode Mode) Option {
	return func(c *config) { c.mode = mode }
}

// WithMaxDepth sets the maximum nesting depth. Non-positive values select
// [DefaultMaxDepth].
//
// Depth counts syntactic nesting, not grammar recursion: the top-level
// expression is at depth 1, and each parenthesized or bound subexpression,
// list, operand of a right-associative or prefix operator, and selection
// default adds one. So "((1))" and "[ [ 1 ] ]" both have depth 3, while a
// left-associative chain "a + b + c" has depth 2 however long it is.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth <= 0 {
			depth = DefaultMaxDepth
		}

		c.maxDepth = depth
	}
}

// WithLogger sets the logger used for trace output of the parser and its
// lexer.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithStats stores parse statistics into s when the parse completes.
func WithStats(s *Stats) Option {
	return func(c *config) { c.stats = s }
}

type parser struct {
	lx     *lexer.Lexer
	tokErr error
	held   *token.Token
	src    string
	diags  ErrorList
	cfg    config
	tok    token.Token
	depth  int
	stats  Stats
	halted bool
}

// Parse parses src into a syntax tree. It always returns a tree. The error
// is nil when the tree has no error nodes and an [ErrorList] otherwise.
func Parse(src string, opts ...Option) (*tree.Tree, error) {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &parser{
		src: src,
		cfg: cfg,
		lx:  lexer.New(src, lexer.WithLogger(cfg.logger)),
	}

	t := p.parseSourceFile()

	if cfg.stats != nil {
		for range t.Root.Descendants() {
			p.stats.Nodes++
		}

		p.stats.Errors = len(p.diags)
		*cfg.stats = p.stats
	}

	p.cfg.logger.Trace("parse finished",
		slog.String("mode", cfg.mode.String()),
		slog.Int("tokens", p.stats.Tokens),
		slog.Int("errors", len(p.diags)),
	)

	if len(p.diags) > 0 {
		return t, p.diags
	}

	return t, nil
}

func (p *parser) parseSourceFile() *tree.Tree {
	p.advance()

	var cs []tree.Child

	if p.tok.Kind != token.EOF {
		cs = append(cs, tree.Child{Node: p.parseExpr(), Field: tree.FieldExpression})
	}

	if p.tok.Kind != token.EOF {
		cs = append(cs, tree.Child{Node: p.trailing()})
	}

	if p.halted {
		cs = append(cs, tree.Child{Node: p.drain()})
	}

	root := tree.NewSpan(tree.KindSourceFile, token.Span{End: len(p.src)}, cs...)

	return tree.NewTree(root, p.src, p.lx.Trivia())
}

// advance reads the next token. Once halted the parser sees only end of
// input.
func (p *parser) advance() {
	if p.halted {
		return
	}

	p.tok, p.tokErr = p.lx.Next(p.lx.Hint())
	if p.tok.Kind != token.EOF {
		p.stats.Tokens++
	}
}

// at reports whether the current token has one of kinds.
func (p *parser) at(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.tok.Kind == k {
			return true
		}
	}

	return false
}

// leaf consumes the current token as an anonymous leaf.
func (p *parser) leaf() tree.Child {
	n := tree.Leaf(tree.KindToken, p.tok)
	p.advance()

	return tree.Child{Node: n}
}

// named consumes the current token as a leaf of kind in field f.
func (p *parser) named(kind tree.Kind, f tree.Field) tree.Child {
	n := tree.Leaf(kind, p.tok)
	p.advance()

	return tree.Child{Node: n, Field: f}
}

// peek returns the token after the current one without consuming anything.
func (p *parser) peek() token.Token {
	if p.halted {
		return p.tok
	}

	cp := p.lx.Checkpoint()
	tok, _ := p.lx.Next(p.lx.Hint())
	_ = p.lx.Restore(cp)

	return tok
}

// enter increments the nesting depth. When the limit would be exceeded it
// halts the parse and returns false without incrementing.
func (p *parser) enter() bool {
	if p.depth >= p.cfg.maxDepth {
		p.report(token.Span{Start: p.tok.Start, End: p.tok.Start}, ErrDepthExceeded,
			ErrDepthExceeded.Error()+" ("+strconv.Itoa(p.cfg.maxDepth)+")")
		p.halt()

		return false
	}

	p.depth++
	p.stats.MaxDepth = max(p.stats.MaxDepth, p.depth)

	return true
}

// tooDeep is the placeholder returned in place of a construct refused by
// [parser.enter].
func (p *parser) tooDeep() *tree.Node {
	return tree.Error(ErrDepthExceeded, token.Span{Start: p.tok.Start, End: p.tok.Start})
}

func (p *parser) leave() { p.depth-- }

// nested parses one level deeper with parse.
func (p *parser) nested(parse func() *tree.Node) *tree.Node {
	if !p.enter() {
		return p.tooDeep()
	}
	defer p.leave()

	return parse()
}

// report records a diagnostic. Once the parse is halted nothing more is
// recorded, and only the first complaint about end of input is kept.
func (p *parser) report(span token.Span, err error, msg string) {
	if p.halted {
		return
	}

	if n := len(p.diags); n > 0 && span.Start == len(p.src) && p.diags[n-1].Span.End == len(p.src) {
		return
	}

	p.diags = append(p.diags, Diagnostic{Err: err, Message: msg, Span: span})

	p.cfg.logger.Trace("syntax error", slog.String("message", msg), slog.Any("span", span))

	if p.cfg.mode == ModeStrict {
		p.halt()
	}
}

// reportLexical records a lexer error for tok, which the caller has already
// consumed.
func (p *parser) reportLexical(tok token.Token, err error) {
	if p.halted || err == nil {
		return
	}

	span := tok.Span

	var lerr *lexer.Error
	if errors.As(err, &lerr) {
		span = lerr.Span()
	}

	p.diags = append(p.diags, Diagnostic{
		Err:     err,
		Message: err.Error(),
		Span:    span,
		Lexical: true,
	})

	p.cfg.logger.Trace("lexical error", slog.Any("error", err))

	if p.cfg.mode == ModeStrict {
		p.halt()
	}
}

// halt stops consuming input. The current token is held for [parser.drain].
func (p *parser) halt() {
	if p.halted {
		return
	}

	if p.tok.Kind != token.EOF {
		held := p.tok
		p.held = &held
	}

	p.halted = true
	p.tok = token.Token{Kind: token.EOF, Span: token.Span{Start: p.tok.Start, End: p.tok.Start}}
	p.tokErr = nil
}

// drain collects every token left after a halt into one error node.
func (p *parser) drain() *tree.Node {
	var cs []tree.Child

	if p.held != nil {
		cs = append(cs, tree.Child{Node: tree.Leaf(tree.KindToken, *p.held)})
	}

	for {
		tok, _ := p.lx.Next(p.lx.Hint())
		if tok.Kind == token.EOF {
			break
		}

		cs = append(cs, tree.Child{Node: tree.Leaf(tree.KindToken, tok)})
	}

	if len(cs) == 0 {
		return nil
	}

	var cause error = ErrDepthExceeded
	if len(p.diags) > 0 {
		cause = p.diags[0]
	}

	span := cs[0].Node.Span().Cover(cs[len(cs)-1].Node.Span())

	return tree.Error(cause, span, cs...)
}

// missing returns a zero-width error node at the current token and reports
// that want was expected there.
func (p *parser) missing(sentinel *Error, want string) *tree.Node {
	span := token.Span{Start: p.tok.Start, End: p.tok.Start}
	msg := "expected " + want + ", found " + describe(p.tok)

	p.report(span, sentinel, msg)

	return tree.Error(sentinel.Wrap(errorString(msg)), span)
}

// expect consumes a token of kind as an anonymous leaf, or returns a
// zero-width error node.
func (p *parser) expect(kind token.Kind) tree.Child {
	if p.tok.Kind == kind {
		return p.leaf()
	}

	return tree.Child{Node: p.missing(ErrExpected, "'"+kind.String()+"'")}
}

// expectClose is expect for a closing delimiter whose opener is known.
func (p *parser) expectClose(kind token.Kind, opener *tree.Node) tree.Child {
	if p.tok.Kind == kind {
		return p.leaf()
	}

	span := token.Span{Start: p.tok.Start, End: p.tok.Start}
	pos := opener.Span().Start
	msg := "expected '" + kind.String() + "' to close '" + opener.Text(p.src) +
		"' at offset " + strconv.Itoa(pos) + ", found " + describe(p.tok)

	p.report(span, ErrUnclosed, msg)

	return tree.Child{Node: tree.Error(ErrUnclosed.Wrap(errorString(msg)), span)}
}

// errorToken consumes the current token into an error node.
func (p *parser) errorToken() *tree.Node {
	tok, lexErr := p.tok, p.tokErr
	p.advance()

	leaf := tree.Child{Node: tree.Leaf(tree.KindToken, tok)}

	if lexErr != nil {
		p.reportLexical(tok, lexErr)

		return tree.Error(lexErr, tok.Span, leaf)
	}

	msg := "unexpected " + describe(tok)
	p.report(tok.Span, ErrUnexpectedToken, msg)

	return tree.Error(ErrUnexpectedToken.Wrap(errorString(msg)), tok.Span, leaf)
}

// trailing wraps every token after the top-level expression into one error
// node.
func (p *parser) trailing() *tree.Node {
	var (
		cs    []tree.Child
		first = p.tok
	)

	for p.tok.Kind != token.EOF {
		tok, lexErr := p.tok, p.tokErr
		cs = append(cs, p.leaf())

		switch {
		case lexErr != nil:
			p.reportLexical(tok, lexErr)
		case tok.Span == first.Span:
			p.report(tok.Span, ErrUnexpectedToken, "unexpected "+describe(tok)+" after expression")
		}
	}

	if len(cs) == 0 {
		return nil
	}

	return tree.Error(ErrUnexpectedToken, cs[0].Node.Span().Cover(cs[len(cs)-1].Node.Span()), cs...)
}

// keep reports whether tok may follow a construct as a delimiter of an
// enclosing one. Such tokens are left in place during recovery.
func keep(kind token.Kind) bool {
	switch kind {
	case token.EOF, token.RParen, token.RBracket, token.RBrace, token.Semicolon,
		token.In, token.Then, token.Else, token.InterpolationEnd:
		return true
	}

	return false
}

type errorString string

func (e errorString) Error() string { return string(e) }
