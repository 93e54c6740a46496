package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/readahead"

	"github.com/ardnew/nixsyn/lang/parser"
	"github.com/ardnew/nixsyn/lang/tree"
	"github.com/ardnew/nixsyn/log"
)

// AST is a parsed Nix document.
//
// The embedded tree is immutable and may be shared with other ASTs parsed
// from the same source (see [WithCache]).
type AST struct {
	*tree.Tree

	// Name identifies the source in diagnostics, usually a file path.
	Name  string
	Stats parser.Stats

	diags  parser.ErrorList
	opts   options    // configuration options
	logger log.Logger // structured logger (outside options, doesn't affect cache)
}

// DefaultMaxDepth is the default maximum nesting depth.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = parser.DefaultMaxDepth

// options holds the settings that determine the shape of the tree.
// Every field takes part in the cache key.
type options struct {
	mode     parser.Mode
	maxDepth int
	cache    bool
}

// Option configures parsing.
type Option func(*AST)

// WithStrict selects strict parsing: the first error stops the parse.
// The default is tolerant parsing, which recovers at binding boundaries.
func WithStrict(strict bool) Option {
	return func(ast *AST) {
		ast.opts.mode = parser.ModeTolerant
		if strict {
			ast.opts.mode = parser.ModeStrict
		}
	}
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) Option {
	return func(ast *AST) {
		ast.opts.maxDepth = depth
	}
}

// WithCache enables or disables the shared parse cache. It is enabled by
// default.
func WithCache(enable bool) Option {
	return func(ast *AST) {
		ast.opts.cache = enable
	}
}

// WithName sets the name reported in diagnostics.
func WithName(name string) Option {
	return func(ast *AST) {
		ast.Name = name
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(ast *AST) {
		ast.logger = logger
	}
}

// applyDefaults sets default option values on an AST.
func applyDefaults(ast *AST) {
	ast.opts.maxDepth = DefaultMaxDepth
	ast.opts.cache = true
}

// applyOptions applies functional options to an AST.
func applyOptions(ast *AST, opts ...Option) {
	for _, opt := range opts {
		opt(ast)
	}
}

// Diagnostics returns every problem found while parsing.
func (ast *AST) Diagnostics() parser.ErrorList { return ast.diags }

// Err returns the [ParseError] of the parse, or nil.
func (ast *AST) Err() error {
	if len(ast.diags) == 0 {
		return nil
	}

	return NewParseError(ast.diags, ast.Name, ast.Source)
}

// ParseString parses source and returns the AST.
//
// The AST is returned even when the source has errors. The error is then a
// [*ParseError] describing every diagnostic.
func ParseString(ctx context.Context, source string, opts ...Option) (*AST, error) {
	ast := new(AST)

	applyDefaults(ast)
	applyOptions(ast, opts...)

	ast.logger.TraceContext(ctx,
		"parse start",
		slog.String("name", ast.Name),
		slog.Int("source_length", len(source)),
		slog.Bool("cache", ast.opts.cache),
	)

	start := time.Now()

	if ast.opts.cache {
		parseCached(ctx, ast, source)
	} else {
		parse(ast, source)
	}

	ast.logger.DebugContext(ctx,
		"parse complete",
		slog.String("name", ast.Name),
		slog.Int("tokens", ast.Stats.Tokens),
		slog.Int("nodes", ast.Stats.Nodes),
		slog.Int("errors", len(ast.diags)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return ast, ast.Err()
}

// parse runs the parser with the options of ast.
func parse(ast *AST, source string) {
	t, err := parser.Parse(source,
		parser.WithMode(ast.opts.mode),
		parser.WithMaxDepth(ast.opts.maxDepth),
		parser.WithLogger(ast.logger),
		parser.WithStats(&ast.Stats),
	)

	ast.Tree = t

	var list parser.ErrorList
	if errors.As(err, &list) {
		ast.diags = list
	}
}

// ParseReader parses input from an io.Reader.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*AST, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseFile parses the file at path. The path is used as the name in
// diagnostics unless [WithName] overrides it.
func ParseFile(ctx context.Context, path string, opts ...Option) (*AST, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.Wrap(err).
			With(slog.String("path", path))
	}
	defer f.Close()

	return ParseReader(ctx, f, append([]Option{WithName(path)}, opts...)...)
}
