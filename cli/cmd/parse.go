package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nixsyn/lang"
)

// OutputFormat selects how a syntax tree is printed.
type OutputFormat string

const (
	FormatSExpr OutputFormat = "sexpr"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// OutputFormats returns the names of every output format.
func OutputFormats() []string {
	return []string{string(FormatSExpr), string(FormatJSON), string(FormatYAML)}
}

// UnmarshalText implements encoding.TextUnmarshaler. An unknown name is
// rejected with the closest known name, if any.
func (f *OutputFormat) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))

	if slices.Contains(OutputFormats(), name) {
		*f = OutputFormat(name)

		return nil
	}

	err := ErrOutputFormat.With(
		slog.String("format", name),
		slog.String("valid", strings.Join(OutputFormats(), ",")),
	)

	if m := fuzzy.Find(name, OutputFormats()); len(m) > 0 {
		return err.Wrap(errors.New(`"` + name + `" (did you mean "` + m[0].Str + `"?)`))
	}

	return err.Wrap(errors.New(`"` + name + `"`))
}

// Parse prints the syntax tree of each source.
type Parse struct {
	Format OutputFormat `default:"sexpr" help:"Output format: sexpr, json or yaml." placeholder:"FORMAT" short:"f"`
	Indent int          `default:"2"     help:"Indent width, 0 for compact output."                         short:"i"`

	Sources []string `arg:"" help:"Source files or '-' for stdin." name:"source" optional:""`
}

// Run executes the parse command. Sources with syntax errors are still
// printed; the errors are returned once every source is done.
func (p *Parse) Run(ctx context.Context) error {
	w := stdout(ctx)

	return parseSources(ctx, p.Sources, func(ast *lang.AST, _ error) error {
		if err := p.write(ctx, w, ast); err != nil {
			return ErrWriteOutput.Wrap(err).With(
				slog.String("format", string(p.Format)),
				slog.String("source", ast.Name),
			)
		}

		return nil
	})
}

func (p *Parse) write(ctx context.Context, w io.Writer, ast *lang.AST) error {
	switch p.Format {
	case FormatJSON:
		return ast.FormatJSON(ctx, w, p.Indent)

	case FormatYAML:
		return ast.FormatYAML(ctx, w, p.Indent)

	case FormatSExpr, "":
		return ast.Format(ctx, w, p.Indent)
	}

	return ErrOutputFormat.With(slog.String("format", string(p.Format)))
}
