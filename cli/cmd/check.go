package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/log"
)

// Check reports the syntax errors of each source with the offending line
// and a caret under the column:
//
//	default.nix:1:12: error: expected '=', found '2'
//	  1 | { a = 1; b 2; c = 3; }
//	                 ^
type Check struct {
	Quiet bool `help:"Print only the summary." short:"q"`

	Sources []string `arg:"" help:"Source files or '-' for stdin." name:"source" optional:""`
}

// Run executes the check command. It fails if any source has errors.
func (c *Check) Run(ctx context.Context) error {
	w := stdout(ctx)
	r := lipgloss.NewRenderer(w)

	var (
		files, clean, diags int
		out                 strings.Builder
	)

	err := parseSources(ctx, c.Sources, func(ast *lang.AST, perr error) error {
		files++

		var pe *lang.ParseError
		if !errors.As(perr, &pe) {
			clean++

			log.DebugContext(ctx, "check passed",
				slog.String("source", ast.Name),
				slog.Int("tokens", ast.Stats.Tokens),
				slog.Int("nodes", ast.Stats.Nodes),
			)

			return nil
		}

		diags += len(pe.Diagnostics)

		if !c.Quiet {
			writeSnippets(&out, r, ast.Name, pe.Snippets())
		}

		return nil
	})

	out.WriteString(summary(r, files, clean, diags))

	if _, werr := io.WriteString(w, out.String()); werr != nil {
		return ErrWriteOutput.Wrap(werr)
	}

	return err
}

func writeSnippets(b *strings.Builder, r *lipgloss.Renderer, name string, snips []lang.Snippet) {
	loc := r.NewStyle().Bold(true)
	label := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	ctx := r.NewStyle().Foreground(lipgloss.Color("8"))

	for _, s := range snips {
		kind := "error"
		if s.Lexical {
			kind = "lexical error"
		}

		b.WriteString(loc.Render(name + ":" + strconv.Itoa(s.Line) + ":" + strconv.Itoa(s.Column) + ":"))
		b.WriteByte(' ')
		b.WriteString(label.Render(kind + ":"))
		b.WriteByte(' ')
		b.WriteString(s.Message)
		b.WriteByte('\n')

		for line := range strings.Lines(s.Context) {
			b.WriteString(ctx.Render(strings.TrimSuffix(line, "\n")))
			b.WriteByte('\n')
		}
	}
}

func summary(r *lipgloss.Renderer, files, clean, diags int) string {
	style := r.NewStyle().Foreground(lipgloss.Color("2"))
	if diags > 0 {
		style = r.NewStyle().Foreground(lipgloss.Color("1"))
	}

	return style.Render(
		strconv.Itoa(files)+" checked, "+
			strconv.Itoa(clean)+" clean, "+
			strconv.Itoa(diags)+" errors",
	) + "\n"
}
