package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/lang/lexer"
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/log"
)

// Tokens prints the token stream of each source, one token per line:
//
//	1:3     identifier    "a"
//
// Tokens are lexed in the same modes the parser would use, so string
// content and interpolations are reported as such.
type Tokens struct {
	Trivia bool `help:"Include whitespace and comments." short:"t"`

	Sources []string `arg:"" help:"Source files or '-' for stdin." name:"source" optional:""`
}

// tokenPalette holds the styles of each token class.
type tokenPalette struct {
	pos, keyword, operator, literal, str, comment, invalid lipgloss.Style
}

func newTokenPalette(w io.Writer) tokenPalette {
	r := lipgloss.NewRenderer(w)

	return tokenPalette{
		pos:      r.NewStyle().Foreground(lipgloss.Color("8")),
		keyword:  r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		operator: r.NewStyle().Foreground(lipgloss.Color("6")),
		literal:  r.NewStyle().Foreground(lipgloss.Color("3")),
		str:      r.NewStyle().Foreground(lipgloss.Color("2")),
		comment:  r.NewStyle().Foreground(lipgloss.Color("8")).Italic(true),
		invalid:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (p tokenPalette) style(k token.Kind) lipgloss.Style {
	switch {
	case k == token.Error || k == token.Illegal:
		return p.invalid
	case k.IsTrivia():
		return p.comment
	case k.IsKeyword():
		return p.keyword
	case k.IsOperator():
		return p.operator
	case k.IsStructural():
		return p.str
	}

	return p.literal
}

// Run executes the tokens command. Lexical errors are printed in place and
// returned once every source is done.
func (t *Tokens) Run(ctx context.Context) error {
	srcs, err := openSources(t.Sources)
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	w := stdout(ctx)
	pal := newTokenPalette(w)

	var lexical int

	for _, src := range srcs {
		data, err := io.ReadAll(src)
		if err != nil {
			return lang.ErrRead.Wrap(err).With(slog.String("source", src.name))
		}

		n, err := t.write(w, pal, string(data))
		if err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("source", src.name))
		}

		lexical += n
	}

	if lexical > 0 {
		return ErrSyntax.With(slog.Int("lexical", lexical))
	}

	return nil
}

// write prints every token of src and returns the number of lexical errors.
func (t *Tokens) write(w io.Writer, pal tokenPalette, src string) (int, error) {
	file := token.NewFile(src)

	var (
		buf    strings.Builder
		errors int
	)

	for tok, err := range lexer.Tokenize(src, lexer.WithLogger(log.Default())) {
		if tok.Kind.IsTrivia() && !t.Trivia {
			continue
		}

		pos := file.Position(tok.Span.Start)
		loc := strconv.Itoa(pos.Line) + ":" + strconv.Itoa(pos.Column)
		style := pal.style(tok.Kind)

		fmt.Fprintf(&buf, "%s %s %s",
			pal.pos.Render(fmt.Sprintf("%-7s", loc)),
			style.Render(fmt.Sprintf("%-24s", tok.Kind.String())),
			strconv.Quote(tok.Text),
		)

		if err != nil {
			errors++

			buf.WriteString("  ")
			buf.WriteString(pal.invalid.Render(err.Error()))
		}

		buf.WriteByte('\n')
	}

	_, err := io.WriteString(w, buf.String())

	return errors, err
}
