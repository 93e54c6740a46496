package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/nixsyn/lang"
)

// maxMatchText is the number of bytes of node text printed per match.
const maxMatchText = 60

// Query prints the nodes of each source for which an expr-lang predicate
// holds, one per line:
//
//	default.nix:2:7: binding (bindings) "name = \"hello\";"
//
// The predicate sees the fields kind, field, text, parent, depth, line,
// column, start, end, children, leaf and error. A bare node kind name is
// shorthand for kind == "<name>".
type Query struct {
	Predicate string `arg:"" help:"Node predicate, e.g. 'binding && depth < 4'." name:"predicate"`

	Tokens bool `help:"Also match anonymous punctuation and keyword leaves."`
	Limit  int  `help:"Stop after N matches per source, 0 for all." short:"n"`

	Sources []string `arg:"" help:"Source files or '-' for stdin." name:"source" optional:""`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) error {
	src := q.Predicate
	if !q.Tokens {
		src = `kind != "token" && (` + src + `)`
	}

	// Compile the predicate as given so errors point into what the user
	// wrote.
	if _, err := lang.Compile(q.Predicate); err != nil {
		return err
	}

	query, err := lang.Compile(src)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	return parseSources(ctx, q.Sources, func(ast *lang.AST, _ error) error {
		var buf strings.Builder

		n := 0

		for m := range ast.Query(ctx, query) {
			writeMatch(&buf, ast, m)

			if n++; q.Limit > 0 && n >= q.Limit {
				break
			}
		}

		if _, err := io.WriteString(w, buf.String()); err != nil {
			return ErrWriteOutput.Wrap(err).With(slog.String("source", ast.Name))
		}

		return nil
	})
}

func writeMatch(b *strings.Builder, ast *lang.AST, m lang.Match) {
	name := ast.Name
	if name == "" {
		name = "<input>"
	}

	fmt.Fprintf(b, "%s:%d:%d: %s", name, m.Position.Line, m.Position.Column, m.Node.Kind())

	if f := m.Field.String(); f != "" {
		b.WriteString(" (" + f + ")")
	}

	b.WriteByte(' ')
	b.WriteString(strconv.Quote(clip(ast.Text(m.Node), maxMatchText)))
	b.WriteByte('\n')
}

// clip returns the first line of s, shortened to at most n bytes.
func clip(s string, n int) string {
	line, _, more := strings.Cut(s, "\n")
	if len(line) > n {
		line, more = line[:n], true
	}

	if more {
		line += "..."
	}

	return line
}
