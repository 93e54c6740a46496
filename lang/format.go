package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/nixsyn/lang/tree"
)

// Format writes the tree as an S-expression. Named nodes are printed with
// their field labels; named leaves include their source text. Anonymous
// punctuation is omitted unless it fills a field, such as an operator.
//
// With indent > 0 every child starts on its own line.
func (ast *AST) Format(_ context.Context, w io.Writer, indent int) error {
	var buf strings.Builder

	ast.formatNode(&buf, ast.Root, tree.FieldNone, indent, 0)
	buf.WriteByte('\n')

	if _, err := io.WriteString(w, buf.String()); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// SExpr returns the tree as a single-line S-expression.
func (ast *AST) SExpr() string {
	var buf strings.Builder

	ast.formatNode(&buf, ast.Root, tree.FieldNone, 0, 0)

	return buf.String()
}

func (ast *AST) formatNode(buf *strings.Builder, n *tree.Node, f tree.Field, indent, depth int) {
	if f != tree.FieldNone {
		buf.WriteString(f.String())
		buf.WriteString(": ")
	}

	if !n.Kind().Named() {
		buf.WriteString(strconv.Quote(ast.Text(n)))

		return
	}

	buf.WriteByte('(')
	buf.WriteString(n.Kind().String())

	if n.IsLeaf() {
		buf.WriteByte(' ')
		buf.WriteString(strconv.Quote(ast.Text(n)))
	}

	for cf, c := range n.All() {
		if !c.Kind().Named() && cf == tree.FieldNone {
			continue
		}

		if indent > 0 {
			buf.WriteByte('\n')
			buf.WriteString(strings.Repeat(" ", (depth+1)*indent))
		} else {
			buf.WriteByte(' ')
		}

		ast.formatNode(buf, c, cf, indent, depth+1)
	}

	buf.WriteByte(')')
}

// FormatJSON writes the tree as JSON to the writer.
func (ast *AST) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ast, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ast)
	}

	if err != nil {
		return ErrFormat.Wrap(err)
	}

	if _, err = fmt.Fprintln(w, string(jsonData)); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}

// FormatYAML writes the tree as YAML to the writer.
func (ast *AST) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	// Marshal to YAML
	yamlData, err := yaml.MarshalContext(
		ctx,
		ast.ToMap(),
		opts...)
	if err != nil {
		return ErrFormat.Wrap(err)
	}

	if _, err = fmt.Fprint(w, string(yamlData)); err != nil {
		return ErrFormat.Wrap(err)
	}

	return nil
}
