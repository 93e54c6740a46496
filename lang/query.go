package lang

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// Query is a compiled node predicate.
//
// A query is an expr-lang boolean expression evaluated once per node. It
// sees the fields of [NodeEnv]. A bare node kind name is shorthand for a
// comparison with kind, so `binding && depth < 3` is the same as
// `kind == "binding" && depth < 3`.
type Query struct {
	program *vm.Program
	source  string
}

// NodeEnv is the environment a query is evaluated in.
type NodeEnv struct {
	Kind     string `expr:"kind"`
	Field    string `expr:"field"`
	Text     string `expr:"text"`
	Parent   string `expr:"parent"`
	Depth    int    `expr:"depth"`
	Line     int    `expr:"line"`
	Column   int    `expr:"column"`
	Start    int    `expr:"start"`
	End      int    `expr:"end"`
	Children int    `expr:"children"`
	Leaf     bool   `expr:"leaf"`
	Error    bool   `expr:"error"`
}

// envFields lists the names a query can refer to.
var envFields = []string{
	"kind", "field", "text", "parent", "depth", "line", "column",
	"start", "end", "children", "leaf", "error",
}

// QueryFields returns the names a query can refer to.
func QueryFields() []string { return slices.Clone(envFields) }

// Compile compiles a query. Unknown kind names compared against kind or
// parent are rejected with a suggestion.
func Compile(source string) (*Query, error) {
	check := &kindPatcher{}

	program, err := expr.Compile(source,
		expr.Env(NodeEnv{}),
		expr.AsBool(),
		expr.Patch(check),
	)

	if check.err != nil {
		return nil, check.err
	}

	if err != nil {
		return nil, ErrQuery.Wrap(err).With(slog.String("query", source))
	}

	return &Query{program: program, source: source}, nil
}

// String returns the query source.
func (q *Query) String() string { return q.source }

// Match is a node selected by a query.
type Match struct {
	Node     *tree.Node
	Parent   *tree.Node
	Position token.Position
	Depth    int
	Field    tree.Field
}

// Query yields every node of the tree, in preorder, for which q is true.
// Iteration stops early when ctx is canceled.
func (ast *AST) Query(ctx context.Context, q *Query) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		var machine vm.VM

		for c := range ast.Root.Walk() {
			if ctx.Err() != nil {
				return
			}

			env := ast.nodeEnv(c)

			out, err := machine.Run(q.program, env)
			if err != nil {
				ast.logger.TraceContext(ctx, "query failed",
					slog.String("query", q.source),
					slog.String("kind", env.Kind),
					slog.Any("error", err),
				)

				continue
			}

			if ok, _ := out.(bool); !ok {
				continue
			}

			m := Match{
				Node:     c.Node,
				Parent:   c.Parent,
				Position: ast.Position(c.Node.Span().Start),
				Depth:    c.Depth,
				Field:    c.Field,
			}

			if !yield(m) {
				return
			}
		}
	}
}

// QueryString compiles source and runs it against the tree.
func (ast *AST) QueryString(ctx context.Context, source string) ([]Match, error) {
	q, err := Compile(source)
	if err != nil {
		return nil, err
	}

	return slices.Collect(ast.Query(ctx, q)), nil
}

func (ast *AST) nodeEnv(c tree.Cursor) NodeEnv {
	span := c.Node.Span()
	pos := ast.Position(span.Start)

	env := NodeEnv{
		Kind:     c.Node.Kind().String(),
		Field:    c.Field.String(),
		Text:     ast.Text(c.Node),
		Depth:    c.Depth,
		Line:     pos.Line,
		Column:   pos.Column,
		Start:    span.Start,
		End:      span.End,
		Children: c.Node.Len(),
		Leaf:     c.Node.IsLeaf(),
		Error:    c.Node.IsError(),
	}

	if c.Parent != nil {
		env.Parent = c.Parent.Kind().String()
	}

	return env
}

// kindPatcher validates kind names in a query and rewrites bare kind
// names into kind comparisons.
type kindPatcher struct {
	err error
}

// Visit implements exprast.Visitor for kindPatcher.
func (p *kindPatcher) Visit(node *exprast.Node) {
	switch n := (*node).(type) {
	case *exprast.IdentifierNode:
		if slices.Contains(envFields, n.Value) {
			return
		}

		if _, ok := kindByName(n.Value); ok {
			exprast.Patch(node, &exprast.BinaryNode{
				Operator: "==",
				Left:     &exprast.IdentifierNode{Value: "kind"},
				Right:    &exprast.StringNode{Value: n.Value},
			})
		}

	case *exprast.BinaryNode:
		if !isKindOperand(n.Left) && !isKindOperand(n.Right) {
			return
		}

		switch n.Operator {
		case "==", "!=":
			p.checkNode(n.Left)
			p.checkNode(n.Right)

		case "in", "not in":
			if arr, ok := n.Right.(*exprast.ArrayNode); ok {
				for _, elem := range arr.Nodes {
					p.checkNode(elem)
				}
			}
		}
	}
}

func isKindOperand(n exprast.Node) bool {
	id, ok := n.(*exprast.IdentifierNode)

	return ok && (id.Value == "kind" || id.Value == "parent")
}

func (p *kindPatcher) checkNode(n exprast.Node) {
	s, ok := n.(*exprast.StringNode)
	if !ok || p.err != nil {
		return
	}

	if _, ok := kindByName(s.Value); ok {
		return
	}

	p.err = ErrUnknownKind.
		Wrap(didYouMean(s.Value, SuggestKind(s.Value))).
		With(slog.String("kind", s.Value))
}

// kindByName resolves the name of any node kind, including anonymous
// token leaves.
func kindByName(name string) (tree.Kind, bool) {
	if name == tree.KindToken.String() {
		return tree.KindToken, true
	}

	return tree.ParseKind(name)
}

// KindNames returns the names of every node kind.
func KindNames() []string {
	names := []string{tree.KindToken.String()}

	for k := range tree.Kinds() {
		names = append(names, k.String())
	}

	return names
}

// SuggestKind returns the kind name closest to name, or "" if nothing is
// close.
func SuggestKind(name string) string {
	matches := fuzzy.Find(strings.ToLower(name), KindNames())
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

type suggestion struct {
	name, best string
}

func didYouMean(name, best string) error { return suggestion{name, best} }

func (s suggestion) Error() string {
	if s.best == "" {
		return `"` + s.name + `"`
	}

	return `"` + s.name + `" (did you mean "` + s.best + `"?)`
}
