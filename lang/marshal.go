package lang

import (
	"encoding/json"

	"github.com/ardnew/nixsyn/lang/tree"
)

// MarshalJSON implements json.Marshaler for AST.
func (ast *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(ast.ToMap())
}

// ToMap converts the tree to nested maps of native Go values, suitable for
// generic encoders.
//
// Every node becomes a map with "kind", "start" and "end". Leaves add
// "text", error nodes add "error", and interior nodes list their children
// under "children", each with its "field" when it has one. Anonymous
// punctuation without a field is left out.
func (ast *AST) ToMap() map[string]any {
	return ast.nodeMap(ast.Root, tree.FieldNone)
}

func (ast *AST) nodeMap(n *tree.Node, f tree.Field) map[string]any {
	span := n.Span()

	m := map[string]any{
		"kind":  n.Kind().String(),
		"start": span.Start,
		"end":   span.End,
	}

	if f != tree.FieldNone {
		m["field"] = f.String()
	}

	if n.IsLeaf() {
		m["text"] = ast.Text(n)
	}

	if err := n.Err(); err != nil {
		m["error"] = err.Error()
	}

	var children []any

	for cf, c := range n.All() {
		if !c.Kind().Named() && cf == tree.FieldNone {
			continue
		}

		children = append(children, ast.nodeMap(c, cf))
	}

	if len(children) > 0 {
		m["children"] = children
	}

	return m
}
