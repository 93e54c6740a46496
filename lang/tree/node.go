package tree

import (
	"iter"

	"github.com/ardnew/nixsyn/lang/token"
)

// Node is an immutable syntax tree node. Leaves wrap exactly one token;
// interior nodes hold an ordered list of field-labeled children.
//
// Nodes hold no parent reference. Use [Node.Walk] to visit nodes together
// with their parents.
type Node struct {
	err      error
	token    *token.Token
	children []Child
	span     token.Span
	kind     Kind
	hasError bool
}

// Child is a field-labeled edge to a child node. Anonymous children such as
// punctuation have [FieldNone].
type Child struct {
	Node  *Node
	Field Field
}

// New returns an interior node whose span covers its children.
// Nil child nodes are dropped.
func New(kind Kind, children ...Child) *Node {
	n := &Node{kind: kind, children: compact(children)}

	if len(n.children) > 0 {
		n.span = token.Span{
			Start: n.children[0].Node.span.Start,
			End:   n.children[len(n.children)-1].Node.span.End,
		}
	}

	n.hasError = childError(n.children)

	return n
}

// NewSpan returns an interior node with an explicit span, for nodes that may
// extend over trivia or be empty.
func NewSpan(kind Kind, span token.Span, children ...Child) *Node {
	n := &Node{kind: kind, span: span, children: compact(children)}
	n.hasError = childError(n.children)

	return n
}

// Leaf returns a node wrapping tok.
func Leaf(kind Kind, tok token.Token) *Node {
	return &Node{kind: kind, span: tok.Span, token: &tok}
}

// Error returns an error node spanning span. The children, if any, are the
// tokens or partial nodes the error swallowed.
func Error(err error, span token.Span, children ...Child) *Node {
	return &Node{
		kind:     KindError,
		span:     span,
		err:      err,
		children: compact(children),
		hasError: true,
	}
}

func compact(children []Child) []Child {
	out := children[:0:0]

	for _, c := range children {
		if c.Node != nil {
			out = append(out, c)
		}
	}

	return out
}

func childError(children []Child) bool {
	for _, c := range children {
		if c.Node.hasError {
			return true
		}
	}

	return false
}

func (n *Node) Kind() Kind { return n.kind }

func (n *Node) Span() token.Span { return n.span }

// Token returns the token of a leaf.
func (n *Node) Token() (token.Token, bool) {
	if n.token == nil {
		return token.Token{}, false
	}

	return *n.token, true
}

// Err returns the error recorded on an error node.
func (n *Node) Err() error { return n.err }

func (n *Node) IsLeaf() bool  { return n.token != nil }
func (n *Node) IsError() bool { return n.kind == KindError }

// HasError reports whether n or any descendant is an error node.
func (n *Node) HasError() bool { return n.hasError }

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// At returns the i'th child.
func (n *Node) At(i int) Child { return n.children[i] }

// Child returns the first child labeled f, or nil.
func (n *Node) Child(f Field) *Node {
	for _, c := range n.children {
		if c.Field == f {
			return c.Node
		}
	}

	return nil
}

// Children returns every child labeled f, in order.
func (n *Node) Children(f Field) []*Node {
	var out []*Node

	for _, c := range n.children {
		if c.Field == f {
			out = append(out, c.Node)
		}
	}

	return out
}

// All yields every child with its field label.
func (n *Node) All() iter.Seq2[Field, *Node] {
	return func(yield func(Field, *Node) bool) {
		for _, c := range n.children {
			if !yield(c.Field, c.Node) {
				return
			}
		}
	}
}

// NamedChildren yields the children that are syntax nodes, skipping
// anonymous token leaves.
func (n *Node) NamedChildren() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.children {
			if c.Node.kind.Named() && !yield(c.Node) {
				return
			}
		}
	}
}

// Descendants yields n and every node below it in preorder.
func (n *Node) Descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.preorder(yield)
	}
}

func (n *Node) preorder(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}

	for _, c := range n.children {
		if !c.Node.preorder(yield) {
			return false
		}
	}

	return true
}

// Leaves yields the token leaves below n in source order.
func (n *Node) Leaves() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for d := range n.Descendants() {
			if d.token != nil && !yield(d) {
				return
			}
		}
	}
}

// Text returns the source text covered by n.
func (n *Node) Text(src string) string {
	if n.span.End > len(src) || n.span.Start > n.span.End {
		return ""
	}

	return src[n.span.Start:n.span.End]
}

// Cursor locates a node during a walk.
type Cursor struct {
	Node   *Node
	Parent *Node
	Depth  int
	Field  Field
}

// Walk yields a cursor for n and every node below it in preorder.
func (n *Node) Walk() iter.Seq[Cursor] {
	return func(yield func(Cursor) bool) {
		walk(Cursor{Node: n}, yield)
	}
}

func walk(c Cursor, yield func(Cursor) bool) bool {
	if !yield(c) {
		return false
	}

	for _, ch := range c.Node.children {
		next := Cursor{Node: ch.Node, Parent: c.Node, Depth: c.Depth + 1, Field: ch.Field}
		if !walk(next, yield) {
			return false
		}
	}

	return true
}
