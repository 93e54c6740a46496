package tree

import (
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/ardnew/nixsyn/lang/token"
)

// Tree is a parsed document: the syntax tree, the source it was parsed
// from, and the trivia between tokens. A Tree is never modified after it is
// built and may be shared between goroutines.
type Tree struct {
	Root   *Node
	file   func() *token.File
	Source string
	Trivia []token.Token
}

// NewTree assembles a tree. Trivia must be sorted by offset.
func NewTree(root *Node, src string, trivia []token.Token) *Tree {
	return &Tree{
		Root:   root,
		Source: src,
		Trivia: trivia,
		file:   sync.OnceValue(func() *token.File { return token.NewFile(src) }),
	}
}

// Expression returns the top-level expression, or nil for an empty document.
func (t *Tree) Expression() *Node { return t.Root.Child(FieldExpression) }

// Text returns the source text covered by n.
func (t *Tree) Text(n *Node) string { return n.Text(t.Source) }

// Position converts an offset into a line and column.
func (t *Tree) Position(offset int) token.Position { return t.file().Position(offset) }

// File returns the line index of the source.
func (t *Tree) File() *token.File { return t.file() }

// HasError reports whether the tree contains any error node.
func (t *Tree) HasError() bool { return t.Root.HasError() }

// Errors returns every error node in preorder. Nested error nodes are
// reported individually.
func (t *Tree) Errors() []*Node {
	var out []*Node

	if !t.Root.HasError() {
		return nil
	}

	for n := range t.Root.Descendants() {
		if n.IsError() {
			out = append(out, n)
		}
	}

	return out
}

// Tokens yields the leaf tokens of the tree in source order. Trivia is not
// included.
func (t *Tree) Tokens() iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		for leaf := range t.Root.Leaves() {
			if !yield(*leaf.token) {
				return
			}
		}
	}
}

// TriviaIn returns the trivia tokens that lie entirely within span.
func (t *Tree) TriviaIn(span token.Span) []token.Token {
	i := sort.Search(len(t.Trivia), func(i int) bool {
		return t.Trivia[i].Start >= span.Start
	})

	j := i
	for j < len(t.Trivia) && t.Trivia[j].End <= span.End {
		j++
	}

	return t.Trivia[i:j]
}

// TriviaAt returns the trivia token containing offset.
func (t *Tree) TriviaAt(offset int) (token.Token, bool) {
	i := sort.Search(len(t.Trivia), func(i int) bool {
		return t.Trivia[i].End > offset
	})

	if i < len(t.Trivia) && t.Trivia[i].Start <= offset {
		return t.Trivia[i], true
	}

	return token.Token{}, false
}

// NodeAt returns the deepest node whose span contains offset.
func (t *Tree) NodeAt(offset int) *Node {
	n := t.Root
	if !n.span.Contains(offset) && offset != n.span.End {
		return nil
	}

	for {
		var next *Node

		for _, c := range n.children {
			if c.Node.span.Contains(offset) {
				next = c.Node

				break
			}
		}

		if next == nil {
			return n
		}

		n = next
	}
}

// Reconstruct concatenates leaf tokens and trivia in offset order. For every
// tree produced by the parser the result equals Source.
func (t *Tree) Reconstruct() string {
	var b strings.Builder

	b.Grow(len(t.Source))

	trivia := t.Trivia

	for tok := range t.Tokens() {
		for len(trivia) > 0 && trivia[0].Start < tok.Start {
			b.WriteString(trivia[0].Text)
			trivia = trivia[1:]
		}

		b.WriteString(tok.Text)
	}

	for _, tr := range trivia {
		b.WriteString(tr.Text)
	}

	return b.String()
}
