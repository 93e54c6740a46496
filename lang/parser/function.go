package parser

import (
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// isFormals looks past the current '{' to decide between a formals pattern
// and an attribute set. The lexer is rewound afterwards.
func (p *parser) isFormals() bool {
	if p.halted {
		return false
	}

	cp := p.lx.Checkpoint()
	defer func() { _ = p.lx.Restore(cp) }()

	next := func() token.Kind {
		tok, _ := p.lx.Next(p.lx.Hint())

		return tok.Kind
	}

	switch next() {
	case token.Ellipsis:
		return true

	case token.RBrace:
		k := next()

		return k == token.Colon || k == token.At

	case token.Identifier, token.Or:
		switch next() {
		case token.Comma, token.Question:
			return true
		case token.RBrace:
			k := next()

			return k == token.Colon || k == token.At
		}
	}

	return false
}

// parseFunction parses `param: body`, `formals [@ name]: body` or
// `name @ formals: body`.
func (p *parser) parseFunction() *tree.Node {
	var cs []tree.Child

	if p.at(token.LBrace) {
		cs = append(cs, tree.Child{Node: p.parseFormals(), Field: tree.FieldFormals})

		if p.at(token.At) {
			cs = append(cs, p.leaf(), p.universal())
		}
	} else {
		name := p.tok
		p.advance()

		ident := tree.Leaf(tree.KindIdentifier, name)

		if p.at(token.At) {
			cs = append(cs, tree.Child{Node: ident, Field: tree.FieldUniversal}, p.leaf())

			if p.at(token.LBrace) {
				cs = append(cs, tree.Child{Node: p.parseFormals(), Field: tree.FieldFormals})
			} else {
				cs = append(cs, tree.Child{
					Node:  p.missing(ErrMalformedFormals, "'{' after '@'"),
					Field: tree.FieldFormals,
				})
			}
		} else {
			cs = append(cs, tree.Child{Node: ident, Field: tree.FieldParameter})
		}
	}

	cs = append(cs, p.expect(token.Colon))
	cs = append(cs, tree.Child{Node: p.parseExpr(), Field: tree.FieldBody})

	return tree.New(tree.KindFunctionExpression, cs...)
}

func (p *parser) universal() tree.Child {
	if p.at(token.Identifier, token.Or) {
		return p.named(tree.KindIdentifier, tree.FieldUniversal)
	}

	return tree.Child{Node: p.missing(ErrExpected, "name after '@'"), Field: tree.FieldUniversal}
}

// parseFormals parses `{ name [? default], ..., [...] }`. A '...' that is
// repeated or followed by another formal is kept inside an error node.
func (p *parser) parseFormals() *tree.Node {
	open := p.leaf()
	cs := []tree.Child{open}
	ellipsis := false

	for !p.at(token.RBrace, token.InterpolationEnd, token.EOF) {
		switch {
		case p.at(token.Ellipsis) && p.tokErr == nil:
			tok := p.tok

			if ellipsis {
				cs = append(cs, tree.Child{
					Node: tree.Error(ErrMalformedFormals, tok.Span, p.leaf()),
				})
				p.report(tok.Span, ErrMalformedFormals, "duplicate '...' in formals")
			} else {
				cs = append(cs, p.named(tree.KindToken, tree.FieldEllipses))
			}

			ellipsis = true

		case p.at(token.Identifier, token.Or):
			f := p.parseFormal()

			if ellipsis {
				p.report(f.Span(), ErrMalformedFormals, "'...' must be the last formal")
				f = tree.Error(ErrMalformedFormals, f.Span(), tree.Child{Node: f})
			}

			cs = append(cs, tree.Child{Node: f, Field: tree.FieldFormal})

		default:
			cs = append(cs, tree.Child{Node: p.errorToken()})

			continue
		}

		switch {
		case p.at(token.Comma):
			cs = append(cs, p.leaf())
		case !p.at(token.RBrace, token.InterpolationEnd, token.EOF):
			cs = append(cs, tree.Child{Node: p.missing(ErrExpected, "',' between formals")})
		}
	}

	cs = append(cs, p.expectClose(token.RBrace, open.Node))

	return tree.New(tree.KindFormals, cs...)
}

func (p *parser) parseFormal() *tree.Node {
	cs := []tree.Child{p.named(tree.KindIdentifier, tree.FieldName)}

	if p.at(token.Question) {
		cs = append(cs, p.leaf(), tree.Child{Node: p.parseExpr(), Field: tree.FieldDefault})
	}

	return tree.New(tree.KindFormal, cs...)
}
