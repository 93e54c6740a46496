package parser

import (
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// parseAttrset parses `{ bindings }` or `rec { bindings }`.
func (p *parser) parseAttrset(kind tree.Kind) *tree.Node {
	var cs []tree.Child

	if kind == tree.KindRecAttrset {
		cs = append(cs, p.leaf())

		if !p.at(token.LBrace) {
			cs = append(cs, tree.Child{Node: p.missing(ErrExpected, "'{' after 'rec'")})

			return tree.New(kind, cs...)
		}
	}

	open := p.leaf()
	cs = append(cs, open)
	cs = append(cs, p.parseBindings(token.RBrace)...)
	cs = append(cs, p.expectClose(token.RBrace, open.Node))

	return tree.New(kind, cs...)
}

// startsAttr reports whether kind can begin an attribute name.
func startsAttr(kind token.Kind) bool {
	switch kind {
	case token.Identifier, token.Or, token.StringStart, token.InterpolationStart:
		return true
	}

	return false
}

// parseBindings parses bindings and inherits until stop, a closing brace,
// the end of an interpolation or end of input. Each failed binding becomes
// a single error node.
func (p *parser) parseBindings(stop token.Kind) []tree.Child {
	var cs []tree.Child

	for !p.at(stop, token.RBrace, token.InterpolationEnd, token.EOF) {
		var n *tree.Node

		switch {
		case p.tokErr != nil, p.at(token.In):
			n = p.errorToken()
		case p.at(token.Inherit):
			n = p.parseInherit()
		case startsAttr(p.tok.Kind):
			n = p.parseBinding()
		default:
			n = p.recoverBinding(nil, ErrUnexpectedToken,
				"expected binding, found "+describe(p.tok))
		}

		cs = append(cs, tree.Child{Node: n, Field: tree.FieldBindings})
	}

	return cs
}

// parseBinding parses `attrpath = expr ;`.
func (p *parser) parseBinding() *tree.Node {
	path := tree.Child{Node: p.parseAttrpath(), Field: tree.FieldAttrpath}

	if !p.at(token.Assign) {
		return p.recoverBinding([]tree.Child{path}, ErrExpected,
			"expected '=', found "+describe(p.tok))
	}

	assign := p.leaf()
	expr := tree.Child{Node: p.parseExpr(), Field: tree.FieldExpression}

	if !p.at(token.Semicolon) {
		return p.recoverBinding([]tree.Child{path, assign, expr}, ErrExpected,
			"expected ';', found "+describe(p.tok))
	}

	return tree.New(tree.KindBinding, path, assign, expr, p.leaf())
}

// parseInherit parses `inherit [( expr )] attrs... ;`.
func (p *parser) parseInherit() *tree.Node {
	cs := []tree.Child{p.leaf()}
	from := false

	if p.at(token.LParen) {
		open := p.leaf()
		cs = append(cs,
			open,
			tree.Child{Node: p.parseExpr(), Field: tree.FieldFrom},
			p.expectClose(token.RParen, open.Node),
		)
		from = true
	}

	attrs := 0

	for startsAttr(p.tok.Kind) {
		cs = append(cs, tree.Child{Node: p.parseAttr(), Field: tree.FieldAttributes})
		attrs++
	}

	if from && attrs == 0 {
		span := token.Span{Start: p.tok.Start, End: p.tok.Start}
		msg := "expected attribute names after inherit from-clause, found " + describe(p.tok)
		p.report(span, ErrInheritFrom, msg)
		cs = append(cs, tree.Child{
			Node:  tree.Error(ErrInheritFrom.Wrap(errorString(msg)), span),
			Field: tree.FieldAttributes,
		})
	}

	if !p.at(token.Semicolon) {
		return p.recoverBinding(cs, ErrExpected, "expected ';', found "+describe(p.tok))
	}

	cs = append(cs, p.leaf())

	return tree.New(tree.KindInherit, cs...)
}

// parseAttrpath parses one or more dot-separated attribute names.
func (p *parser) parseAttrpath() *tree.Node {
	cs := []tree.Child{{Node: p.parseAttr(), Field: tree.FieldAttr}}

	for p.at(token.Dot) {
		cs = append(cs, p.leaf(), tree.Child{Node: p.parseAttr(), Field: tree.FieldAttr})
	}

	return tree.New(tree.KindAttrpath, cs...)
}

// parseAttr parses an identifier, a quoted string or an interpolation used
// as an attribute name.
func (p *parser) parseAttr() *tree.Node {
	switch p.tok.Kind {
	case token.Identifier, token.Or:
		return p.named(tree.KindIdentifier, tree.FieldNone).Node
	case token.StringStart:
		return p.parseString()
	case token.InterpolationStart:
		return p.parseInterpolation()
	}

	return p.missing(ErrExpected, "attribute name")
}

// recoverBinding reports a malformed binding and skips to the end of it: a
// semicolon at the same bracket depth, which is consumed, or a closing
// brace, 'in' or end of input, which are not. The partial binding and every
// skipped token are kept in the returned error node.
func (p *parser) recoverBinding(partial []tree.Child, sentinel *Error, msg string) *tree.Node {
	at := p.tok.Span
	if p.tok.Kind == token.EOF {
		at = token.Span{Start: p.tok.Start, End: p.tok.Start}
	}

	p.report(at, sentinel, msg)

	cs := partial
	depth := 0

loop:
	for !p.at(token.EOF) {
		tok, lexErr := p.tok, p.tokErr

		switch tok.Kind {
		case token.LParen, token.LBracket, token.LBrace, token.InterpolationStart:
			depth++

		case token.RBrace, token.InterpolationEnd:
			if depth == 0 {
				break loop
			}

			depth--

		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}

		case token.In:
			if depth == 0 {
				break loop
			}

		case token.Semicolon:
			if depth == 0 {
				cs = append(cs, p.leaf())

				break loop
			}
		}

		cs = append(cs, p.leaf())

		if lexErr != nil {
			p.reportLexical(tok, lexErr)
		}
	}

	err := sentinel.Wrap(errorString(msg))

	if len(cs) == 0 {
		return tree.Error(err, token.Span{Start: at.Start, End: at.Start})
	}

	return tree.Error(err, cs[0].Node.Span().Cover(cs[len(cs)-1].Node.Span()), cs...)
}
