package parser

import (
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// parseExpr parses a full expression, including the forms that extend as
// far right as possible.
func (p *parser) parseExpr() *tree.Node {
	if !p.enter() {
		return p.tooDeep()
	}
	defer p.leave()

	switch p.tok.Kind {
	case token.Identifier, token.Or:
		if next := p.peek().Kind; next == token.Colon || next == token.At {
			return p.parseFunction()
		}

	case token.LBrace:
		if p.isFormals() {
			return p.parseFunction()
		}

	case token.Assert:
		return p.parseAssert()

	case token.With:
		return p.parseWith()

	case token.Let:
		return p.parseLet()

	case token.If:
		return p.parseIf()
	}

	return p.parseBinary(precLowest)
}

func (p *parser) parseIf() *tree.Node {
	kw := p.leaf()
	cond := p.parseExpr()
	then := p.expect(token.Then)
	cons := p.parseExpr()
	els := p.expect(token.Else)
	alt := p.parseExpr()

	return tree.New(tree.KindIfExpression,
		kw,
		tree.Child{Node: cond, Field: tree.FieldCondition},
		then,
		tree.Child{Node: cons, Field: tree.FieldConsequence},
		els,
		tree.Child{Node: alt, Field: tree.FieldAlternative},
	)
}

func (p *parser) parseAssert() *tree.Node {
	kw := p.leaf()
	cond := p.parseExpr()
	semi := p.expect(token.Semicolon)
	body := p.parseExpr()

	return tree.New(tree.KindAssertExpression,
		kw,
		tree.Child{Node: cond, Field: tree.FieldCondition},
		semi,
		tree.Child{Node: body, Field: tree.FieldBody},
	)
}

func (p *parser) parseWith() *tree.Node {
	kw := p.leaf()
	env := p.parseExpr()
	semi := p.expect(token.Semicolon)
	body := p.parseExpr()

	return tree.New(tree.KindWithExpression,
		kw,
		tree.Child{Node: env, Field: tree.FieldEnvironment},
		semi,
		tree.Child{Node: body, Field: tree.FieldBody},
	)
}

func (p *parser) parseLet() *tree.Node {
	cs := []tree.Child{p.leaf()}
	cs = append(cs, p.parseBindings(token.In)...)
	cs = append(cs, p.expect(token.In))
	cs = append(cs, tree.Child{Node: p.parseExpr(), Field: tree.FieldBody})

	return tree.New(tree.KindLetExpression, cs...)
}

// startsTerm reports whether kind can begin an application argument or a
// list element.
func startsTerm(kind token.Kind) bool {
	switch kind {
	case token.Identifier, token.Integer, token.Float, token.Boolean, token.Null,
		token.Path, token.HPath, token.SPath, token.URI,
		token.StringStart, token.IndentedStringStart,
		token.LParen, token.LBracket, token.LBrace, token.Rec:
		return true
	}

	return false
}

// parseApplication parses juxtaposed terms as left-associative function
// application.
func (p *parser) parseApplication() *tree.Node {
	fn := p.parsePostfix(true)

	for !p.halted && startsTerm(p.tok.Kind) {
		arg := p.parsePostfix(true)
		fn = tree.New(tree.KindApplication,
			tree.Child{Node: fn, Field: tree.FieldFunction},
			tree.Child{Node: arg, Field: tree.FieldArgument},
		)
	}

	return fn
}

// parsePostfix parses a term followed by any chain of attribute selections
// and, when hasAttr is set, attribute tests.
func (p *parser) parsePostfix(hasAttr bool) *tree.Node {
	n := p.parseNegate()

	for {
		switch {
		case p.at(token.Dot):
			cs := []tree.Child{
				{Node: n, Field: tree.FieldExpression},
				p.leaf(),
				{Node: p.parseAttrpath(), Field: tree.FieldAttrpath},
			}

			if p.at(token.Or) {
				def := p.leaf()
				cs = append(cs, def, tree.Child{
					Node:  p.nested(func() *tree.Node { return p.parsePostfix(false) }),
					Field: tree.FieldDefault,
				})
			}

			n = tree.New(tree.KindSelect, cs...)

		case hasAttr && p.at(token.Question):
			n = tree.New(tree.KindHasAttr,
				tree.Child{Node: n, Field: tree.FieldExpression},
				p.leaf(),
				tree.Child{Node: p.parseAttrpath(), Field: tree.FieldAttrpath},
			)

		default:
			return n
		}
	}
}

// parseNegate parses unary minus, the tightest binding operator.
func (p *parser) parseNegate() *tree.Node {
	if !p.at(token.Minus) {
		return p.parsePrimary()
	}

	if !p.enter() {
		return p.tooDeep()
	}
	defer p.leave()

	op := p.named(tree.KindToken, tree.FieldOperator)

	return tree.New(tree.KindUnaryExpression, op,
		tree.Child{Node: p.parseNegate(), Field: tree.FieldArgument})
}

// parsePrimary parses a literal, a bracketed form or a name.
func (p *parser) parsePrimary() *tree.Node {
	switch p.tok.Kind {
	case token.Identifier, token.Or:
		return p.named(tree.KindIdentifier, tree.FieldNone).Node
	case token.Integer:
		return p.named(tree.KindInteger, tree.FieldNone).Node
	case token.Float:
		return p.named(tree.KindFloat, tree.FieldNone).Node
	case token.Boolean:
		return p.named(tree.KindBoolean, tree.FieldNone).Node
	case token.Null:
		return p.named(tree.KindNull, tree.FieldNone).Node
	case token.Path, token.HPath, token.SPath:
		return p.named(tree.KindPath, tree.FieldNone).Node
	case token.URI:
		return p.named(tree.KindURI, tree.FieldNone).Node
	case token.StringStart:
		return p.parseString()
	case token.IndentedStringStart:
		return p.parseIndentedString()
	case token.LParen:
		return p.parseParenthesized()
	case token.LBracket:
		return p.parseList()
	case token.LBrace:
		return p.parseAttrset(tree.KindAttrset)
	case token.Rec:
		return p.parseAttrset(tree.KindRecAttrset)

	case token.If, token.Let, token.With, token.Assert:
		start := p.tok
		n := p.parseExpr()
		msg := "'" + start.Text + "' expression must be parenthesized here"
		p.report(n.Span(), ErrParenthesize, msg)

		return tree.Error(ErrParenthesize.Wrap(errorString(msg)), n.Span(), tree.Child{Node: n})

	case token.InterpolationStart:
		n := p.parseInterpolation()
		msg := "interpolation outside of a string or attribute name"
		p.report(n.Span(), ErrUnexpectedToken, msg)

		return tree.Error(ErrUnexpectedToken.Wrap(errorString(msg)), n.Span(), tree.Child{Node: n})
	}

	if p.tokErr == nil && keep(p.tok.Kind) {
		return p.missing(ErrExpected, "expression")
	}

	return p.errorToken()
}

func (p *parser) parseParenthesized() *tree.Node {
	open := p.leaf()
	expr := p.parseExpr()
	closing := p.expectClose(token.RParen, open.Node)

	return tree.New(tree.KindParenthesizedExpression,
		open,
		tree.Child{Node: expr, Field: tree.FieldExpression},
		closing,
	)
}

// parseList parses a bracketed sequence of terms. An infix operator between
// elements is reported and the operator with its right operand is kept in an
// error node.
func (p *parser) parseList() *tree.Node {
	if !p.enter() {
		return p.tooDeep()
	}
	defer p.leave()

	open := p.leaf()
	cs := []tree.Child{open}

	for !p.at(token.RBracket) && !p.at(token.EOF) {
		switch kind := p.tok.Kind; {
		case startsTerm(kind), kind == token.Or,
			kind == token.If, kind == token.Let, kind == token.With, kind == token.Assert:
			cs = append(cs, tree.Child{Node: p.parsePostfix(true), Field: tree.FieldElements})

		case isBinary(kind) && p.tokErr == nil:
			cs = append(cs, tree.Child{Node: p.listOperator()})

		case keep(kind) && p.tokErr == nil:
			return tree.New(tree.KindList, append(cs, p.expectClose(token.RBracket, open.Node))...)

		default:
			cs = append(cs, tree.Child{Node: p.errorToken()})
		}
	}

	return tree.New(tree.KindList, append(cs, p.expectClose(token.RBracket, open.Node))...)
}

func (p *parser) listOperator() *tree.Node {
	op := p.tok
	msg := "operator '" + op.Text + "' in list element must be parenthesized"

	cs := []tree.Child{p.leaf()}
	p.report(op.Span, ErrListOperator, msg)

	if startsTerm(p.tok.Kind) {
		cs = append(cs, tree.Child{Node: p.parsePostfix(true)})
	}

	span := op.Span.Cover(cs[len(cs)-1].Node.Span())

	return tree.Error(ErrListOperator.Wrap(errorString(msg)), span, cs...)
}
