package parser

import (
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

type stringForm struct {
	kind    tree.Kind
	content token.Kind
	end     token.Kind
}

var (
	quoted   = stringForm{tree.KindString, token.StringContent, token.StringEnd}
	indented = stringForm{tree.KindIndentedString, token.IndentedStringContent, token.IndentedStringEnd}
)

func (p *parser) parseString() *tree.Node { return p.parseStringForm(quoted) }

func (p *parser) parseIndentedString() *tree.Node { return p.parseStringForm(indented) }

// parseStringForm parses a string from its opening quote through its
// closing quote. Content and escapes are anonymous leaves; interpolations
// are string_interpolation nodes. A string left open at end of input
// becomes an error node reaching to the end of the source.
func (p *parser) parseStringForm(form stringForm) *tree.Node {
	open := p.leaf()
	cs := []tree.Child{open}

	for {
		switch kind := p.tok.Kind; {
		case kind == form.content, kind == token.EscapeSequence:
			cs = append(cs, p.leaf())

		case kind == token.InterpolationStart:
			cs = append(cs, tree.Child{Node: p.parseInterpolation()})

		case kind == form.end:
			cs = append(cs, p.leaf())

			return tree.New(form.kind, cs...)

		case kind == token.Error && p.tok.Len() == 0:
			// End of input inside the string. The lexer has already reset
			// its state, so nothing of the string remains to be read.
			tok, lexErr := p.tok, p.tokErr
			p.advance()
			p.reportLexical(tok, lexErr)

			return p.unterminated(open.Node, lexErr, cs)

		case p.tokErr != nil:
			cs = append(cs, tree.Child{Node: p.errorToken()})

		default:
			msg := "unterminated string"
			p.report(token.Span{Start: p.tok.Start, End: p.tok.Start}, ErrUnterminated, msg)

			return p.unterminated(open.Node, ErrUnterminated, cs)
		}
	}
}

func (p *parser) unterminated(open *tree.Node, err error, cs []tree.Child) *tree.Node {
	if err == nil {
		err = ErrUnterminated
	}

	end := len(p.src)
	if p.held != nil {
		end = cs[len(cs)-1].Node.Span().End
	}

	return tree.Error(err, token.Span{Start: open.Span().Start, End: end}, cs...)
}

// parseInterpolation parses `${ expr }`. Tokens between the expression and
// the closing brace are kept in an error node.
func (p *parser) parseInterpolation() *tree.Node {
	open := p.leaf()
	cs := []tree.Child{open, {Node: p.parseExpr(), Field: tree.FieldExpression}}

	if !p.at(token.InterpolationEnd) && !p.at(token.EOF) && p.tok.Len() > 0 {
		var junk []tree.Child

		first := p.tok
		p.report(first.Span, ErrUnexpectedToken, "unexpected "+describe(first)+" in interpolation")

		for !p.at(token.InterpolationEnd, token.EOF) && p.tok.Len() > 0 {
			tok, lexErr := p.tok, p.tokErr
			junk = append(junk, p.leaf())

			if lexErr != nil {
				p.reportLexical(tok, lexErr)
			}
		}

		if len(junk) > 0 {
			span := junk[0].Node.Span().Cover(junk[len(junk)-1].Node.Span())
			cs = append(cs, tree.Child{Node: tree.Error(ErrUnexpectedToken, span, junk...)})
		}
	}

	switch {
	case p.at(token.InterpolationEnd):
		cs = append(cs, p.leaf())

	case p.tok.Kind == token.Error && p.tokErr != nil:
		tok, lexErr := p.tok, p.tokErr
		p.advance()
		p.reportLexical(tok, lexErr)

		return tree.Error(lexErr, token.Span{Start: open.Node.Span().Start, End: tok.End}, cs...)

	default:
		cs = append(cs, p.expectClose(token.InterpolationEnd, open.Node))
	}

	return tree.New(tree.KindStringInterpolation, cs...)
}
