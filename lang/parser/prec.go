package parser

import (
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/lang/tree"
)

// Binding power of the operator levels, loosest first. Function
// definition, application and the postfix forms are handled by the grammar
// functions rather than this table.
const (
	precLowest         = iota
	precImplies        // ->
	precOr             // ||
	precAnd            // &&
	precEquality       // == !=
	precRelational     // < > <= >=
	precUpdate         // //
	precNot            // !
	precAdditive       // + -
	precMultiplicative // * /
	precConcat         // ++
)

type binaryOp struct {
	prec  int
	right bool
}

var binaryOps = map[token.Kind]binaryOp{
	token.Implies:      {precImplies, true},
	token.OrOr:         {precOr, false},
	token.And:          {precAnd, false},
	token.Equal:        {precEquality, false},
	token.NotEqual:     {precEquality, false},
	token.Less:         {precRelational, false},
	token.Greater:      {precRelational, false},
	token.LessEqual:    {precRelational, false},
	token.GreaterEqual: {precRelational, false},
	token.Update:       {precUpdate, true},
	token.Plus:         {precAdditive, false},
	token.Minus:        {precAdditive, false},
	token.Star:         {precMultiplicative, false},
	token.Slash:        {precMultiplicative, false},
	token.Concat:       {precConcat, true},
}

// isBinary reports whether kind is an infix operator.
func isBinary(kind token.Kind) bool {
	_, ok := binaryOps[kind]

	return ok
}

// parseBinary parses operators binding at least as tightly as minPrec.
func (p *parser) parseBinary(minPrec int) *tree.Node {
	var left *tree.Node

	if p.at(token.Not) {
		op := p.named(tree.KindToken, tree.FieldOperator)
		arg := p.nested(func() *tree.Node { return p.parseBinary(precNot + 1) })
		left = tree.New(tree.KindUnaryExpression, op, tree.Child{Node: arg, Field: tree.FieldArgument})
	} else {
		left = p.parseApplication()
	}

	for {
		op, ok := binaryOps[p.tok.Kind]
		if !ok || op.prec < minPrec {
			return left
		}

		opLeaf := p.named(tree.KindToken, tree.FieldOperator)

		next := op.prec + 1
		if op.right {
			next = op.prec
		}

		right := p.nested(func() *tree.Node { return p.parseBinary(next) })

		left = tree.New(tree.KindBinaryExpression,
			tree.Child{Node: left, Field: tree.FieldLeft},
			opLeaf,
			tree.Child{Node: right, Field: tree.FieldRight},
		)
	}
}
