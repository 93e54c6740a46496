// Package parser builds a concrete syntax tree for a Nix expression.
//
// The grammar is recursive descent with a precedence table for the infix
// operators. Loosest to tightest:
//
//	x: body, assert, with, let, if
//	->                (right)
//	||
//	&&
//	== !=
//	< > <= >=
//	//                (right)
//	!                 (prefix)
//	+ -
//	* /
//	++                (right)
//	f x               (application)
//	e.a.b or d, e ? a (selection and attribute test)
//	-x                (negation)
//
// The parser asks the lexer for tokens with [lexer.Lexer.Hint], which
// depends only on whether the lexer is in code, in a quoted string or in an
// indented string. The valid set is not narrowed by grammar position: the
// frame stack of the lexer already tells string content from code, and the
// conventional tokens of code never conflict, so a finer set would not change
// any token.
//
// Nesting is limited by [WithMaxDepth], which counts syntactic nesting of
// expressions rather than grammar recursion.
//
// Parse always returns a tree. Problems are recorded in-band as ERROR nodes
// and returned together as an [ErrorList]. In [ModeTolerant] a broken
// binding is isolated in its own ERROR node and parsing resumes at the next
// binding. In [ModeStrict] parsing stops at the first problem and the rest
// of the input is kept in a final ERROR node. In both modes every byte of
// the source is covered by a token or by trivia, so [tree.Tree.Reconstruct]
// returns the input unchanged.
package parser
