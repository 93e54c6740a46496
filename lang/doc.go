// Package lang parses Nix expressions into concrete syntax trees.
//
// The work is split across subpackages:
//
//   - token: token kinds, spans and line/column positions
//   - lexer: a context-sensitive scanner whose state can be saved and
//     restored, so the parser can look ahead and back off
//   - parser: a recursive-descent parser that keeps going after errors
//   - tree: immutable syntax nodes with named fields
//
// This package ties them together. [ParseString], [ParseReader] and
// [ParseFile] return an [AST] even when the source has syntax errors; the
// returned error is then a [*ParseError] listing every diagnostic with the
// offending source line.
//
// # Trees
//
// Every byte of the source belongs to exactly one leaf or to trivia
// (whitespace and comments), so
//
//	ast.Reconstruct() == source
//
// holds for any input, valid or not. Regions the parser could not make
// sense of become ERROR nodes that keep their tokens.
//
// # Options
//
// Parses default to tolerant mode, which recovers at binding boundaries.
// [WithStrict] stops at the first error instead. Nesting deeper than
// [WithMaxDepth] always stops the parse. Parses are cached by source and
// options unless [WithCache] turns that off.
//
// # Output
//
// [AST.Format] prints an S-expression:
//
//	(source_file expression: (attrset bindings: (binding ...)))
//
// [AST.FormatJSON] and [AST.FormatYAML] encode the same structure through
// [AST.ToMap].
//
// # Queries
//
// [Compile] turns an expr-lang predicate into a [Query] that [AST.Query]
// runs against every node:
//
//	q, _ := lang.Compile(`binding && depth < 4`)
//	for m := range ast.Query(ctx, q) { ... }
//
// # Workspaces
//
// A [Workspace] keeps the latest parse of a set of versioned documents, as
// an editor integration would.
package lang
