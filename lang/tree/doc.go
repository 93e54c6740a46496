// Package tree defines the concrete syntax tree produced by the parser.
//
// Every node has a [Kind], a byte [token.Span] and an ordered list of
// children labeled by [Field]. Field names are the stable contract for
// consumers: an if_expression always has condition, consequence and
// alternative children, a binding always has attrpath and expression.
// Punctuation and keywords are kept as anonymous [KindToken] leaves so the
// leaf tokens of a tree, merged with [Tree.Trivia], reproduce the source.
//
// Trees are immutable. Consumers needing parent links build them from
// [Node.Walk].
package tree
