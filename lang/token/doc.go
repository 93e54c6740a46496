// Package token defines the lexical vocabulary of the Nix expression
// language: token kinds, source spans, hint sets, and offset-to-position
// mapping.
//
// Tokens never own source memory. [Token.Text] is a substring of the
// document that produced it.
package token
