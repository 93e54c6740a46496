// Package lexer tokenizes Nix expression source.
//
// Lexing is split in two. [Scanner] is a small state machine for the tokens
// that depend on nesting: quoted and indented strings, escape sequences,
// "${ }" interpolation and comments. [Lexer] drives it and handles every
// other token (identifiers, keywords, numbers, paths, URIs, operators).
//
// Nesting is held in a [State]: a stack of frames, one per open string or
// interpolation, each with its own brace and parenthesis counters. A brace
// that belongs to an attribute set inside an interpolation therefore never
// closes the interpolation. The state serializes to a self-describing byte
// encoding so a parser can checkpoint and backtrack, or hand the state to a
// later lexing pass.
//
// Whitespace and comments are trivia. They are recorded by the lexer and
// never reach the parser, but concatenating all tokens and trivia in offset
// order reproduces the input exactly.
package lexer
