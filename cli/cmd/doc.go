// Package cmd implements the nixsyn subcommands.
//
// Every command reads one or more Nix sources, named on the command line or
// "-" for standard input, and parses them with the options given globally
// (see [WithOptions]):
//
//   - parse:  print the syntax tree as an S-expression, JSON or YAML
//   - tokens: print the token stream, trivia included on request
//   - check:  report syntax errors with source context
//   - query:  print the nodes matching an expr-lang predicate
//   - init:   write a configuration file holding the current flag values
//   - repl:   explore a syntax tree interactively
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file written by init.
	ConfigIdentifier = "config"
)
