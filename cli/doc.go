// Package cli contains the command line interface of nixsyn.
//
// # Usage
//
//	nixsyn [flags] [<source> ...]          print syntax trees (same as parse)
//	nixsyn parse -f json default.nix       print a tree as JSON
//	nixsyn tokens --trivia default.nix     print the token stream
//	nixsyn check *.nix                     report syntax errors
//	nixsyn query 'binding && depth < 3' default.nix  list matching nodes
//	nixsyn repl default.nix                explore a document interactively
//	nixsyn init                            write the configuration file
//
// A source of "-", or no source at all, reads standard input.
//
// # Configuration
//
// Flag defaults are read from config.nix in the configuration directory
// (for example ~/.config/nixsyn) and then from each existing directory
// listed in NIXSYN_PATH, later files taking precedence. A configuration
// file is a Nix attribute set:
//
//	{
//	  strict = true;
//	  log = {
//	    level = "debug";
//	    format = "json";
//	  };
//	}
//
// Flags given on the command line override the files. config.json files
// in the same directories are read as well.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp layout (RFC3339, TimeOnly, none, ...)
//   - --log-caller: include caller information
//   - --[no-]log-pretty: style text output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: profile kind (cpu, heap, allocs, ...)
//   - --pprof-dir: output directory (default ~/.cache/nixsyn/pprof)
package cli
