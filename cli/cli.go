package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nixsyn/cli/cmd"
	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/pkg"
)

// CLI is the top-level command-line interface.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version  kong.VersionFlag `help:"Print version and exit."                            short:"V"`
	Strict   bool             `help:"Stop parsing at the first syntax error."                      negatable:""`
	MaxDepth int              `default:"${maxDepth}"                                     help:"Maximum nesting depth of expressions." placeholder:"N"`

	Init   cmd.Init   `cmd:"" help:"Write a configuration file with the current settings."`
	Parse  cmd.Parse  `cmd:"" default:"withargs"                                             help:"Print the syntax tree of each source."`
	Tokens cmd.Tokens `cmd:"" help:"Print the token stream of each source."`
	Check  cmd.Check  `cmd:"" help:"Report the syntax errors of each source."`
	Query  cmd.Query  `cmd:"" help:"List the syntax nodes matching a query."`
	Repl   cmd.Repl   `cmd:"" help:"Explore a source interactively."`
}

// Run executes the command line given by args. The exit function is called
// by kong for --help, --version and usage errors.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	return run(ctx, []kong.Option{kong.Exit(exit)}, args...)
}

func run(ctx context.Context, opts []kong.Option, args ...string) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vars := kong.Vars{
		"version":            pkg.Version,
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		cmd.ConfigIdentifier: configPath(baseConfig),
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	// Logger flags take effect before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		append([]kong.Option{
			kong.Name(pkg.Name),
			kong.Description(pkg.Description),
			kong.UsageOnError(),
			kong.ExplicitGroups(append([]kong.Group{cli.Log.group()}, cli.Pprof.groups()...)),
			kong.ConfigureHelp(kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
			kong.Configuration(kong.JSON, configFiles("config.json")...),
			kong.Configuration(resolve(ctx), configFiles(baseConfig)...),
			vars,
		}, opts...)...,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithOptions(ctx,
		lang.WithStrict(cli.Strict),
		lang.WithMaxDepth(cli.MaxDepth),
	)

	// Values read from configuration files are only known after parsing.
	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	ktx.BindTo(ctx, (*context.Context)(nil))

	return ktx.Run()
}
