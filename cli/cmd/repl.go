package cmd

import (
	"context"

	"github.com/ardnew/nixsyn/cli/cmd/repl"
	"github.com/ardnew/nixsyn/log"
)

// Repl starts an interactive session over a source file. Queries are typed
// at the prompt; Esc switches to the command mode.
type Repl struct {
	Source string `arg:"" help:"Source file to explore; omit to start empty." name:"source" optional:"" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	cacheDir, _ := kongVar(ctx, CacheIdentifier)

	return repl.Run(ctx, repl.Config{
		Path:     r.Source,
		CacheDir: cacheDir,
		Options:  optionsFrom(ctx),
		Logger:   log.Default(),
	})
}
