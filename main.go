package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/nixsyn/cli"
	"github.com/ardnew/nixsyn/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog uses LogValue of the error types
		os.Exit(1)
	}
}
