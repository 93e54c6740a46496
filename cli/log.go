package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nixsyn/log"
)

// logFormat configures the logger format as a side effect of parsing, so
// errors reported while kong is still parsing already use it.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"      enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"${logFormat}"     enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"${logTimeLayout}"                         help:"Set timestamp layout (a Go layout, a name such as TimeOnly, or none)."`
	Caller     bool      `default:"false"                                    help:"Include caller information."                                        negatable:""`
	Pretty     bool      `default:"true"                                     help:"Style text output written to a terminal."                           negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":      log.DefaultLevel.String(),
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":     log.DefaultFormat.String(),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
		"logTimeLayout": log.DefaultTimeLayout,
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// start applies the final flag values, including those read from
// configuration files, to the package logger.
func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured no matter where the flags appear. Boolean flags do
// not pass through a TextUnmarshaler and are only seen here.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			return
		}

		flag, value, assigned := strings.Cut(args[i], "=")

		name, negated := strings.CutPrefix(flag, "--no-log-")
		if !negated {
			var ok bool
			if name, ok = strings.CutPrefix(flag, "--log-"); !ok {
				continue
			}
		}

		switch name {
		case "level", "format", "time-layout":
			if negated {
				continue
			}

			if !assigned {
				if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
					continue
				}

				i++
				value = args[i]
			}

			f.apply(name, value)

		case "caller", "pretty":
			enable := true

			if assigned {
				v, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				enable = v
			}

			f.apply(name, strconv.FormatBool(enable != negated))
		}
	}
}

// apply sets the named logger flag from its text value.
func (f *logConfig) apply(name, value string) {
	switch name {
	case "level":
		_ = f.Level.UnmarshalText([]byte(value))

	case "format":
		_ = f.Format.UnmarshalText([]byte(value))

	case "time-layout":
		f.TimeLayout = value
		log.Config(log.WithTimeLayout(value))

	case "caller":
		f.Caller = value == "true"
		log.Config(log.WithCaller(f.Caller))

	case "pretty":
		f.Pretty = value == "true"
		log.Config(log.WithPretty(f.Pretty))
	}
}
