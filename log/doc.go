// Package log provides leveled structured logging on top of [log/slog].
//
// A [Logger] is configured once, when it is made, with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("TimeOnly"),
//		log.WithCaller(true))
//
// Attributes are always [slog.Attr] values:
//
//	logger.Info("parse complete", slog.Int("nodes", n))
//
// # Levels
//
// In addition to the four slog levels there is [LevelTrace], below
// [LevelDebug], used for per-token and per-node detail. Level names are
// lower case ("trace", "debug", "info", "warn", "error").
//
// # Formats
//
// [FormatText] is the default. With [WithPretty] (on by default) text
// output is styled with lipgloss when written to a terminal and plain
// otherwise. [FormatJSON] writes one JSON object per line.
//
// # Package logger
//
// The package-level functions ([Info], [Debug], ...) log through a default
// logger that writes to standard error. [Config] reconfigures it and
// [Default] returns it for passing to other packages.
//
// The zero Logger discards everything, so a Logger field may be left unset.
package log
