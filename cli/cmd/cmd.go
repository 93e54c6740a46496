package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable called name, if any.
func kongVar(ctx context.Context, name string) (string, bool) {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return "", false
	}

	v, ok := ktx.Model.Vars()[name]

	return v, ok
}

// stdout returns the writer commands print results to.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

type optionsKey struct{}

// WithOptions returns a new context.Context carrying parse options shared by
// every command, such as strict mode and the nesting limit.
func WithOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// optionsFrom returns the parse options stored by [WithOptions] followed by
// extra. The default logger is always included.
func optionsFrom(ctx context.Context, extra ...lang.Option) []lang.Option {
	base, _ := ctx.Value(optionsKey{}).([]lang.Option)

	opts := make([]lang.Option, 0, len(base)+len(extra)+1)
	opts = append(opts, lang.WithLogger(log.Default()))
	opts = append(opts, base...)

	return append(opts, extra...)
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// source is one input document.
type source struct {
	name string
	io.ReadCloser
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens every named source once, in order. All occurrences of
// "-" are replaced with a single stdin source placed last, so it is read
// after the regular files. No names at all means stdin.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs. The caller must close every returned source.
func openSources(names []string) ([]source, error) {
	if len(names) == 0 {
		names = []string{stdinSource}
	}

	var (
		out      []source
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})

	stdinKey, stdinOK := statKey(os.Stdin.Stat())

	for _, name := range names {
		if name == stdinSource {
			hasStdin = true

			continue
		}

		f, key, err := openFile(name)
		if err != nil {
			closeSources(out)

			return nil, ErrOpenSource.Wrap(err)
		}

		if stdinOK && key == stdinKey {
			f.Close()

			hasStdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			f.Close()

			continue
		}

		seen[key] = struct{}{}
		out = append(out, source{name: name, ReadCloser: f})
	}

	if hasStdin {
		out = append(out, source{name: "<stdin>", ReadCloser: io.NopCloser(os.Stdin)})
	}

	return out, nil
}

// openFile opens path after resolving it to an absolute, symlink-free path
// and returns its identity.
func openFile(path string) (*os.File, fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fileKey{}, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	key, ok := statKey(f.Stat())
	if !ok {
		// Without an identity, fall back to the path for deduplication.
		key = fileKey{ino: xxh3.HashString(resolved)}
	}

	return f, key, nil
}

// statKey creates a fileKey from the result of a Stat call.
// It reports false if the Sys() data is not a *syscall.Stat_t.
func statKey(info os.FileInfo, err error) (fileKey, bool) {
	if err != nil || info == nil {
		return fileKey{}, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

func closeSources(srcs []source) {
	for _, s := range srcs {
		s.Close()
	}
}

// parseSources parses each source with the shared options and calls fn with
// the result. Parse errors do not stop the iteration: the AST is still
// complete, and the errors are returned joined together after every source
// has been visited. An error returned by fn stops the iteration.
func parseSources(
	ctx context.Context,
	names []string,
	fn func(*lang.AST, error) error,
	extra ...lang.Option,
) error {
	srcs, err := openSources(names)
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	var failed []error

	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return err
		}

		opts := optionsFrom(ctx, append(extra, lang.WithName(src.name))...)

		ast, perr := lang.ParseReader(ctx, src, opts...)
		if ast == nil {
			return perr
		}

		if err := fn(ast, perr); err != nil {
			return err
		}

		if perr != nil {
			failed = append(failed, perr)
		}
	}

	if len(failed) > 0 {
		return ErrSyntax.Wrap(errors.Join(failed...))
	}

	return nil
}
