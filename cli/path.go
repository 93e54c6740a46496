package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/nixsyn/pkg"
)

// baseConfig is the file name of the configuration file.
const baseConfig = "config.nix"

// defaultDirMode is the permission mode of created directories.
const defaultDirMode os.FileMode = 0o700

// configPath returns the path formed by joining the configuration directory
// with elem.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// searchPath returns the configuration directories in increasing order of
// precedence: the user configuration directory followed by the existing
// directories listed in the path environment variable (see [pkg.PathEnv]).
func searchPath() []string {
	list := mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(pkg.PathEnv()))...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(pkg.ConfigDir()),
		mung.WithFilter(isDir),
	).String()

	return filepath.SplitList(list)
}

// configFiles returns the configuration file of every directory in the
// search path. Missing files are skipped by kong.
func configFiles(name string) []string {
	dirs := searchPath()
	files := make([]string, 0, len(dirs))

	for _, dir := range dirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			files = append(files, filepath.Join(dir, name))
		}
	}

	return files
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
