package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/lang/token"
	"github.com/ardnew/nixsyn/log"
	"github.com/ardnew/nixsyn/profile"
)

// configIndent is the indent width of the generated configuration file.
const configIndent = 2

// Init writes a configuration file holding the current flag values. The
// file is a Nix attribute set; flags of a group are nested under the group
// name:
//
//	{
//	  strict = false;
//	  log = {
//	    level = "info";
//	  };
//	}
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := kongVar(ctx, ConfigIdentifier)
	if !ok || ktx == nil {
		return ErrConfigUnknown
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	text := Config(ktx)

	// The file must read back as configuration.
	if _, err := lang.ParseString(ctx, text, lang.WithStrict(true), lang.WithCache(false)); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	if err := os.WriteFile(confPath, []byte(text), 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("bytes", len(text)),
	)

	return nil
}

// configEntry is one attribute of the generated file.
type configEntry struct {
	name, value string
}

// Config renders the application flags of ktx with their current values as
// a Nix attribute set. Hidden, help, version and profiling flags are left
// out, as are flags without a value.
func Config(ktx *kong.Context) string {
	var (
		top    []configEntry
		groups = map[string][]configEntry{}
		order  []string
	)

	for _, flag := range ktx.Model.Flags {
		if skipFlag(flag) {
			continue
		}

		value, ok := nixValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		if flag.Group == nil || flag.Group.Key == "" {
			top = append(top, configEntry{flag.Name, value})

			continue
		}

		key := flag.Group.Key
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}

		name := strings.TrimPrefix(flag.Name, key+"-")
		groups[key] = append(groups[key], configEntry{name, value})
	}

	var b strings.Builder

	b.WriteString("# " + ktx.Model.Name + " configuration\n{\n")

	for _, e := range top {
		writeEntry(&b, 1, e)
	}

	for _, key := range order {
		indent := strings.Repeat(" ", configIndent)
		b.WriteString(indent + nixAttr(key) + " = {\n")

		for _, e := range groups[key] {
			writeEntry(&b, 2, e)
		}

		b.WriteString(indent + "};\n")
	}

	b.WriteString("}\n")

	return b.String()
}

func skipFlag(flag *kong.Flag) bool {
	if flag.Hidden {
		return true
	}

	return slices.ContainsFunc([]string{"help", "version", profile.Tag}, func(s string) bool {
		return strings.HasPrefix(flag.Name, s)
	})
}

func writeEntry(b *strings.Builder, depth int, e configEntry) {
	b.WriteString(strings.Repeat(" ", depth*configIndent))
	b.WriteString(nixAttr(e.name))
	b.WriteString(" = ")
	b.WriteString(e.value)
	b.WriteString(";\n")
}

// nixValue renders a flag value as a Nix expression. It reports false for
// values that should be left out.
func nixValue(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false

	case bool:
		return strconv.FormatBool(v), true

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true

	case float32, float64:
		s := fmt.Sprint(v)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}

		return s, true

	case string:
		if v == "" {
			return "", false
		}

		return nixString(v), true

	case []string:
		if len(v) == 0 {
			return "", false
		}

		items := make([]string, len(v))
		for i, s := range v {
			items[i] = nixString(s)
		}

		return "[ " + strings.Join(items, " ") + " ]", true

	case fmt.Stringer:
		return nixString(v.String()), true
	}

	s := fmt.Sprint(v)
	if s == "" {
		return "", false
	}

	return nixString(s), true
}

var nixEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"${", `\${`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// nixString quotes s as a Nix string literal.
func nixString(s string) string { return `"` + nixEscaper.Replace(s) + `"` }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'-]*$`)

// nixAttr returns name as an attribute name, quoted when it is not a plain
// identifier.
func nixAttr(name string) string {
	if identPattern.MatchString(name) && token.Lookup(name) == token.Identifier {
		return name
	}

	return nixString(name)
}
