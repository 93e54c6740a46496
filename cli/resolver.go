package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nixsyn/lang"
	"github.com/ardnew/nixsyn/lang/tree"
	"github.com/ardnew/nixsyn/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in Nix. The file must be an attribute set whose attributes name
// flags. Nested attribute sets add their name as a prefix, so both of these
// set --log-level:
//
//	{ log-level = "debug"; }
//	{ log = { level = "debug"; }; }
//
// Strings, numbers and booleans are supported; lists of those become
// comma-separated values. null and any other expression leave the flag
// unset. Flags given on the command line override the file.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		ast, err := lang.ParseReader(ctx, r, lang.WithLogger(log.Default()))
		if err != nil {
			return nil, err
		}

		cfg := config{}

		root := ast.Expression()

		switch {
		case root == nil:
			// Empty file.

		case root.Kind() == tree.KindAttrset, root.Kind() == tree.KindRecAttrset:
			cfg.collect(ast, root, "")

		default:
			log.WarnContext(ctx, "configuration is not an attribute set",
				slog.String("kind", root.Kind().String()),
			)
		}

		log.TraceContext(ctx, "configuration loaded", slog.Int("flags", len(cfg)))

		return cfg, nil
	}
}

// config implements [kong.Resolver] for Nix configuration files. Keys are
// flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := c[flag.Name]; ok {
		return v, nil
	}

	// Attribute names may be written with underscores.
	if v, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}

// collect adds the bindings of the attribute set n, naming each by prefix
// and its attribute path.
func (c config) collect(ast *lang.AST, n *tree.Node, prefix string) {
	for _, b := range n.Children(tree.FieldBindings) {
		if b.Kind() != tree.KindBinding {
			continue
		}

		name, ok := attrName(ast, b.Child(tree.FieldAttrpath))
		if !ok {
			continue
		}

		if prefix != "" {
			name = prefix + "-" + name
		}

		value := b.Child(tree.FieldExpression)
		if value == nil {
			continue
		}

		switch value.Kind() {
		case tree.KindAttrset, tree.KindRecAttrset:
			c.collect(ast, value, name)

			continue

		case tree.KindList:
			var items []string

			for _, e := range value.Children(tree.FieldElements) {
				if v, ok := scalar(ast, e); ok {
					items = append(items, fmt.Sprint(v))
				}
			}

			c[name] = strings.Join(items, ",")

			continue
		}

		if v, ok := scalar(ast, value); ok {
			c[name] = v
		}
	}
}

// attrName joins the attributes of an attribute path with "-". It reports
// false for interpolated names.
func attrName(ast *lang.AST, path *tree.Node) (string, bool) {
	if path == nil {
		return "", false
	}

	var parts []string

	for _, attr := range path.Children(tree.FieldAttr) {
		switch attr.Kind() {
		case tree.KindIdentifier:
			parts = append(parts, ast.Text(attr))

		case tree.KindString:
			s, err := lang.StringValue(ast, attr)
			if err != nil {
				return "", false
			}

			parts = append(parts, s)

		default:
			return "", false
		}
	}

	return strings.Join(parts, "-"), len(parts) > 0
}

// scalar returns the value of a literal. Booleans are returned as bool and
// everything else as a string, which kong parses for the flag's type.
func scalar(ast *lang.AST, n *tree.Node) (any, bool) {
	switch n.Kind() {
	case tree.KindString, tree.KindIndentedString:
		s, err := lang.StringValue(ast, n)

		return s, err == nil

	case tree.KindInteger, tree.KindFloat, tree.KindPath:
		return ast.Text(n), true

	case tree.KindBoolean:
		return ast.Text(n) == "true", true

	case tree.KindParenthesizedExpression:
		return scalar(ast, n.Child(tree.FieldExpression))

	case tree.KindUnaryExpression:
		op, arg := n.Child(tree.FieldOperator), n.Child(tree.FieldArgument)
		if op == nil || arg == nil || ast.Text(op) != "-" {
			return nil, false
		}

		if k := arg.Kind(); k == tree.KindInteger || k == tree.KindFloat {
			return "-" + ast.Text(arg), true
		}
	}

	return nil, false
}
