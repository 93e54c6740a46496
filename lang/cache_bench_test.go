package lang

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

var benchSizes = []struct {
	name  string
	count int
}{
	{"small", 10},
	{"medium", 200},
	{"large", 2000},
}

// benchSource returns an attribute set with count bindings.
func benchSource(count int) string {
	var sb strings.Builder

	sb.WriteString("{ pkgs, lib ? pkgs.lib, ... }:\nrec {\n")

	for i := range count {
		fmt.Fprintf(&sb, "  def%d = { value = %d; name = \"def-${toString %d}\"; deps = [ pkgs.a pkgs.b ]; };\n", i, i, i)
	}

	sb.WriteString("}\n")

	return sb.String()
}

// BenchmarkParseReader measures uncached parse performance.
func BenchmarkParseReader(b *testing.B) {
	for _, size := range benchSizes {
		source := benchSource(size.count)

		b.Run(size.name, func(b *testing.B) {
			b.SetBytes(int64(len(source)))

			for b.Loop() {
				_, err := ParseReader(context.Background(), strings.NewReader(source), WithCache(false))
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkParseString_Caching measures the impact of caching on repeated parses.
func BenchmarkParseString_Caching(b *testing.B) {
	source := benchSource(200)

	ClearCache()

	for b.Loop() {
		_, err := ParseString(context.Background(), source)
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFormat measures S-expression output performance.
func BenchmarkFormat(b *testing.B) {
	for _, size := range benchSizes {
		ast, err := ParseString(context.Background(), benchSource(size.count))
		if err != nil {
			b.Fatal(err)
		}

		b.Run(size.name, func(b *testing.B) {
			var buf bytes.Buffer

			for b.Loop() {
				buf.Reset()

				if err := ast.Format(context.Background(), &buf, 2); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkFormatJSON measures JSON output performance.
func BenchmarkFormatJSON(b *testing.B) {
	ast, err := ParseString(context.Background(), benchSource(200))
	if err != nil {
		b.Fatal(err)
	}

	var buf bytes.Buffer

	for b.Loop() {
		buf.Reset()

		if err := ast.FormatJSON(context.Background(), &buf, 2); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFormatYAML measures YAML output performance.
func BenchmarkFormatYAML(b *testing.B) {
	ast, err := ParseString(context.Background(), benchSource(200))
	if err != nil {
		b.Fatal(err)
	}

	var buf bytes.Buffer

	for b.Loop() {
		buf.Reset()

		if err := ast.FormatYAML(context.Background(), &buf, 2); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkQuery measures predicate evaluation over every node.
func BenchmarkQuery(b *testing.B) {
	ast, err := ParseString(context.Background(), benchSource(200))
	if err != nil {
		b.Fatal(err)
	}

	q, err := Compile(`binding && depth < 4`)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		n := 0
		for range ast.Query(context.Background(), q) {
			n++
		}

		if n == 0 {
			b.Fatal("no matches")
		}
	}
}
