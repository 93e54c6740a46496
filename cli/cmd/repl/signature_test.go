package repl

import (
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no call", "Binding", 7, "", 0, false},
		{"open paren", "len(", 4, "len", 0, true},
		{"first arg", "len(text", 8, "len", 0, true},
		{"second arg", `hasPrefix(text, "in`, 19, "hasPrefix", 1, true},
		{"closed call", "len(text) > 3", 13, "", 0, false},
		{"nested inner", "max(len(text", 12, "len", 0, true},
		{"nested outer", "max(len(text), ", 15, "max", 1, true},
		{"comma in string", `split(text, ",`, 14, "split", 1, true},
		{"paren in string", `hasPrefix(text, "(`, 18, "hasPrefix", 1, true},
		{"grouping paren", "(depth", 6, "", 0, false},
		{"cursor before call", "len(text)", 2, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall || got.name != tt.wantName || got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q, %d) = %+v, want {name:%q argIndex:%d inCall:%v}",
					tt.input, tt.cursor, got, tt.wantName, tt.wantIndex, tt.wantInCall)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name       string
		wantSig    string
		wantParams int
	}{
		{"hasPrefix", "hasPrefix(string, prefix)", 2},
		{"replace", "replace(string, old, new)", 3},
		{"len", "len(v)", 1},
		{"filter", "filter(...)", 1},
		{"depth", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, params := signature(tt.name)

			if sig != tt.wantSig {
				t.Errorf("signature(%q) = %q, want %q", tt.name, sig, tt.wantSig)
			}

			if len(params) != tt.wantParams {
				t.Errorf("signature(%q) params = %v, want %d", tt.name, params, tt.wantParams)
			}
		})
	}
}

func TestIsFunction(t *testing.T) {
	for _, name := range []string{"len", "upper", "filter", "max"} {
		if !isFunction(name) {
			t.Errorf("isFunction(%q) = false", name)
		}
	}

	for _, name := range []string{"kind", "Binding", ""} {
		if isFunction(name) {
			t.Errorf("isFunction(%q) = true", name)
		}
	}
}

func TestBuiltinNames_Sorted(t *testing.T) {
	names := builtinNames()
	if len(names) == 0 {
		t.Fatal("no builtin names")
	}

	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name     string
		fn       string
		params   []string
		argIndex int
	}{
		{"first param", "hasPrefix", []string{"string", "prefix"}, 0},
		{"second param", "hasPrefix", []string{"string", "prefix"}, 1},
		{"past variadic", "max", []string{"a", "...b"}, 4},
		{"out of range", "len", []string{"v"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.fn, tt.params, tt.argIndex)

			if !strings.Contains(got, tt.fn) {
				t.Errorf("hint %q is missing the function name", got)
			}

			for _, p := range tt.params {
				if !strings.Contains(got, p) {
					t.Errorf("hint %q is missing parameter %q", got, p)
				}
			}
		})
	}
}
