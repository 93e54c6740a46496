package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "nixsyn" {
		t.Errorf("Expected Name to be %q, got %q", "nixsyn", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestPrefix(t *testing.T) {
	p := Prefix()
	if p == "" || strings.HasPrefix(p, ".") {
		t.Errorf("unexpected prefix %q", p)
	}

	if strings.Contains(p, string(filepath.Separator)) {
		t.Errorf("prefix %q must be a base name", p)
	}
}

func TestPathEnv(t *testing.T) {
	env := PathEnv()
	if !strings.HasSuffix(env, "_PATH") || strings.ToUpper(env) != env {
		t.Errorf("unexpected environment variable name %q", env)
	}
}

func TestUserDir(t *testing.T) {
	tests := []struct {
		name string
		base func() (string, error)
		want string
	}{
		{
			name: "base",
			base: func() (string, error) { return "/cfg", nil },
			want: filepath.Join("/cfg", Prefix()),
		},
		{
			name: "fallback",
			base: func() (string, error) { return "", errors.New("unset") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userDir(tt.base, ".config")
			if filepath.Base(got) != Prefix() {
				t.Errorf("userDir() = %q, want base name %q", got, Prefix())
			}

			if tt.want != "" && got != tt.want {
				t.Errorf("userDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
