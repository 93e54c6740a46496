package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/ardnew/nixsyn/log"
)

// noopEditor returns an editor command that leaves the file unchanged.
func noopEditor(t *testing.T) string {
	t.Helper()

	path, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true(1) not available")
	}

	return path
}

func newEditCommand(text, answers string) (*editDocumentCommand, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &editDocumentCommand{
		text:    text,
		ctxFunc: context.Background,
		logger:  log.Logger{},
	}
	cmd.SetStdin(strings.NewReader(answers))
	cmd.SetStdout(&out)
	cmd.SetStderr(&out)

	return cmd, &out
}

func TestEditDocumentCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", noopEditor(t))

	t.Run("clean text accepted", func(t *testing.T) {
		cmd, out := newEditCommand("{ a = 1; }", "")
		if err := cmd.Run(); err != nil {
			t.Fatal(err)
		}

		if cmd.cancelled || cmd.text != "{ a = 1; }" {
			t.Errorf("cancelled=%v text=%q", cmd.cancelled, cmd.text)
		}

		if out.Len() != 0 {
			t.Errorf("unexpected prompt: %q", out.String())
		}
	})

	t.Run("empty text cancels", func(t *testing.T) {
		cmd, _ := newEditCommand("  \n", "")
		if err := cmd.Run(); err != nil {
			t.Fatal(err)
		}

		if !cmd.cancelled {
			t.Error("expected cancelled edit")
		}
	})

	t.Run("declined retry keeps errors", func(t *testing.T) {
		cmd, out := newEditCommand("{ a = ; }", "n\n")
		if err := cmd.Run(); err != nil {
			t.Fatal(err)
		}

		if cmd.cancelled || cmd.text != "{ a = ; }" {
			t.Errorf("cancelled=%v text=%q", cmd.cancelled, cmd.text)
		}

		if !strings.Contains(out.String(), "Edit again?") {
			t.Errorf("expected prompt, got %q", out.String())
		}
	})

	t.Run("closed input stops retrying", func(t *testing.T) {
		cmd, out := newEditCommand("let in", "")
		if err := cmd.Run(); err != nil {
			t.Fatal(err)
		}

		if n := strings.Count(out.String(), "Edit again?"); n != 1 {
			t.Errorf("prompted %d times", n)
		}
	})
}

func TestFindEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "code --wait")

	got, err := findEditor()
	if err != nil {
		t.Fatal(err)
	}

	if strings.Join(got, " ") != "code --wait" {
		t.Errorf("findEditor = %q", got)
	}

	t.Setenv("VISUAL", "nano")

	if got, _ := findEditor(); got[0] != "nano" {
		t.Errorf("VISUAL not preferred: %q", got)
	}

	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	t.Setenv("PATH", t.TempDir())

	if _, err := findEditor(); !errors.Is(err, ErrNoEditor) {
		t.Errorf("findEditor with empty PATH = %v, want ErrNoEditor", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{" No \n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer

		got := confirm(&out, bufio.NewScanner(strings.NewReader(tt.input)), "? ")
		if got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}

		if out.String() != "? " {
			t.Errorf("question not written: %q", out.String())
		}
	}
}
