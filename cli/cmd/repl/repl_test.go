package repl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/nixsyn/log"
)

const sample = `{ pkgs ? import <nixpkgs> {} }:
let
  name = "demo";
in {
  inherit name;
  version = "1.0";
  build = x: x + 1;
}
`

// testModel returns a model over a scratch document holding text.
func testModel(t *testing.T, text string) model {
	t.Helper()

	sess, err := openSession(context.Background(), Config{Logger: log.Logger{}})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}

	if text != "" {
		if _, err := sess.update(context.Background(), text); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	return newModel(context.Background(), sess, NewHistory(""), log.Logger{})
}

func TestOpenSession_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.nix")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	sess, err := openSession(context.Background(), Config{Path: path, Logger: log.Logger{}})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}

	doc := sess.document()
	if doc.URI != path || doc.Version != 1 {
		t.Errorf("document = %s v%d, want %s v1", doc.URI, doc.Version, path)
	}

	if doc.Source != sample {
		t.Error("document source does not match the file")
	}
}

func TestOpenSession_MissingFile(t *testing.T) {
	_, err := openSession(context.Background(), Config{
		Path:   filepath.Join(t.TempDir(), "missing.nix"),
		Logger: log.Logger{},
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRunQuery(t *testing.T) {
	m := testModel(t, sample)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"kind shorthand", "binding", []string{"binding", `"name = \"demo\"`, "3 matches"}},
		{"field comparison", `kind == "function_expression" && depth > 1`, []string{"function_expression", "1 match"}},
		{"no matches", `kind == "with_expression"`, []string{"no matches"}},
		{"compile error", `kind ==`, []string{"error:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripped(m.runQuery(tt.query))

			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("runQuery(%q) = %q, missing %q", tt.query, got, want)
				}
			}
		})
	}
}

func TestRunQuery_CapsResults(t *testing.T) {
	var b strings.Builder

	b.WriteString("[")

	for range maxResults + 10 {
		b.WriteString(" 1")
	}

	b.WriteString(" ]")

	got := stripped(testModel(t, b.String()).runQuery("integer"))

	if !strings.Contains(got, "50 of 60 matches shown") {
		t.Errorf("expected capped summary, got tail %q", got[max(0, len(got)-40):])
	}
}

func TestExecuteCommand(t *testing.T) {
	m := testModel(t, "{ a = 1; b 2; }")

	tests := []struct {
		command string
		quits   bool
	}{
		{"help", false},
		{"tree", false},
		{"errors", false},
		{"stats", false},
		{"kinds", false},
		{"bogus", false},
		{"quit", true},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			next, cmd := m.executeCommand(tt.command)

			if cmd == nil {
				t.Fatal("expected a command")
			}

			if next.quitting != tt.quits {
				t.Errorf("quitting = %v, want %v", next.quitting, tt.quits)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	clean := testModel(t, "1 + 2").session.document()
	if got := stripped(renderErrors(clean)); got != "no syntax errors" {
		t.Errorf("renderErrors(clean) = %q", got)
	}

	broken := testModel(t, "{ a = 1; b 2; }").session.document()

	got := stripped(renderErrors(broken))
	if !strings.HasPrefix(got, "1:") || !strings.Contains(got, "^") {
		t.Errorf("renderErrors(broken) = %q", got)
	}
}

func TestRenderStats(t *testing.T) {
	doc := testModel(t, "[ 1 2 ]").session.document()

	got := renderStats(doc)
	for _, want := range []string{scratchURI, "version 2", "0 errors"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderStats = %q, missing %q", got, want)
		}
	}
}

func TestApplyEdit_BumpsVersion(t *testing.T) {
	m := testModel(t, "1")

	if cmd := m.applyEdit(editDoneMsg{text: "{ x = 2; }"}); cmd == nil {
		t.Fatal("expected a print command")
	}

	doc := m.session.document()
	if doc.Version != 3 || doc.Source != "{ x = 2; }" {
		t.Errorf("document = v%d %q", doc.Version, doc.Source)
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.nix")
	if err := os.WriteFile(path, []byte("1"), 0o600); err != nil {
		t.Fatal(err)
	}

	sess, err := openSession(context.Background(), Config{Path: path, Logger: log.Logger{}})
	if err != nil {
		t.Fatal(err)
	}

	m := newModel(context.Background(), sess, NewHistory(""), log.Logger{})

	if err := os.WriteFile(path, []byte("2"), 0o600); err != nil {
		t.Fatal(err)
	}

	m.reload()

	if doc := sess.document(); doc.Version != 2 || doc.Source != "2" {
		t.Errorf("after reload document = v%d %q", doc.Version, doc.Source)
	}

	// A scratch document has nothing to reload.
	scratch := testModel(t, "")
	scratch.reload()

	if v := scratch.session.document().Version; v != 1 {
		t.Errorf("scratch version changed to %d", v)
	}
}

func TestExecuteInput_RecordsHistory(t *testing.T) {
	m := testModel(t, sample)

	m.input.SetValue("binding")
	m, _ = m.executeInput()

	m = m.switchToMode(modeCtrl)
	m.input.SetValue("stats")
	m, _ = m.executeInput()

	want := []HistoryEntry{{"binding", modeQuery}, {"stats", modeCtrl}}

	got := m.history.Entries()
	if len(got) != len(want) {
		t.Fatalf("history = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := testModel(t, "")

	for _, e := range []HistoryEntry{
		{"binding", modeQuery},
		{"tree", modeCtrl},
		{"depth > 2", modeQuery},
	} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()

	t.Run("step switches mode", func(t *testing.T) {
		n := m.historyStep(-1)
		if n.input.Value() != "depth > 2" || n.mode != modeQuery {
			t.Fatalf("got %q in mode %d", n.input.Value(), n.mode)
		}

		n = n.historyStep(-1)
		if n.input.Value() != "tree" || n.mode != modeCtrl {
			t.Fatalf("got %q in mode %d", n.input.Value(), n.mode)
		}

		n = n.historyStep(1).historyStep(1)
		if n.input.Value() != "" || n.historyIdx != n.history.Len() {
			t.Errorf("stepping past the end left %q at %d", n.input.Value(), n.historyIdx)
		}
	})

	t.Run("step in mode skips others", func(t *testing.T) {
		n := m.historyStepInMode(-1).historyStepInMode(-1)
		if n.input.Value() != "binding" || n.mode != modeQuery {
			t.Errorf("got %q in mode %d", n.input.Value(), n.mode)
		}
	})

	t.Run("ctrl navigation restores", func(t *testing.T) {
		m.input.SetValue("draft")

		n := m.historyCtrl(-1)
		if n.input.Value() != "tree" || n.mode != modeCtrl {
			t.Fatalf("got %q in mode %d", n.input.Value(), n.mode)
		}

		n = n.historyCtrl(-1)
		if n.input.Value() != "draft" || n.mode != modeQuery || n.altNavActive {
			t.Errorf("got %q in mode %d (alt %v)", n.input.Value(), n.mode, n.altNavActive)
		}
	})
}

func TestToggleMode_PreservesInput(t *testing.T) {
	m := testModel(t, "")

	m.input.SetValue("depth")
	m = m.toggleMode()

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("after toggle: mode %d input %q", m.mode, m.input.Value())
	}

	m.input.SetValue("tre")
	m = m.toggleMode()

	if m.mode != modeQuery || m.input.Value() != "depth" {
		t.Errorf("after toggle back: mode %d input %q", m.mode, m.input.Value())
	}

	if m.ctrlText != "tre" {
		t.Errorf("control input not saved: %q", m.ctrlText)
	}
}

func TestCycleCandidate(t *testing.T) {
	m := testModel(t, "")
	m = m.switchToMode(modeCtrl)

	m.input.SetValue("e")
	m.input.SetCursor(1)
	refreshMatches(&m, false)

	if len(m.matches) < 2 {
		t.Fatalf("expected several candidates, got %v", matchStrings(m.matches))
	}

	first := m.cycleCandidate(1)
	if !first.tabActive || first.input.Value() != first.matches[0].Str {
		t.Fatalf("tab selected %q", first.input.Value())
	}

	last := m.cycleCandidate(-1)
	if last.input.Value() != last.matches[len(last.matches)-1].Str {
		t.Errorf("shift-tab selected %q", last.input.Value())
	}

	wrapped := first.cycleCandidate(-1)
	if wrapped.suggIdx != len(wrapped.matches)-1 {
		t.Errorf("backward cycle from first gave index %d", wrapped.suggIdx)
	}
}

func TestHandleKey_Quit(t *testing.T) {
	m := testModel(t, "")

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	if !next.quitting || cmd == nil {
		t.Error("Ctrl+D on empty input must quit")
	}

	m.input.SetValue("kind")

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
	if next.quitting || next.input.Value() != "" {
		t.Error("Ctrl+C with input must clear it")
	}
}

func TestView(t *testing.T) {
	m := testModel(t, "")

	if got := stripped(m.View()); !strings.Contains(got, "Type a query") {
		t.Errorf("empty view = %q", got)
	}

	m.input.SetValue("hasPrefix(text, ")
	m.input.SetCursor(len(m.input.Value()))
	refreshMatches(&m, false)

	if got := stripped(m.View()); !strings.Contains(got, "hasPrefix(string, prefix)") {
		t.Errorf("call view = %q", got)
	}

	m.quitting = true
	if m.View() != "" {
		t.Error("quitting view must be empty")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{"first\nsecond", "first..."},
		{"trailing\n", "trailing"},
		{strings.Repeat("x", 70), strings.Repeat("x", 60) + "..."},
	}

	for _, tt := range tests {
		if got := preview(tt.in, maxPreview); got != tt.want {
			t.Errorf("preview(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPlural(t *testing.T) {
	tests := map[string]string{
		plural(1, "match"): "1 match",
		plural(2, "match"): "2 matches",
		plural(0, "error"): "0 errors",
		plural(1, "node"):  "1 node",
	}

	for got, want := range tests {
		if got != want {
			t.Errorf("plural = %q, want %q", got, want)
		}
	}
}

