package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHistory_AddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"binding", modeQuery},
		{"  tree  ", modeCtrl},
		{"", modeQuery},
		{"depth > 2", modeQuery},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q): %v", e.Line, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := "Q:binding\nC:tree\nQ:depth > 2\n"; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}

	if reloaded.Len() != 3 {
		t.Fatalf("reloaded %d entries, want 3", reloaded.Len())
	}

	if e, _ := reloaded.Entry(1); e != (HistoryEntry{"tree", modeCtrl}) {
		t.Errorf("Entry(1) = %v", e)
	}
}

func TestHistory_DuplicateMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a", "b", "c", "c", "a"} {
		if err := h.Add(line, modeQuery); err != nil {
			t.Fatal(err)
		}
	}

	got := h.Entries()
	want := []string{"b", "c", "a"}

	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}

	for i := range want {
		if got[i].Line != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i].Line, want[i])
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "Q:b\nQ:c\nQ:a\n" {
		t.Errorf("file not rewritten: %q", data)
	}
}

func TestHistory_SameLineDifferentMode(t *testing.T) {
	h := NewHistory("")

	_ = h.Add("tree", modeQuery)
	_ = h.Add("tree", modeCtrl)

	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestHistory_EntryOutOfBounds(t *testing.T) {
	h := NewHistory("")

	for _, i := range []int{-1, 0, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		line string
		want HistoryEntry
	}{
		{"Q:kind", HistoryEntry{"kind", modeQuery}},
		{"C:help", HistoryEntry{"help", modeCtrl}},
		{"legacy", HistoryEntry{"legacy", modeQuery}},
	}

	for _, tt := range tests {
		if got := decodeEntry(tt.line); got != tt.want {
			t.Errorf("decodeEntry(%q) = %v, want %v", tt.line, got, tt.want)
		}

		if got := decodeEntry(tt.want.encode()[:len(tt.want.encode())-1]); got != tt.want {
			t.Errorf("round trip of %v = %v", tt.want, got)
		}
	}
}
