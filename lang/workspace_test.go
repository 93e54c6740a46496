package lang

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ardnew/nixsyn/log"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(log.Logger{})

	doc := ws.Open(ctx, "file:///a.nix", 1, "{ a = 1; }")
	if doc.Version != 1 || doc.Err() != nil {
		t.Fatalf("unexpected document: version=%d err=%v", doc.Version, doc.Err())
	}

	if doc.Name != "file:///a.nix" {
		t.Errorf("expected document name to be its URI, got %q", doc.Name)
	}

	doc, err := ws.Update(ctx, "file:///a.nix", 2, "{ a = ; }")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if doc.Err() == nil {
		t.Error("expected syntax error in updated document")
	}

	got, ok := ws.Get("file:///a.nix")
	if !ok || got.Version != 2 {
		t.Fatalf("expected version 2, got %+v", got)
	}

	if err := ws.Close("file:///a.nix"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, ok := ws.Get("file:///a.nix"); ok {
		t.Error("expected document to be gone after Close")
	}
}

func TestWorkspace_StaleVersion(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(log.Logger{})

	ws.Open(ctx, "a", 5, "1")

	for _, version := range []int{4, 5} {
		if _, err := ws.Update(ctx, "a", version, "2"); !errors.Is(err, ErrStaleVersion) {
			t.Errorf("version %d: expected ErrStaleVersion, got %v", version, err)
		}
	}

	doc, _ := ws.Get("a")
	if doc.Source != "1" {
		t.Errorf("stale update must not replace the document, got %q", doc.Source)
	}
}

func TestWorkspace_NoDocument(t *testing.T) {
	ws := NewWorkspace(log.Logger{})

	if _, err := ws.Update(context.Background(), "missing", 1, ""); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Update: expected ErrNoDocument, got %v", err)
	}

	if err := ws.Close("missing"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Close: expected ErrNoDocument, got %v", err)
	}
}

func TestWorkspace_Stats(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(log.Logger{}, WithCache(false))

	ws.Open(ctx, "b", 1, "f 1")
	ws.Open(ctx, "a", 1, "{ a 1; }")

	stats := ws.Stats()

	if stats.Documents != 2 {
		t.Errorf("expected 2 documents, got %d", stats.Documents)
	}

	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}

	if stats.Tokens == 0 || stats.Nodes == 0 {
		t.Errorf("expected token and node counts, got %+v", stats)
	}

	uris := ws.URIs()
	if len(uris) != 2 || uris[0] != "a" || uris[1] != "b" {
		t.Errorf("expected sorted URIs [a b], got %v", uris)
	}
}

func TestWorkspace_Concurrent(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(log.Logger{})

	var wg sync.WaitGroup

	for i := range 8 {
		uri := fmt.Sprintf("doc%d", i)
		ws.Open(ctx, uri, 0, "null")

		wg.Add(1)

		go func() {
			defer wg.Done()

			for v := 1; v <= 20; v++ {
				if _, err := ws.Update(ctx, uri, v, fmt.Sprintf("[ %d ]", v)); err != nil {
					t.Errorf("Update %s@%d: %v", uri, v, err)
				}

				_ = ws.Stats()
			}
		}()
	}

	wg.Wait()

	for _, uri := range ws.URIs() {
		doc, _ := ws.Get(uri)
		if doc.Version != 20 {
			t.Errorf("%s: expected version 20, got %d", uri, doc.Version)
		}
	}
}

func TestWorkspace_DoesNotGrowCache(t *testing.T) {
	ctx := context.Background()
	ws := NewWorkspace(log.Logger{}, WithCache(true))

	before := cacheLen()

	ws.Open(ctx, "file:///a.nix", 1, "{ }")

	for v := 2; v <= 200; v++ {
		if _, err := ws.Update(ctx, "file:///a.nix", v, fmt.Sprintf("{ a = %d; }", v)); err != nil {
			t.Fatalf("Update %d failed: %v", v, err)
		}
	}

	if err := ws.Close("file:///a.nix"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if got := cacheLen(); got != before {
		t.Errorf("expected cache to stay at %d entries, got %d", before, got)
	}
}
