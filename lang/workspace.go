package lang

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/ardnew/nixsyn/log"
)

// Document is one version of an open source document.
type Document struct {
	URI     string
	Version int
	*AST
}

// WorkspaceStats summarizes the documents of a workspace.
type WorkspaceStats struct {
	Documents int
	Tokens    int
	Nodes     int
	Errors    int
}

// Workspace holds the latest parse of each open document. Each update
// reparses the whole document. It is safe for concurrent use.
type Workspace struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	opts   []Option
	logger log.Logger
}

// NewWorkspace returns an empty workspace that parses documents with opts.
// Documents bypass the parse cache, so a replaced or closed version is
// released once no caller holds it.
func NewWorkspace(logger log.Logger, opts ...Option) *Workspace {
	o := make([]Option, 0, len(opts)+2)
	o = append(o, WithLogger(logger))
	o = append(o, opts...)
	o = append(o, WithCache(false))

	return &Workspace{
		docs:   make(map[string]*Document),
		opts:   o,
		logger: logger,
	}
}

// Open parses text as version of the document at uri, replacing any
// document already open there. Syntax errors do not fail the call; they
// are reported through the document's diagnostics.
func (w *Workspace) Open(ctx context.Context, uri string, version int, text string) *Document {
	doc := w.parse(ctx, uri, version, text)

	w.mu.Lock()
	w.docs[uri] = doc
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "document opened",
		slog.String("uri", uri),
		slog.Int("version", version),
	)

	return doc
}

// Update replaces the document at uri with a newer version. Versions at or
// below the current one are rejected with [ErrStaleVersion].
func (w *Workspace) Update(ctx context.Context, uri string, version int, text string) (*Document, error) {
	w.mu.RLock()
	cur, ok := w.docs[uri]
	w.mu.RUnlock()

	if !ok {
		return nil, ErrNoDocument.With(slog.String("uri", uri))
	}

	if version <= cur.Version {
		return nil, ErrStaleVersion.With(
			slog.String("uri", uri),
			slog.Int("version", version),
			slog.Int("current", cur.Version),
		)
	}

	doc := w.parse(ctx, uri, version, text)

	w.mu.Lock()
	defer w.mu.Unlock()

	// Another update may have landed while parsing.
	cur, ok = w.docs[uri]

	switch {
	case !ok:
		return nil, ErrNoDocument.With(slog.String("uri", uri))

	case version <= cur.Version:
		return nil, ErrStaleVersion.With(
			slog.String("uri", uri),
			slog.Int("version", version),
			slog.Int("current", cur.Version),
		)
	}

	w.docs[uri] = doc

	return doc, nil
}

// Close forgets the document at uri.
func (w *Workspace) Close(uri string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.docs[uri]; !ok {
		return ErrNoDocument.With(slog.String("uri", uri))
	}

	delete(w.docs, uri)

	return nil
}

// Get returns the document at uri.
func (w *Workspace) Get(uri string) (*Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	doc, ok := w.docs[uri]

	return doc, ok
}

// URIs returns the URIs of every open document in sorted order.
func (w *Workspace) URIs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return sortedKeys(w.docs)
}

// Stats sums the parse statistics of every open document.
func (w *Workspace) Stats() WorkspaceStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := WorkspaceStats{Documents: len(w.docs)}

	for _, doc := range w.docs {
		stats.Tokens += doc.Stats.Tokens
		stats.Nodes += doc.Stats.Nodes
		stats.Errors += len(doc.diags)
	}

	return stats
}

func (w *Workspace) parse(ctx context.Context, uri string, version int, text string) *Document {
	// The error duplicates the diagnostics kept on the AST.
	ast, _ := ParseString(ctx, text, append([]Option{WithName(uri)}, w.opts...)...)

	return &Document{URI: uri, Version: version, AST: ast}
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
