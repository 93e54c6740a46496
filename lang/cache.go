package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/ardnew/nixsyn/lang/parser"
	"github.com/ardnew/nixsyn/lang/tree"
)

// globalCache stores parse results keyed by source and option hash.
// Trees are immutable, so a cached tree is shared by every AST parsed from
// the same source with the same options.
var globalCache sync.Map

// entry is one cached parse.
type entry struct {
	once  sync.Once
	tree  *tree.Tree
	diags parser.ErrorList
	stats parser.Stats
}

// hashOptions encodes options using gob and hashes with xxh3.
// Returns a hash that uniquely identifies the options configuration.
func hashOptions(opts options) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	// Encode relevant options fields
	_ = enc.Encode(uint8(opts.mode))
	_ = enc.Encode(opts.maxDepth)

	return xxh3.Hash(buf.Bytes())
}

// cacheKey returns the key of source parsed with opts.
func cacheKey(source string, opts options) string {
	sourceHash := xxh3.HashString(source)

	return strconv.FormatUint(sourceHash^hashOptions(opts), 36)
}

// parseCached fills ast from the cache, parsing source on a miss.
func parseCached(ctx context.Context, ast *AST, source string) {
	key := cacheKey(source, ast.opts)

	value, hit := globalCache.LoadOrStore(key, new(entry))
	e := value.(*entry) //nolint:forcetypeassert

	ast.logger.TraceContext(ctx,
		"cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
	)

	e.once.Do(func() {
		// The cached copy carries no name and no logger.
		tmp := &AST{opts: ast.opts, logger: ast.logger}
		parse(tmp, source)

		e.tree, e.diags, e.stats = tmp.Tree, tmp.diags, tmp.Stats
	})

	ast.Tree, ast.diags, ast.Stats = e.tree, e.diags, e.stats
}

// ClearCache removes all cached parses.
// This is primarily useful for testing or when memory needs to be reclaimed.
func ClearCache() {
	globalCache.Clear()
}

// cacheLen returns the number of cached parses.
func cacheLen() int {
	n := 0

	globalCache.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}
