package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/conduit-lang/modelcore/internal/compiler/ast"
	"github.com/conduit-lang/modelcore/internal/compiler/parser"
)

// DefaultSize is the number of parsed expressions kept when no size is given
const DefaultSize = 256

// Parse results reported to the observer
const (
	ResultOK     = "ok"
	ResultError  = "error"
	ResultCached = "cached"
)

// CachedAST represents a cached expression tree with metadata
type CachedAST struct {
	Expr     ast.Expr
	Hash     string
	Source   string
	CachedAt time.Time
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Option configures an ASTCache
type Option func(*ASTCache)

// WithObserver registers a callback invoked with the result of every Parse
func WithObserver(fn func(result string)) Option {
	return func(ac *ASTCache) {
		ac.observe = fn
	}
}

// ASTCache provides bounded in-memory caching of parsed expressions.
// Trees are immutable, so a cached tree is shared by every caller.
type ASTCache struct {
	entries *lru.Cache
	observe func(result string)
	hits    uint64
	misses  uint64
}

// NewASTCache creates a cache holding at most size expressions
func NewASTCache(size int, opts ...Option) (*ASTCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	ac := &ASTCache{entries: entries}
	for _, opt := range opts {
		opt(ac)
	}
	return ac, nil
}

// Parse returns the tree for source, parsing it on a miss. Syntax errors
// are not cached.
func (ac *ASTCache) Parse(source string) (ast.Expr, error) {
	if cached, ok := ac.Get(source); ok {
		ac.report(ResultCached)
		return cached.Expr, nil
	}

	expr, err := parser.ParseExpression(source)
	if err != nil {
		ac.report(ResultError)
		return nil, err
	}

	ac.Set(source, expr)
	ac.report(ResultOK)
	return expr, nil
}

// Get retrieves a cached tree by source text
func (ac *ASTCache) Get(source string) (*CachedAST, bool) {
	value, ok := ac.entries.Get(HashSource(source))
	if !ok {
		atomic.AddUint64(&ac.misses, 1)
		return nil, false
	}
	entry := value.(*CachedAST)
	// Guard against hash collisions
	if entry.Source != source {
		atomic.AddUint64(&ac.misses, 1)
		return nil, false
	}
	atomic.AddUint64(&ac.hits, 1)
	return entry, true
}

// Set stores a tree in the cache, evicting the least recently used entry
// when full
func (ac *ASTCache) Set(source string, expr ast.Expr) {
	hash := HashSource(source)
	ac.entries.Add(hash, &CachedAST{
		Expr:     expr,
		Hash:     hash,
		Source:   source,
		CachedAt: time.Now(),
	})
}

// Invalidate removes an entry from the cache
func (ac *ASTCache) Invalidate(source string) {
	ac.entries.Remove(HashSource(source))
}

// InvalidateAll clears the entire cache
func (ac *ASTCache) InvalidateAll() {
	ac.entries.Purge()
}

// Size returns the number of cached entries
func (ac *ASTCache) Size() int {
	return ac.entries.Len()
}

// Stats returns hit and miss counters
func (ac *ASTCache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadUint64(&ac.hits),
		Misses: atomic.LoadUint64(&ac.misses),
		Size:   ac.entries.Len(),
	}
}

func (ac *ASTCache) report(result string) {
	if ac.observe != nil {
		ac.observe(result)
	}
}
