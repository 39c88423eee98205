package rhymes

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/starford/lyricist/internal/models"
)

// CachedLookup memoizes successful lookups in a bounded LRU.
// Failures are never cached.
type CachedLookup struct {
	inner Lookup

	mu    sync.Mutex
	cache *lru.Cache
}

// NewCachedLookup wraps inner with an LRU of size entries.
func NewCachedLookup(inner Lookup, size int) *CachedLookup {
	if size <= 0 {
		size = 256
	}
	return &CachedLookup{inner: inner, cache: lru.New(size)}
}

// Rhymes serves from the cache or falls through to the wrapped Lookup.
func (c *CachedLookup) Rhymes(ctx context.Context, word string) ([]models.RhymeCandidate, error) {
	key := strings.ToLower(strings.TrimSpace(word))

	c.mu.Lock()
	if v, ok := c.cache.Get(key); ok {
		c.mu.Unlock()
		return slices.Clone(v.([]models.RhymeCandidate)), nil
	}
	c.mu.Unlock()

	out, err := c.inner.Rhymes(ctx, word)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache.Add(key, slices.Clone(out))
	c.mu.Unlock()
	return out, nil
}

// Len returns the number of cached words.
func (c *CachedLookup) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
