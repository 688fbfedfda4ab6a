package classify

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/publicrust/DotnetDllParser/errors"
)

type cachedResult struct {
	rule string
	ok   bool
}

// Cached memoizes a Matcher. Type names repeat heavily across modules
// (<>c, <>c__DisplayClass0_0, ...) so a small LRU absorbs most lookups.
type Cached struct {
	inner Matcher
	cache *lru.Cache[string, cachedResult]
}

// NewCached wraps m with an LRU of size entries
func NewCached(m Matcher, size int) (*Cached, error) {
	cache, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create classifier cache of size %d", size)
	}
	return &Cached{inner: m, cache: cache}, nil
}

// IsGenerated reports whether the wrapped matcher classifies typeName as generated
func (c *Cached) IsGenerated(typeName string) bool {
	_, ok := c.Match(typeName)
	return ok
}

// Match returns the cached result for typeName, computing it on a miss
func (c *Cached) Match(typeName string) (string, bool) {
	if r, hit := c.cache.Get(typeName); hit {
		return r.rule, r.ok
	}
	rule, ok := c.inner.Match(typeName)
	c.cache.Add(typeName, cachedResult{rule: rule, ok: ok})
	return rule, ok
}

// Len returns the number of cached names
func (c *Cached) Len() int {
	return c.cache.Len()
}

// Build returns c memoized when cacheSize is positive, c itself otherwise
func Build(c *Classifier, cacheSize int) (Matcher, error) {
	if cacheSize <= 0 {
		return c, nil
	}
	cached, err := NewCached(c, cacheSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}
