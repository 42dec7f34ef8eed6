package pattern

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes compiled matchers keyed by the builder's argument tuple.
// It is append-only from the builder's point of view and safe for concurrent
// readers; Purge resets it deterministically between tests.
type Cache struct {
	inner *lru.Cache[string, *regexp.Regexp]
}

// DefaultCacheSize bounds the number of cached matchers. Real pages use a
// handful of formats, so the bound is generous.
const DefaultCacheSize = 128

// NewCache builds a cache holding up to size compiled matchers. Sizes below
// one fall back to DefaultCacheSize.
func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	inner, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// lru.New only fails on a non-positive size, which is guarded above.
		panic(err)
	}
	return &Cache{inner: inner}
}

func (c *Cache) Get(key string) (*regexp.Regexp, bool) {
	return c.inner.Get(key)
}

func (c *Cache) Add(key string, re *regexp.Regexp) {
	c.inner.Add(key, re)
}

// Len reports the number of cached matchers.
func (c *Cache) Len() int {
	return c.inner.Len()
}

// Purge drops every cached matcher.
func (c *Cache) Purge() {
	c.inner.Purge()
}
