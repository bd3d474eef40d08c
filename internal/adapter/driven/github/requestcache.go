package github

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RequestCache deduplicates fetches for the same URL. Concurrent callers for
// one URL share a single in-flight request (singleflight), and successful
// bodies are kept for a short TTL so repeated loads within the same session
// do not re-request identical content. The clock is injected so expiry is
// testable without sleeping.
type RequestCache struct {
	ttl time.Duration
	now func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// NewRequestCache creates a RequestCache with the given TTL. A nil clock
// defaults to time.Now.
func NewRequestCache(ttl time.Duration, now func() time.Time) *RequestCache {
	if now == nil {
		now = time.Now
	}
	return &RequestCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Do returns the cached body for url if still fresh, otherwise runs fetch --
// at most once across concurrent callers -- and caches the result. Failed
// fetches are not cached.
func (c *RequestCache) Do(url string, fetch func() ([]byte, error)) ([]byte, error) {
	if body, ok := c.get(url); ok {
		return body, nil
	}

	v, err, _ := c.group.Do(url, func() (any, error) {
		// Re-check under singleflight: a concurrent caller may have
		// populated the entry while we waited.
		if body, ok := c.get(url); ok {
			return body, nil
		}

		body, err := fetch()
		if err != nil {
			return nil, err
		}

		c.put(url, body)
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

func (c *RequestCache) get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, url)
		return nil, false
	}
	return entry.body, true
}

func (c *RequestCache) put(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked()
	c.entries[url] = cacheEntry{
		body:      body,
		expiresAt: c.now().Add(c.ttl),
	}
}

// evictExpiredLocked drops expired entries. Called on every write so the map
// cannot grow without bound between sessions.
func (c *RequestCache) evictExpiredLocked() {
	now := c.now()
	for url, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, url)
		}
	}
}

// Len returns the number of live (possibly expired, not yet evicted) entries.
func (c *RequestCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
