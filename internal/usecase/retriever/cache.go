package retriever

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/catalogchat/internal/domain/catalog"
	"github.com/kailas-cloud/catalogchat/internal/metrics"
)

// resultCache is a bounded LRU of ranked results with a fixed TTL.
// Expired entries are never returned; a hit moves the entry to the front.
//
// Every purge starts a new generation. A result ranked against an index read
// before the purge carries the old generation and is not stored.
type resultCache struct {
	lru *expirable.LRU[string, []catalog.ScoredEntry]

	mu  sync.Mutex // orders put against purge
	gen uint64
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	return &resultCache{lru: expirable.NewLRU[string, []catalog.ScoredEntry](size, nil, ttl)}
}

func cacheKey(query string, topK int) string {
	return catalog.Normalize(query) + "::" + strconv.Itoa(topK)
}

func (c *resultCache) get(key string) ([]catalog.ScoredEntry, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		metrics.RetrievalCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.RetrievalCacheTotal.WithLabelValues("hit").Inc()
	return slices.Clone(v), true
}

// generation returns the token a lookup passes to put.
func (c *resultCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// put stores results unless the cache was purged after gen was taken.
func (c *resultCache) put(key string, results []catalog.ScoredEntry, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		metrics.RetrievalCacheTotal.WithLabelValues("stale").Inc()
		return false
	}
	c.lru.Add(key, slices.Clone(results))
	return true
}

func (c *resultCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
}

func (c *resultCache) len() int {
	return c.lru.Len()
}
