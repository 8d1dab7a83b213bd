package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"coursesearch/internal/domain"
	"coursesearch/internal/port"
)

// QueryCache is a small LRU of ranked results keyed by (query, k), with a TTL.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	results   []domain.RankedResult
	timestamp time.Time
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// cacheKey uses the query exactly as the ranker sees it.
func cacheKey(strategy, query string, topK int) string {
	data := []byte(strategy)
	data = append(data, 0)
	data = append(data, query...)
	data = append(data, 0)
	data = strconv.AppendInt(data, int64(topK), 10)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns a copy of the cached results, if present and fresh.
func (c *QueryCache) Get(strategy, query string, topK int) ([]domain.RankedResult, bool) {
	c.mu.RLock()
	key := cacheKey(strategy, query, topK)
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.moveToEnd(key)
	c.mu.Unlock()

	return append([]domain.RankedResult(nil), entry.results...), true
}

func (c *QueryCache) Put(strategy, query string, topK int, results []domain.RankedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(strategy, query, topK)
	entry := &cacheEntry{
		results:   append([]domain.RankedResult(nil), results...),
		timestamp: c.now(),
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachedRanker memoises a ranker's successful results. Errors are not cached.
type CachedRanker struct {
	ranker port.Ranker
	cache  *QueryCache
}

func NewCachedRanker(ranker port.Ranker, cache *QueryCache) *CachedRanker {
	return &CachedRanker{
		ranker: ranker,
		cache:  cache,
	}
}

func (r *CachedRanker) Rank(ctx context.Context, query string, k int) ([]domain.RankedResult, error) {
	name := r.ranker.Name()
	if results, hit := r.cache.Get(name, query, k); hit {
		return results, nil
	}

	results, err := r.ranker.Rank(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(name, query, k, results)

	return results, nil
}

func (r *CachedRanker) Name() string {
	return r.ranker.Name()
}
