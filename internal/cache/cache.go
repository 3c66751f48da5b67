// Package cache provides a TTL-bounded resolution cache with a Bloom filter
// front to keep misses cheap.
package cache

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"trackbridge/internal/core"
)

// ResolutionCache stores terminal resolution outcomes (Matched, NoMatch)
// keyed by request. Entries expire after the configured TTL and the cache
// is bounded by LRU eviction. Transient failures are never stored, so a
// provider outage cannot poison later requests.
type ResolutionCache struct {
	mutex             sync.RWMutex
	seen              *bloom.BloomFilter
	entries           *expirable.LRU[string, core.ResolutionResult]
	maxEntries        int
	falsePositiveRate float64
	logger            *zap.Logger
}

// New creates a cache bounded to maxEntries. maxEntries must be positive;
// core.Config.Validate enforces this before the cache is built.
func New(maxEntries int, ttl time.Duration, falsePositiveRate float64, logger *zap.Logger) *ResolutionCache {
	if maxEntries <= 0 {
		panic("cache maxEntries must be positive")
	}

	return &ResolutionCache{
		seen:              bloom.NewWithEstimates(uint(maxEntries), falsePositiveRate),
		entries:           expirable.NewLRU[string, core.ResolutionResult](maxEntries, nil, ttl),
		maxEntries:        maxEntries,
		falsePositiveRate: falsePositiveRate,
		logger:            logger,
	}
}

// Get returns the cached result for a request key, if a live entry exists.
func (c *ResolutionCache) Get(key string) (core.ResolutionResult, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	// Keys never added always miss here without touching the LRU.
	if !c.seen.TestString(key) {
		return core.ResolutionResult{}, false
	}

	return c.entries.Get(key)
}

// Add stores a terminal result. Results that are not cacheable are ignored:
// transient failures may succeed on retry and a missing source track is
// answered before the cache stage.
func (c *ResolutionCache) Add(key string, result core.ResolutionResult) {
	if result.Status != core.StatusMatched && result.Status != core.StatusNoMatch {
		c.logger.Debug("Refusing to cache non-terminal result",
			zap.String("key", key),
			zap.String("status", result.Status.String()))
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.seen.AddString(key)
	c.entries.Add(key, result)
}

// Len returns the number of live entries.
func (c *ResolutionCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.entries.Len()
}

// Purge drops all entries and resets the Bloom filter.
func (c *ResolutionCache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries.Purge()
	c.seen = bloom.NewWithEstimates(uint(c.maxEntries), c.falsePositiveRate)
}
