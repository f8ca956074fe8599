package tools

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores tool Results by cache key for CacheTTL, grounded on
// original_source/plugins/tools/src/tools/wikipedia.rs's
// lang:city-lowercased cache_key convention and policy.rs's
// CACHE_TTL = 15 minutes.
type Cache struct {
	lru *expirable.LRU[string, Result]
}

// defaultCacheSize bounds memory use; entries also expire on TTL.
const defaultCacheSize = 512

// NewCache builds a Cache with the given TTL and a fixed entry cap.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, Result](defaultCacheSize, nil, ttl)}
}

// Get returns a cached Result for key, if present and unexpired.
func (c *Cache) Get(key string) (Result, bool) {
	if key == "" {
		return Result{}, false
	}
	return c.lru.Get(key)
}

// Put stores result under key.
func (c *Cache) Put(key string, result Result) {
	if key == "" {
		return
	}
	c.lru.Add(key, result)
}
