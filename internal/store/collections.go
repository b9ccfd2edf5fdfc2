// Package store provides short-lived caching for provider listing pages.
package store

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"tunepilot/internal/core"
)

// The process serves a single authenticated caller, so the cache holds one
// entry under a fixed key.
const collectionsKey = "me"

// CollectionCache keeps the caller's saved-collections page warm for a
// short TTL so back-to-back intents don't re-list on every request. Entries
// expire on their own; there is no invalidation path.
type CollectionCache struct {
	cache *expirable.LRU[string, []core.Collection]
}

// NewCollectionCache creates a cache with the given TTL. A zero or negative
// TTL disables caching entirely.
func NewCollectionCache(ttl time.Duration) *CollectionCache {
	if ttl <= 0 {
		return &CollectionCache{}
	}

	return &CollectionCache{
		cache: expirable.NewLRU[string, []core.Collection](1, nil, ttl),
	}
}

// Get returns the cached page if present and unexpired.
func (c *CollectionCache) Get() ([]core.Collection, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(collectionsKey)
}

// Put stores the freshly listed page.
func (c *CollectionCache) Put(collections []core.Collection) {
	if c.cache == nil {
		return
	}
	c.cache.Add(collectionsKey, collections)
}
