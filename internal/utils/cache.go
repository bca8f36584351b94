package utils

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem wraps cached data with an expiry deadline.
type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// GlobalCache is a process-local TTL cache over an LRU, used for ranked
// feed pages. Entries are invalidated explicitly on writes and lazily on
// expiry.
type GlobalCache struct {
	lruCache *lru.Cache[string, cacheItem]
}

var cacheInstance *GlobalCache

// GetCache returns the singleton cache instance.
func GetCache() *GlobalCache {
	if cacheInstance == nil {
		l, err := lru.New[string, cacheItem](500)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = &GlobalCache{lruCache: l}
	}
	return cacheInstance
}

func (c *GlobalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached value, or nil if absent or expired.
func (c *GlobalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.data
}

func (c *GlobalCache) Delete(key string) {
	c.lruCache.Remove(key)
}

// Purge drops everything; used by tests and after bulk reconciliation.
func (c *GlobalCache) Purge() {
	c.lruCache.Purge()
}
