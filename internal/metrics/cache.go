package metrics

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is an expiring LRU that counts hits and misses under its name.
type Cache[K comparable, V any] struct {
	name string
	lru  *expirable.LRU[K, V]
}

func NewCache[K comparable, V any](name string, size int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		name: name,
		lru:  expirable.NewLRU[K, V](size, nil, ttl),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		CacheHits.WithLabelValues(c.name).Inc()
	} else {
		CacheMisses.WithLabelValues(c.name).Inc()
	}
	return v, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

func (c *Cache[K, V]) Purge() {
	c.lru.Purge()
}
