package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache wraps an in-process expiring store. It serves two roles: a
// short-TTL cache for dashboard chart results, and a keyed expiring counter
// store for failure tracking (an injected, explicitly-scoped replacement
// for process-wide mutable counters).
type Cache struct {
	cache *cache.Cache
}

func New() *Cache {
	return &Cache{
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.cache.Get(key)
}

func (c *Cache) Set(key string, value interface{}, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

func (c *Cache) SetDefault(key string, value interface{}) {
	c.cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Delete(key string) {
	c.cache.Delete(key)
}

// IncrementCounter bumps an expiring counter and returns its new value.
// The window only applies from the first increment; the counter disappears
// when it expires.
func (c *Cache) IncrementCounter(key string, window time.Duration) int {
	if err := c.cache.Add(key, int(1), window); err == nil {
		return 1
	}
	n, err := c.cache.IncrementInt(key, 1)
	if err != nil {
		// Entry expired between Add and Increment; start a fresh window.
		c.cache.Set(key, int(1), window)
		return 1
	}
	return n
}

// CounterValue reads an expiring counter, zero when absent.
func (c *Cache) CounterValue(key string) int {
	if v, found := c.cache.Get(key); found {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// ResetCounter clears a counter, typically after a success.
func (c *Cache) ResetCounter(key string) {
	c.cache.Delete(key)
}
