package entgroup

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// MemoryCache is a bounded in-process Cache backed by an LRU. It is the
// default backend for tests and single-process deployments; shared
// deployments should implement Cache over an external store instead.
type MemoryCache struct {
	mu   sync.Mutex
	lru  *lru.Cache
	keys map[string]struct{} // live keys, for prefix deletion
	now  func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemoryCache returns a MemoryCache bounded to maxEntries values.
// maxEntries of 0 means unbounded.
func NewMemoryCache(maxEntries int) *MemoryCache {
	c := &MemoryCache{
		lru:  lru.New(maxEntries),
		keys: make(map[string]struct{}),
		now:  time.Now,
	}
	c.lru.OnEvicted = func(key lru.Key, _ any) {
		delete(c.keys, key.(string))
	}
	return c
}

// Get implements Cache. An expired entry reads as a miss and is dropped.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(lru.Key(key))
	if !ok {
		return nil, nil
	}
	e := v.(memoryEntry)
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.lru.Remove(lru.Key(key))
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(lru.Key(key), e)
	c.keys[key] = struct{}{}
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(lru.Key(key))
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	victims := make([]string, 0, len(c.keys))
	for k := range c.keys {
		if strings.HasPrefix(k, prefix) {
			victims = append(victims, k)
		}
	}
	for _, k := range victims {
		c.lru.Remove(lru.Key(k))
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
