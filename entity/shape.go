package entity

import (
	"sync"

	"github.com/golang/groupcache/lru"

	"github.com/syssam/entgroup/bind"
)

// shapeCacheSize bounds the number of distinct ad hoc query shapes a
// group keeps binding sets for.
const shapeCacheSize = 32

// shapeCache is a mutex-guarded LRU of binding sets keyed by the joined
// column names of a query shape.
type shapeCache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

func newShapeCache(size int) *shapeCache {
	return &shapeCache{lru: lru.New(size)}
}

func (c *shapeCache) get(key string) (*bind.Set, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(lru.Key(key))
	if !ok {
		return nil, false
	}
	return v.(*bind.Set), true
}

func (c *shapeCache) add(key string, s *bind.Set) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(lru.Key(key), s)
}
