package pool

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// cache 连接表
//
// Remove 与容量淘汰都会触发构造时传入的 onEvict。调用方持有 Pool.mu。
type cache interface {
	Get(key string) (*Conn, bool)
	Peek(key string) (*Conn, bool)
	Add(key string, c *Conn)
	Remove(key string) bool
	Len() int
	Purge()
}

// ============================================================================
//                              lruCache
// ============================================================================

type lruCache struct {
	lru *simplelru.LRU[string, *Conn]
}

func newLRUCache(size int, onEvict func(string, *Conn)) (*lruCache, error) {
	l, err := simplelru.NewLRU[string, *Conn](size, onEvict)
	if err != nil {
		return nil, err
	}
	return &lruCache{lru: l}, nil
}

func (c *lruCache) Get(key string) (*Conn, bool)  { return c.lru.Get(key) }
func (c *lruCache) Peek(key string) (*Conn, bool) { return c.lru.Peek(key) }
func (c *lruCache) Add(key string, conn *Conn)    { c.lru.Add(key, conn) }
func (c *lruCache) Remove(key string) bool        { return c.lru.Remove(key) }
func (c *lruCache) Len() int                      { return c.lru.Len() }
func (c *lruCache) Purge()                        { c.lru.Purge() }

// ============================================================================
//                              mapCache
// ============================================================================

// mapCache 不设上限的连接表
type mapCache struct {
	m       map[string]*Conn
	onEvict func(string, *Conn)
}

func newMapCache(onEvict func(string, *Conn)) *mapCache {
	return &mapCache{m: make(map[string]*Conn), onEvict: onEvict}
}

func (c *mapCache) Get(key string) (*Conn, bool) {
	conn, ok := c.m[key]
	return conn, ok
}

func (c *mapCache) Peek(key string) (*Conn, bool) {
	return c.Get(key)
}

func (c *mapCache) Add(key string, conn *Conn) {
	if old, ok := c.m[key]; ok && old != conn {
		c.onEvict(key, old)
	}
	c.m[key] = conn
}

func (c *mapCache) Remove(key string) bool {
	conn, ok := c.m[key]
	if !ok {
		return false
	}
	delete(c.m, key)
	c.onEvict(key, conn)
	return true
}

func (c *mapCache) Len() int {
	return len(c.m)
}

func (c *mapCache) Purge() {
	for key := range c.m {
		c.Remove(key)
	}
}
