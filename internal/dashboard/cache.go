package dashboard

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JonMunkholm/csvdash/internal/frame"
)

// DefaultCacheSize is used when a cache is created with a non-positive size.
const DefaultCacheSize = 16

// FileID identifies an upload by its name and content.
func FileID(name string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TableCache remembers parsed tables by FileID so reruns skip parsing.
// Entries are only ever evicted, never invalidated: a FileID always maps
// to the same table.
type TableCache struct {
	lru *lru.Cache[string, *frame.Table]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTableCache creates a cache holding up to size tables.
func NewTableCache(size int) (*TableCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, *frame.Table](size)
	if err != nil {
		return nil, err
	}
	return &TableCache{lru: c}, nil
}

func (c *TableCache) Get(id string) (*frame.Table, bool) {
	t, ok := c.lru.Get(id)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return t, ok
}

func (c *TableCache) Add(id string, t *frame.Table) {
	c.lru.Add(id, t)
}

func (c *TableCache) Len() int {
	return c.lru.Len()
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *TableCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
