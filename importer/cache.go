package importer

import (
	"hash/fnv"
	"slices"
	"sync"
)

// DefaultCacheCapacity is the number of decoded models a Cached source
// keeps when NewCached is given a non-positive capacity.
const DefaultCacheCapacity = 16

// cacheKey identifies one decode: the content hash of the file and the
// level of detail it was decoded at.
type cacheKey struct {
	hash uint64
	len  int
	lod  float32
}

// lruNode is a node in the recency list. The head is the most recently
// used entry, the tail the least recently used.
type lruNode struct {
	key  cacheKey
	geom Geometry
	prev *lruNode
	next *lruNode
}

// Cached wraps a Source so that importing the same bytes at the same
// level of detail decodes only once. Scene manifests commonly list one
// model file under several groups.
//
// Cached is safe for concurrent use.
type Cached struct {
	src      Source
	capacity int

	mu      sync.Mutex
	entries map[cacheKey]*lruNode
	head    *lruNode
	tail    *lruNode

	hits   uint64
	misses uint64
}

// CacheStats reports the effectiveness of a Cached source.
type CacheStats struct {
	Len      int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// NewCached wraps src with an LRU cache of capacity decoded models.
func NewCached(src Source, capacity int) *Cached {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cached{
		src:      src,
		capacity: capacity,
		entries:  make(map[cacheKey]*lruNode),
	}
}

// Import implements Source. Failed decodes are not cached. The returned
// geometry is a private copy the caller may modify.
func (c *Cached) Import(data []byte, lod float32) (Geometry, error) {
	key := cacheKey{hash: contentHash(data), len: len(data), lod: lod}

	c.mu.Lock()
	if n, ok := c.entries[key]; ok {
		c.moveToFront(n)
		c.hits++
		g := n.geom.clone()
		c.mu.Unlock()
		return g, nil
	}
	c.misses++
	c.mu.Unlock()

	g, err := c.src.Import(data, lod)
	if err != nil {
		return Geometry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		for len(c.entries) >= c.capacity {
			c.removeOldest()
		}
		n := &lruNode{key: key, geom: g.clone()}
		c.pushFront(n)
		c.entries[key] = n
	}
	return g, nil
}

// Stats returns the current counters.
func (c *Cached) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Len:      len(c.entries),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}

// Clear drops every cached model. Counters are kept.
func (c *Cached) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*lruNode)
	c.head, c.tail = nil, nil
}

func (c *Cached) pushFront(n *lruNode) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *Cached) moveToFront(n *lruNode) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *Cached) removeOldest() {
	n := c.tail
	if n == nil {
		return
	}
	c.unlink(n)
	delete(c.entries, n.key)
}

func (c *Cached) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

// contentHash computes the FNV-1a hash of data.
func contentHash(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	return h.Sum64()
}

func (g Geometry) clone() Geometry {
	return Geometry{
		Positions: slices.Clone(g.Positions),
		Normals:   slices.Clone(g.Normals),
		Indices:   slices.Clone(g.Indices),
	}
}
