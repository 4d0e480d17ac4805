package cache

import (
	"sync"

	"github.com/kdimtricp/hoverlabel/internal/models"
)

const DefaultCapacity = 50

// VerdictCache is a bounded verdict store with FIFO eviction. Reads never
// refresh an entry's position, so an entry lives exactly until capacity
// newer keys have been inserted after it.
type VerdictCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[models.ImageKey]models.Verdict
	order    []models.ImageKey
}

func New(capacity int) *VerdictCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &VerdictCache{
		capacity: capacity,
		items:    make(map[models.ImageKey]models.Verdict, capacity),
		order:    make([]models.ImageKey, 0, capacity),
	}
}

func (c *VerdictCache) Get(key models.ImageKey) (models.Verdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *VerdictCache) Has(key models.ImageKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[key]
	return ok
}

// Put stores v under key. Overwriting an existing key keeps its original
// insertion position.
func (c *VerdictCache) Put(key models.ImageKey, v models.Verdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.items[key] = v
		return
	}

	c.items[key] = v
	c.order = append(c.order, key)
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
}

func (c *VerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Keys returns the cached keys oldest first.
func (c *VerdictCache) Keys() []models.ImageKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]models.ImageKey, len(c.order))
	copy(keys, c.order)
	return keys
}

func (c *VerdictCache) Capacity() int {
	return c.capacity
}

func (c *VerdictCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[models.ImageKey]models.Verdict, c.capacity)
	c.order = make([]models.ImageKey, 0, c.capacity)
}
