package mcache

import (
	"github.com/sarchlab/patsim/timing/memory"
)

// FIFOCache is a method cache with FIFO replacement. Hits do not change
// the age order, so the fetch source is the tracked active method rather
// than the youngest entry.
type FIFOCache struct {
	*LRUCache

	activeMethod uint32
}

// NewFIFOCache creates a method cache with FIFO replacement.
func NewFIFOCache(mem memory.Memory, numBlocks, blockBytes, initBlocks uint32) *FIFOCache {
	c := &FIFOCache{
		LRUCache:     NewLRUCache(mem, numBlocks, blockBytes, initBlocks),
		activeMethod: numBlocks - 1,
	}
	c.lookup = c.AssertAvailability
	return c
}

// IsAvailable checks residency and retargets the active method on
// success.
func (c *FIFOCache) IsAvailable(address uint32) (bool, error) {
	avail, err := c.LRUCache.IsAvailable(address)
	if !avail {
		return avail, err
	}

	for i := c.numBlocks - 1; i+1 > c.numBlocks-c.activeMethods; i-- {
		if c.methods[i].address == address {
			c.activeMethod = i
		}
	}
	return true, nil
}

// Fetch reads the two instruction words at address from the active
// method.
func (c *FIFOCache) Fetch(address uint32) ([2]uint32, error) {
	return c.fetchFrom(&c.methods[c.activeMethod], address)
}
