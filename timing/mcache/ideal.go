package mcache

import (
	"encoding/binary"

	"github.com/sarchlab/patsim/timing/memory"
)

// IdealCache is a method cache in which every method is always resident.
// Fetches read straight through to the backing memory without timing.
type IdealCache struct {
	memory memory.Memory
}

// NewIdealCache creates an always-hitting method cache.
func NewIdealCache(mem memory.Memory) *IdealCache {
	return &IdealCache{memory: mem}
}

// Initialize does nothing; there is no resident state to warm up.
func (c *IdealCache) Initialize(address uint32) error {
	return nil
}

// Fetch reads the two instruction words at address from memory.
func (c *IdealCache) Fetch(address uint32) ([2]uint32, error) {
	var buf [8]byte
	if err := c.memory.ReadPeek(address, buf[:]); err != nil {
		return [2]uint32{}, err
	}
	return [2]uint32{
		binary.BigEndian.Uint32(buf[0:4]),
		binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// IsAvailable always succeeds.
func (c *IdealCache) IsAvailable(address uint32) (bool, error) {
	return true, nil
}

// AssertAvailability always succeeds.
func (c *IdealCache) AssertAvailability(address uint32) bool {
	return true
}

// Tick does nothing.
func (c *IdealCache) Tick() {}

// Stats returns empty counters; the ideal cache keeps none.
func (c *IdealCache) Stats() Statistics {
	return Statistics{}
}
