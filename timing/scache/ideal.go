package scache

import (
	"fmt"
	"io"

	"github.com/sarchlab/patsim/sim"
)

// IdealCache is a stack cache with unbounded space. Nothing ever spills;
// every operation completes in the same cycle.
type IdealCache struct {
	content []byte
}

// NewIdealCache creates an unbounded stack cache.
func NewIdealCache() *IdealCache {
	return &IdealCache{}
}

// Reserve grows the stack by size bytes.
func (c *IdealCache) Reserve(size uint32, stackTop *uint32) (bool, error) {
	c.content = append(c.content, make([]byte, size)...)
	return true, nil
}

// Free shrinks the stack by size bytes.
func (c *IdealCache) Free(size uint32, stackTop *uint32) (bool, error) {
	if uint32(len(c.content)) < size {
		return false, sim.StackExceededError(
			"freeing more stack space than allocated")
	}
	c.content = c.content[:uint32(len(c.content))-size]
	return true, nil
}

// Ensure succeeds immediately; all stack data is always resident.
func (c *IdealCache) Ensure(size uint32, stackTop *uint32) (bool, error) {
	return true, nil
}

// Read copies stack data addressed from the top.
func (c *IdealCache) Read(address uint32, value []byte) error {
	size := uint32(len(value))
	if uint32(len(c.content)) < address+size {
		return sim.StackExceededError("read beyond the allocated stack")
	}
	copy(value, c.content[uint32(len(c.content))-address-size:])
	return nil
}

// Write copies stack data addressed from the top.
func (c *IdealCache) Write(address uint32, value []byte) error {
	size := uint32(len(value))
	if uint32(len(c.content)) < address+size {
		return sim.StackExceededError("write beyond the allocated stack")
	}
	copy(c.content[uint32(len(c.content))-address-size:], value)
	return nil
}

// Size returns the current stack extent in bytes.
func (c *IdealCache) Size() uint32 {
	return uint32(len(c.content))
}

// Tick does nothing.
func (c *IdealCache) Tick() {}

// Trace writes the current occupancy.
func (c *IdealCache) Trace(w io.Writer, cycle uint64) {
	fmt.Fprintf(w, "Cyc: %020d Total: %010d Cache: %010d\n",
		cycle, len(c.content), len(c.content))
}

// Stats returns empty counters; the ideal cache keeps none.
func (c *IdealCache) Stats() Statistics {
	return Statistics{}
}
