package mcache

import (
	"encoding/binary"

	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/memory"
)

// Transfer phases of a method cache miss.
type phase uint8

const (
	phaseIdle     phase = iota // available for requests
	phaseSize                  // reading the method size header
	phaseTransfer              // streaming the method body
)

// methodInfo is the bookkeeping record of a resident method.
type methodInfo struct {
	instructions []byte
	address      uint32
	numBlocks    uint32
	numBytes     uint32
}

// LRUCache is a method cache with LRU replacement over whole methods. The
// cache is organized in numBlocks blocks of blockBytes each; a method
// occupies a whole number of blocks. Residency is tracked in an array
// sorted by age, with the most recently used method last.
type LRUCache struct {
	memory     memory.Memory
	numBlocks  uint32
	blockBytes uint32
	initBlocks uint32

	currentPhase   phase
	transferBlocks uint32
	transferBytes  uint32

	methods       []methodInfo
	activeMethods uint32
	activeBlocks  uint32

	stats Statistics

	// lookup checks residency at the start of a request. The LRU variant
	// promotes on hit; FIFO replaces the hook with a plain membership
	// test.
	lookup func(address uint32) bool
}

// NewLRUCache creates a method cache with LRU replacement.
func NewLRUCache(mem memory.Memory, numBlocks, blockBytes, initBlocks uint32) *LRUCache {
	c := &LRUCache{
		memory:     mem,
		numBlocks:  numBlocks,
		blockBytes: blockBytes,
		initBlocks: initBlocks,
		methods:    make([]methodInfo, numBlocks),
	}
	for i := range c.methods {
		c.methods[i].instructions = make([]byte, numBlocks*blockBytes)
	}
	c.lookup = c.lruLookup
	return c
}

// lruLookup checks residency and promotes a hit to most recently used.
func (c *LRUCache) lruLookup(address uint32) bool {
	for i := c.numBlocks - 1; i+1 > c.numBlocks-c.activeMethods; i-- {
		if c.methods[i].address != address {
			continue
		}
		tmp := c.methods[i]
		copy(c.methods[i:], c.methods[i+1:])
		c.methods[c.numBlocks-1] = tmp
		return true
	}
	return false
}

// Initialize loads the first blocks of the entry method without timing.
func (c *LRUCache) Initialize(address uint32) error {
	current := &c.methods[c.numBlocks-1]
	numBytes := c.initBlocks * c.blockBytes
	if err := c.memory.ReadPeek(address, current.instructions[:numBytes]); err != nil {
		return err
	}
	current.address = address
	current.numBlocks = c.initBlocks
	current.numBytes = numBytes
	c.activeBlocks = c.initBlocks
	c.activeMethods = 1
	return nil
}

// fetchFrom reads two instruction words from a resident method.
func (c *LRUCache) fetchFrom(m *methodInfo, address uint32) ([2]uint32, error) {
	if address < m.address || m.address+m.numBytes <= address {
		return [2]uint32{}, sim.IllegalPCError(m.address)
	}

	var buf [8]byte
	copy(buf[:], m.instructions[address-m.address:])
	return [2]uint32{
		binary.BigEndian.Uint32(buf[0:4]),
		binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// Fetch reads the two instruction words at address from the most recently
// used method.
func (c *LRUCache) Fetch(address uint32) ([2]uint32, error) {
	return c.fetchFrom(&c.methods[c.numBlocks-1], address)
}

// IsAvailable checks residency of the method based at address, starting a
// transfer on a miss. The size and transfer phases begin in the same
// cycle their predecessor completes.
func (c *LRUCache) IsAvailable(address uint32) (bool, error) {
	if c.currentPhase == phaseIdle {
		if c.lookup(address) {
			c.stats.Hits++
			c.stats.method(address).Hits++
			return true, nil
		}
		c.currentPhase = phaseSize
		c.stats.Misses++
		c.stats.method(address).Misses++
	}

	if c.currentPhase == phaseSize {
		var buf [4]byte
		done, err := c.memory.Read(address-4, buf[:])
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}

		c.transferBytes = binary.BigEndian.Uint32(buf[:])
		c.transferBlocks = (c.transferBytes + c.blockBytes - 1) / c.blockBytes
		if c.transferBlocks == 0 || c.transferBlocks > c.numBlocks {
			return false, sim.CodeExceededError(address)
		}

		// Evict oldest methods until the new one fits.
		for c.activeBlocks+c.transferBlocks > c.numBlocks {
			c.activeBlocks -= c.methods[c.numBlocks-c.activeMethods].numBlocks
			c.activeMethods--
		}

		c.activeMethods++
		c.activeBlocks += c.transferBlocks
		c.stats.BlocksTransferred += uint64(c.transferBlocks)
		c.stats.MaxBlocksTransferred = max(
			c.stats.MaxBlocksTransferred, uint64(c.transferBlocks))
		c.stats.BytesTransferred += uint64(c.transferBytes)
		c.stats.MaxBytesTransferred = max(
			c.stats.MaxBytesTransferred, uint64(c.transferBytes))

		// Shift the younger entries down and claim the head slot, reusing
		// the storage of the slot that frees up.
		oldest := c.numBlocks - c.activeMethods
		saved := c.methods[oldest].instructions
		copy(c.methods[oldest:], c.methods[oldest+1:])
		c.methods[c.numBlocks-1] = methodInfo{
			instructions: saved,
			address:      address,
			numBlocks:    c.transferBlocks,
			numBytes:     c.transferBytes,
		}

		c.currentPhase = phaseTransfer
	}

	size := c.transferBlocks * c.blockBytes
	done, err := c.memory.Read(address, c.methods[c.numBlocks-1].instructions[:size])
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}

	c.transferBlocks = 0
	c.transferBytes = 0
	c.currentPhase = phaseIdle
	return true, nil
}

// AssertAvailability reports residency without touching the age order.
func (c *LRUCache) AssertAvailability(address uint32) bool {
	for i := c.numBlocks - 1; i+1 > c.numBlocks-c.activeMethods; i-- {
		if c.methods[i].address == address {
			return true
		}
	}
	return false
}

// Tick counts stall cycles while a transfer is in flight.
func (c *LRUCache) Tick() {
	if c.currentPhase != phaseIdle {
		c.stats.StallCycles++
	}
}

// Stats returns the cache performance counters.
func (c *LRUCache) Stats() Statistics {
	return c.stats
}
