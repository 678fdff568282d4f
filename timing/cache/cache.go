// Package cache provides the data cache, modeled over Akita cache
// components. The cache implements the same access contract as the main
// memory it fronts, so the core can treat cached and uncached data paths
// uniformly.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/patsim/timing/memory"
)

// Config holds data cache configuration parameters.
type Config struct {
	// Size in bytes
	Size uint32
	// Associativity (number of ways)
	Associativity uint32
	// BlockSize in bytes (cache line size)
	BlockSize uint32
}

// DefaultConfig returns the default data cache geometry, 2 KiB of 32-byte
// lines, 4-way set associative.
func DefaultConfig() Config {
	return Config{
		Size:          2 * 1024,
		Associativity: 4,
		BlockSize:     32,
	}
}

// Statistics holds data cache performance counters.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64

	// BytesTransferred counts bytes fetched from the backing memory on
	// misses.
	BytesTransferred uint64
}

// Cache is a write-through, no-write-allocate data cache with LRU
// replacement. Reads fill whole lines through the timed backing memory;
// writes pass through to it and update a cached line in place.
//
// Cache implements memory.Memory. Accesses return false while the backing
// transfer is in flight; the caller retries until completion, as with any
// timed memory.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage, indexed by setID*associativity + wayID
	dataStore [][]byte

	backing memory.Memory
	stats   Statistics

	// In-flight line fill.
	fillActive bool
	fillAddr   uint32
	fillBuf    []byte
}

// New creates a data cache in front of a backing memory.
func New(config Config, backing memory.Memory) *Cache {
	numSets := int(config.Size / (config.Associativity * config.BlockSize))
	totalBlocks := numSets * int(config.Associativity)

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			int(config.Associativity),
			int(config.BlockSize),
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
		fillBuf:   make([]byte, config.BlockSize),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache performance counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the cache performance counters.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*int(c.config.Associativity) + block.WayID
}

func (c *Cache) blockAddr(address uint32) uint32 {
	return address / c.config.BlockSize * c.config.BlockSize
}

// lookup finds a resident line. Accesses never span lines; the pipeline
// rejects unaligned accesses before they reach the cache.
func (c *Cache) lookup(address uint32) *akitacache.Block {
	block := c.directory.Lookup(0, uint64(c.blockAddr(address)))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Read serves a load. A hit completes immediately; a miss streams the
// whole line from the backing memory first, returning false until the
// transfer finishes.
func (c *Cache) Read(address uint32, value []byte) (bool, error) {
	if block := c.lookup(address); block != nil {
		c.stats.Reads++
		c.stats.Hits++
		c.directory.Visit(block)
		offset := address - c.blockAddr(address)
		copy(value, c.dataStore[c.blockIndex(block)][offset:])
		return true, nil
	}

	blockAddr := c.blockAddr(address)
	if !c.fillActive || c.fillAddr != blockAddr {
		c.fillActive = true
		c.fillAddr = blockAddr
		c.stats.Reads++
		c.stats.Misses++
	}

	done, err := c.backing.Read(blockAddr, c.fillBuf)
	if err != nil {
		c.fillActive = false
		return false, err
	}
	if !done {
		return false, nil
	}

	c.fillActive = false
	c.stats.BytesTransferred += uint64(c.config.BlockSize)
	c.install(blockAddr)
	offset := address - blockAddr
	copy(value, c.fillBuf[offset:])
	return true, nil
}

// install places the fill buffer into a victim line.
func (c *Cache) install(blockAddr uint32) {
	victim := c.directory.FindVictim(uint64(blockAddr))
	if victim == nil {
		return
	}
	if victim.IsValid {
		c.stats.Evictions++
	}
	copy(c.dataStore[c.blockIndex(victim)], c.fillBuf)
	victim.Tag = uint64(blockAddr)
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
}

// Write passes a store through to the backing memory and, once it
// completes, updates a resident line in place. Write misses do not
// allocate.
func (c *Cache) Write(address uint32, value []byte) (bool, error) {
	done, err := c.backing.Write(address, value)
	if err != nil || !done {
		return done, err
	}

	c.stats.Writes++
	if block := c.lookup(address); block != nil {
		c.stats.Hits++
		c.directory.Visit(block)
		offset := address - c.blockAddr(address)
		copy(c.dataStore[c.blockIndex(block)][offset:], value)
	} else {
		c.stats.Misses++
	}
	return true, nil
}

// ReadPeek serves a timing-free load, from a resident line if present.
func (c *Cache) ReadPeek(address uint32, value []byte) error {
	if block := c.lookup(address); block != nil {
		offset := address - c.blockAddr(address)
		copy(value, c.dataStore[c.blockIndex(block)][offset:])
		return nil
	}
	return c.backing.ReadPeek(address, value)
}

// WritePeek serves a timing-free store, keeping a resident line coherent.
func (c *Cache) WritePeek(address uint32, value []byte) error {
	if block := c.lookup(address); block != nil {
		offset := address - c.blockAddr(address)
		copy(c.dataStore[c.blockIndex(block)][offset:], value)
	}
	return c.backing.WritePeek(address, value)
}

// IsReady reports whether the backing memory can absorb a new request.
func (c *Cache) IsReady() bool {
	return c.backing.IsReady()
}

// Tick advances the cache one cycle. The backing memory is ticked by the
// core, not through the cache.
func (c *Cache) Tick() {}

// Invalidate drops the line covering address, if resident.
func (c *Cache) Invalidate(address uint32) {
	if block := c.lookup(address); block != nil {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Reset invalidates all lines and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
	c.fillActive = false
}
