package scache

import (
	"fmt"
	"io"

	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/memory"
)

// Transfer phases of the block stack cache.
type phase uint8

const (
	phaseIdle  phase = iota // no transfer ongoing
	phaseSpill              // moving blocks from the cache to memory
	phaseFill               // moving blocks from memory to the cache
)

// BlockCache is a stack cache organized in blocks. At most capacityBlocks
// are resident; reserve spills the oldest blocks past that bound to main
// memory at the spill pointer, which then moves down past them, and ensure
// fills them back. Resident
// plus spilled blocks may never exceed totalBlocks.
type BlockCache struct {
	*IdealCache

	memory      memory.Memory
	blockBytes  uint32
	numBlocks   uint32
	totalBlocks uint32

	currentPhase   phase
	buffer         []byte
	transferBlocks uint32
	reservedBlocks uint32
	spilledBlocks  uint32

	stats Statistics

	tracedTotal    uint32
	tracedReserved uint32
	traced         bool
}

// NewBlockCache creates a block stack cache spilling to mem.
func NewBlockCache(mem memory.Memory, blockBytes, numBlocks, totalBlocks uint32) *BlockCache {
	return &BlockCache{
		IdealCache:  NewIdealCache(),
		memory:      mem,
		blockBytes:  blockBytes,
		numBlocks:   numBlocks,
		totalBlocks: totalBlocks,
		buffer:      make([]byte, numBlocks*blockBytes),
	}
}

func (c *BlockCache) blocks(size uint32) uint32 {
	return (size + c.blockBytes - 1) / c.blockBytes
}

// Reserve makes size bytes available, spilling past the capacity bound.
// The spill starts in the same cycle the reservation overflows.
func (c *BlockCache) Reserve(size uint32, stackTop *uint32) (bool, error) {
	sizeBlocks := c.blocks(size)

	if c.currentPhase == phaseIdle {
		if sizeBlocks > c.numBlocks {
			return false, sim.StackExceededError(
				"reserving more space than the stack cache holds")
		}

		c.reservedBlocks += sizeBlocks
		if _, err := c.IdealCache.Reserve(sizeBlocks*c.blockBytes, stackTop); err != nil {
			return false, err
		}

		c.stats.BlocksReservedTotal += uint64(sizeBlocks)
		c.stats.MaxBlocksReserved = max(
			c.stats.MaxBlocksReserved, uint64(sizeBlocks))
		c.stats.MaxBlocksAllocated = max(c.stats.MaxBlocksAllocated,
			uint64(uint32(len(c.content))/c.blockBytes))

		if c.reservedBlocks <= c.numBlocks {
			return true, nil
		}

		c.transferBlocks = c.reservedBlocks - c.numBlocks
		if c.transferBlocks+c.spilledBlocks > c.totalBlocks {
			return false, sim.StackExceededError(
				"spilling past the total stack limit")
		}

		// Stage the oldest resident blocks for a contiguous transfer.
		idx := uint32(len(c.content)) - c.reservedBlocks*c.blockBytes
		copy(c.buffer, c.content[idx:idx+c.transferBlocks*c.blockBytes])
		c.currentPhase = phaseSpill
	}

	done, err := c.memory.Write(*stackTop, c.buffer[:c.transferBlocks*c.blockBytes])
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}

	c.reservedBlocks -= c.transferBlocks
	c.spilledBlocks += c.transferBlocks
	c.stats.BlocksSpilled += uint64(c.transferBlocks)
	c.stats.MaxBlocksSpilled = max(
		c.stats.MaxBlocksSpilled, uint64(c.transferBlocks))
	*stackTop -= c.transferBlocks * c.blockBytes

	c.transferBlocks = 0
	c.currentPhase = phaseIdle
	return true, nil
}

// Free releases size bytes. Freed spilled blocks are dropped without
// filling; the spill pointer moves back up past them.
func (c *BlockCache) Free(size uint32, stackTop *uint32) (bool, error) {
	sizeBlocks := c.blocks(size)

	if sizeBlocks > c.numBlocks {
		return false, sim.StackExceededError(
			"freeing more space than the stack cache holds")
	}
	if sizeBlocks > c.spilledBlocks+c.reservedBlocks {
		return false, sim.StackExceededError(
			"freeing more stack space than allocated")
	}

	if _, err := c.IdealCache.Free(sizeBlocks*c.blockBytes, stackTop); err != nil {
		return false, err
	}

	if sizeBlocks <= c.reservedBlocks {
		c.reservedBlocks -= sizeBlocks
	} else {
		freedSpilled := sizeBlocks - c.reservedBlocks
		c.spilledBlocks -= freedSpilled
		c.reservedBlocks = 0
		*stackTop += freedSpilled * c.blockBytes
		c.stats.EmptyingFrees++
	}

	return true, nil
}

// Ensure makes the newest size bytes resident, filling spilled blocks.
// The fill starts in the same cycle the shortfall is detected.
func (c *BlockCache) Ensure(size uint32, stackTop *uint32) (bool, error) {
	sizeBlocks := c.blocks(size)

	if c.currentPhase == phaseIdle {
		if sizeBlocks > c.numBlocks {
			return false, sim.StackExceededError(
				"ensuring more space than the stack cache holds")
		}
		if sizeBlocks > c.reservedBlocks+c.spilledBlocks {
			return false, sim.StackExceededError(
				"ensuring more stack space than allocated")
		}

		if c.reservedBlocks >= sizeBlocks {
			return true, nil
		}

		c.transferBlocks = sizeBlocks - c.reservedBlocks
		c.currentPhase = phaseFill
	}

	// The resident copy was never erased during the spill, so the data
	// only needs to be timed, not moved.
	done, err := c.memory.Read(
		*stackTop-c.transferBlocks*c.blockBytes,
		c.buffer[:c.transferBlocks*c.blockBytes])
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}

	c.spilledBlocks -= c.transferBlocks
	c.reservedBlocks += c.transferBlocks
	c.stats.BlocksFilled += uint64(c.transferBlocks)
	c.stats.MaxBlocksFilled = max(
		c.stats.MaxBlocksFilled, uint64(c.transferBlocks))

	c.transferBlocks = 0
	c.currentPhase = phaseIdle
	return true, nil
}

// Read copies resident stack data and counts the access.
func (c *BlockCache) Read(address uint32, value []byte) error {
	if err := c.IdealCache.Read(address, value); err != nil {
		return err
	}
	c.stats.Reads++
	c.stats.BytesRead += uint64(len(value))
	return nil
}

// Write copies resident stack data and counts the access.
func (c *BlockCache) Write(address uint32, value []byte) error {
	if err := c.IdealCache.Write(address, value); err != nil {
		return err
	}
	c.stats.Writes++
	c.stats.BytesWritten += uint64(len(value))
	return nil
}

// Trace writes an occupancy line when the occupancy changed and no
// transfer is in flight.
func (c *BlockCache) Trace(w io.Writer, cycle uint64) {
	total := c.spilledBlocks + c.reservedBlocks
	if c.currentPhase != phaseIdle ||
		(c.traced && c.tracedTotal == total && c.tracedReserved == c.reservedBlocks) {
		return
	}

	fmt.Fprintf(w, "Cyc: %020d Total: %010d Cache: %010d\n",
		cycle, total, c.reservedBlocks)
	c.tracedTotal = total
	c.tracedReserved = c.reservedBlocks
	c.traced = true
}

// Stats returns the cache performance counters.
func (c *BlockCache) Stats() Statistics {
	return c.stats
}
