// Package scache provides the stack cache. The stack cache holds the top
// of a downward-growing shadow stack; reserve and ensure operations spill
// and fill whole blocks against a bounded overflow area in main memory.
//
// Stack addresses are relative to the top of the stack: address 0 with
// size n names the n newest bytes.
package scache

import "io"

// Cache is the stack cache contract used by the memory stage.
type Cache interface {
	// Reserve makes size bytes available on the stack, spilling older
	// blocks to memory when the cache overflows. It returns false while a
	// spill is in flight.
	Reserve(size uint32, stackTop *uint32) (bool, error)

	// Free releases size bytes, dropping spilled blocks without filling
	// them back.
	Free(size uint32, stackTop *uint32) (bool, error)

	// Ensure guarantees that the newest size bytes are resident, filling
	// spilled blocks from memory. It returns false while a fill is in
	// flight.
	Ensure(size uint32, stackTop *uint32) (bool, error)

	// Read and Write access resident stack data. They complete in the
	// same cycle.
	Read(address uint32, value []byte) error
	Write(address uint32, value []byte) error

	// Size returns the current stack extent in bytes, spilled data
	// included.
	Size() uint32

	// Tick advances the cache one cycle.
	Tick()

	// Trace writes an occupancy trace line when the occupancy changed.
	Trace(w io.Writer, cycle uint64)

	// Stats returns the cache performance counters.
	Stats() Statistics
}

// Statistics holds the stack cache performance counters.
type Statistics struct {
	BlocksSpilled    uint64
	MaxBlocksSpilled uint64
	BlocksFilled     uint64
	MaxBlocksFilled  uint64

	BlocksReservedTotal uint64
	MaxBlocksAllocated  uint64
	MaxBlocksReserved   uint64

	Reads        uint64
	BytesRead    uint64
	Writes       uint64
	BytesWritten uint64

	// EmptyingFrees counts frees that released spilled blocks, leaving
	// the cache empty.
	EmptyingFrees uint64
}
