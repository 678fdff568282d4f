// Package mcache provides the method cache. The method cache holds whole
// methods as its cache lines: control flow may only dispatch to the base
// of a method that is resident, and fetch faults if the program counter
// leaves the active method.
package mcache

// Cache is the method cache contract used by the fetch stage and the
// control-flow unit.
type Cache interface {
	// Initialize loads the first blocks of the entry method before the
	// first cycle, without consuming simulated time.
	Initialize(address uint32) error

	// Fetch reads the two instruction words at address from the active
	// method. It faults when address lies outside the active method.
	Fetch(address uint32) ([2]uint32, error)

	// IsAvailable checks whether the method based at address is resident,
	// starting a transfer and evicting older methods if it is not. It
	// returns false while the transfer is in flight.
	IsAvailable(address uint32) (bool, error)

	// AssertAvailability reports residency without starting a transfer.
	AssertAvailability(address uint32) bool

	// Tick advances the cache one cycle.
	Tick()

	// Stats returns the cache performance counters.
	Stats() Statistics
}

// MethodStats holds the counters of a single method.
type MethodStats struct {
	Hits   uint64
	Misses uint64
}

// Statistics holds the method cache performance counters.
type Statistics struct {
	Hits        uint64
	Misses      uint64
	StallCycles uint64

	BlocksTransferred    uint64
	MaxBlocksTransferred uint64
	BytesTransferred     uint64
	MaxBytesTransferred  uint64

	// PerMethod maps method base addresses to their counters.
	PerMethod map[uint32]*MethodStats
}

func (s *Statistics) method(address uint32) *MethodStats {
	if s.PerMethod == nil {
		s.PerMethod = make(map[uint32]*MethodStats)
	}
	m := s.PerMethod[address]
	if m == nil {
		m = &MethodStats{}
		s.PerMethod[address] = m
	}
	return m
}
