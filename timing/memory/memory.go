// Package memory provides the main-memory timing models. All models share
// a single contract: a client re-issues the same (address, size, is-load)
// access every cycle until the model reports completion, and the owner
// ticks the model exactly once per simulated cycle.
package memory

// Memory is the timing contract implemented by main memory, the local
// scratchpad, and the data cache front-ends.
type Memory interface {
	// Read attempts to retrieve len(value) bytes starting at address.
	// It returns false until the modelled latency has elapsed; the caller
	// must re-issue the identical access each cycle until it returns true.
	Read(address uint32, value []byte) (bool, error)

	// Write attempts to store len(value) bytes starting at address. With
	// posted writes configured it may report completion while the
	// controller is still occupied.
	Write(address uint32, value []byte) (bool, error)

	// ReadPeek retrieves bytes ignoring timing. Used by caches that stream
	// bulk data after their own latency has elapsed.
	ReadPeek(address uint32, value []byte) error

	// WritePeek stores bytes ignoring timing.
	WritePeek(address uint32, value []byte) error

	// IsReady reports whether the pending-request queue is empty.
	IsReady() bool

	// Tick advances the model by one cycle.
	Tick()
}

// request tracks one in-flight access in a timed memory's FIFO.
type request struct {
	address        uint32
	size           uint32
	isLoad         bool
	isPosted       bool
	ticksRemaining uint32
}

// Statistics holds the counters every timed memory model maintains.
type Statistics struct {
	MaxQueueSize         int
	ConsecutiveRequests  uint64
	BusyCycles           uint64
	PostedWriteCycles    uint64
	Reads                uint64
	Writes               uint64
	BytesRead            uint64
	BytesWritten         uint64
	BytesReadTransferred uint64
	BytesWriteTransfered uint64

	// RequestsPerSize is a histogram of request sizes, bucketed to the next
	// multiple of four bytes.
	RequestsPerSize map[uint32]uint64
}

// StallCycles returns the busy cycles that were not hidden behind posted
// writes.
func (s *Statistics) StallCycles() uint64 {
	return s.BusyCycles - s.PostedWriteCycles
}

// TotalBytesTransferred returns the aligned byte count moved in either
// direction.
func (s *Statistics) TotalBytesTransferred() uint64 {
	return s.BytesReadTransferred + s.BytesWriteTransfered
}

func (s *Statistics) recordSize(size uint32) {
	if s.RequestsPerSize == nil {
		s.RequestsPerSize = make(map[uint32]uint64)
	}
	bucket := ((size-1)/4 + 1) * 4
	s.RequestsPerSize[bucket]++
}
