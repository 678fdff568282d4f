package memory

// FixedDelayMemory models a burst-oriented memory controller. Accesses are
// rounded outward to burst boundaries; each burst costs a fixed number of
// ticks, plus a one-shot read delay for loads and non-posted writes.
// Requests are served strictly in FIFO order. When a posted-write bound is
// configured, writes complete from the caller's perspective as soon as the
// queue is within the bound.
type FixedDelayMemory struct {
	*IdealMemory

	bytesPerBurst  uint32
	ticksPerBurst  uint32
	readDelayTicks uint32
	postedWrites   int

	requests []request
	stats    Statistics

	lastAddress uint32
	lastIsLoad  bool

	// transferTicks and tickRequest are the variant hooks; the TDM and
	// variable-burst models replace them.
	transferTicks func(alignedAddress, alignedSize uint32, isLoad, isPosted bool) uint32
	tickRequest   func(req *request)
}

// NewFixedDelayMemory creates a fixed-delay memory model over an ideal
// backing store. postedWrites is the posted-write queue bound; zero
// disables posted writes.
func NewFixedDelayMemory(
	backing *IdealMemory,
	bytesPerBurst, ticksPerBurst, readDelayTicks uint32,
	postedWrites int,
) *FixedDelayMemory {
	m := &FixedDelayMemory{
		IdealMemory:    backing,
		bytesPerBurst:  bytesPerBurst,
		ticksPerBurst:  ticksPerBurst,
		readDelayTicks: readDelayTicks,
		postedWrites:   postedWrites,
	}
	m.transferTicks = m.fixedTransferTicks
	m.tickRequest = func(req *request) { req.ticksRemaining-- }
	return m
}

// alignedSize rounds the access outward to burst boundaries and returns
// the aligned start address alongside the aligned size.
func (m *FixedDelayMemory) alignedSize(address, size uint32) (alignedAddress, aligned uint32) {
	start := (address / m.bytesPerBurst) * m.bytesPerBurst
	end := ((address+size-1)/m.bytesPerBurst + 1) * m.bytesPerBurst
	return start, end - start
}

func (m *FixedDelayMemory) fixedTransferTicks(alignedAddress, alignedSize uint32, isLoad, isPosted bool) uint32 {
	numBursts := (alignedSize-1)/m.bytesPerBurst + 1
	ticks := m.ticksPerBurst * numBursts
	if isLoad || !isPosted {
		ticks += m.readDelayTicks
	}
	return ticks
}

// findOrCreateRequest locates the in-flight request matching the access or
// enqueues a new one with its full latency.
func (m *FixedDelayMemory) findOrCreateRequest(address, size uint32, isLoad, isPosted bool) (*request, error) {
	if err := m.checkAccess(address, size, isLoad, false); err != nil {
		return nil, err
	}

	for i := range m.requests {
		r := &m.requests[i]
		if r.address == address && r.size == size && r.isLoad == isLoad {
			return r, nil
		}
	}

	alignedAddress, aligned := m.alignedSize(address, size)
	ticks := m.transferTicks(alignedAddress, aligned, isLoad, isPosted)
	m.requests = append(m.requests, request{
		address:        address,
		size:           size,
		isLoad:         isLoad,
		isPosted:       isPosted,
		ticksRemaining: ticks,
	})

	if len(m.requests) > m.stats.MaxQueueSize {
		m.stats.MaxQueueSize = len(m.requests)
	}
	m.stats.BusyCycles += uint64(ticks)
	if isLoad == m.lastIsLoad && address == m.lastAddress {
		m.stats.ConsecutiveRequests++
	}
	if isLoad {
		m.stats.Reads++
		m.stats.BytesRead += uint64(size)
		m.stats.BytesReadTransferred += uint64(aligned)
	} else {
		m.stats.Writes++
		m.stats.BytesWritten += uint64(size)
		m.stats.BytesWriteTransfered += uint64(aligned)
	}
	m.lastAddress = address + size
	m.lastIsLoad = isLoad
	m.stats.recordSize(size)

	return &m.requests[len(m.requests)-1], nil
}

// Read attempts a timed load; the caller re-issues until done.
func (m *FixedDelayMemory) Read(address uint32, value []byte) (bool, error) {
	req, err := m.findOrCreateRequest(address, uint32(len(value)), true, false)
	if err != nil {
		return false, err
	}
	if req.ticksRemaining != 0 {
		return false, nil
	}

	m.requests = m.requests[1:]
	return m.IdealMemory.Read(address, value)
}

// Write attempts a timed store. Posted writes are queued immediately and
// report completion once the queue is within the posted bound; the
// controller still occupies its slots for the full latency.
func (m *FixedDelayMemory) Write(address uint32, value []byte) (bool, error) {
	posted := m.postedWrites > 0

	req, err := m.findOrCreateRequest(address, uint32(len(value)), false, posted)
	if err != nil {
		return false, err
	}
	if req.ticksRemaining == 0 {
		m.requests = m.requests[1:]
		return m.IdealMemory.Write(address, value)
	}
	if posted {
		if len(m.requests) <= m.postedWrites {
			// Complete from the caller's perspective; the data is stored now
			// so later peeks observe it while the controller drains.
			return true, m.IdealMemory.WritePeek(address, value)
		}
		return false, nil
	}
	return false, nil
}

// IsReady reports whether the request queue is empty.
func (m *FixedDelayMemory) IsReady() bool {
	return len(m.requests) == 0
}

// Tick advances the front request by one cycle. Finished posted writes
// leave the queue on their own since no caller re-issues them.
func (m *FixedDelayMemory) Tick() {
	if len(m.requests) > 0 && len(m.requests) <= m.postedWrites {
		posted := true
		for i := range m.requests {
			if !m.requests[i].isPosted {
				posted = false
				break
			}
		}
		if posted {
			m.stats.PostedWriteCycles++
		}
	}

	if len(m.requests) > 0 && m.requests[0].ticksRemaining > 0 {
		front := &m.requests[0]
		m.tickRequest(front)
		if front.ticksRemaining == 0 && front.isPosted {
			m.requests = m.requests[1:]
		}
	}
}

// Stats returns the accumulated statistics.
func (m *FixedDelayMemory) Stats() Statistics {
	return m.stats
}

// ResetStats clears the accumulated statistics.
func (m *FixedDelayMemory) ResetStats() {
	m.stats = Statistics{}
}

// QueueLength returns the number of in-flight requests.
func (m *FixedDelayMemory) QueueLength() int {
	return len(m.requests)
}
