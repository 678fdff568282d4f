package memory

import "fmt"

// TDMMemory models a TDM-arbitrated memory controller shared between
// several cores. A global round of cores*ticksPerBurst+refreshTicks ticks
// rotates; this core drains one burst of its FIFO per round, at the end of
// its assigned slot. Request countdowns are therefore measured in bursts,
// not ticks.
type TDMMemory struct {
	*FixedDelayMemory

	roundLength  int
	roundStart   int
	roundCounter int
	transferring bool
}

// NewTDMMemory creates a TDM memory model for the core cpuID out of
// numCores sharing the controller.
func NewTDMMemory(
	backing *IdealMemory,
	bytesPerBurst, ticksPerBurst, readDelayTicks uint32,
	postedWrites int,
	numCores, cpuID int,
	refreshTicksPerRound uint32,
) (*TDMMemory, error) {
	if ticksPerBurst+readDelayTicks >= uint32(numCores)*ticksPerBurst+refreshTicksPerRound {
		return nil, fmt.Errorf(
			"read delay too long; overlapping TDM requests are not supported")
	}

	m := &TDMMemory{
		FixedDelayMemory: NewFixedDelayMemory(
			backing, bytesPerBurst, ticksPerBurst, readDelayTicks, postedWrites),
		roundLength: numCores*int(ticksPerBurst) + int(refreshTicksPerRound),
		roundStart:  cpuID * int(ticksPerBurst),
	}
	m.transferTicks = m.tdmTransferTicks
	m.tickRequest = m.tdmTickRequest
	return m, nil
}

// tdmTransferTicks counts bursts; one is consumed per TDM round.
func (m *TDMMemory) tdmTransferTicks(alignedAddress, alignedSize uint32, isLoad, isPosted bool) uint32 {
	return (alignedSize-1)/m.bytesPerBurst + 1
}

// tdmTickRequest drains one burst when the round counter passes the end of
// this core's slot. Non-posted requests additionally wait out the read
// delay within the round.
func (m *TDMMemory) tdmTickRequest(req *request) {
	roundEnd := m.roundStart + int(m.ticksPerBurst)
	if !req.isPosted {
		roundEnd += int(m.readDelayTicks)
	}
	if roundEnd >= m.roundLength {
		roundEnd -= m.roundLength
	}

	if roundEnd == m.roundCounter {
		req.ticksRemaining--
		m.transferring = false
	}
}

// Tick advances the TDM round and then the request queue.
func (m *TDMMemory) Tick() {
	m.roundCounter = (m.roundCounter + 1) % m.roundLength

	if m.roundCounter == m.roundStart {
		m.transferring = len(m.requests) > 0
	}

	m.FixedDelayMemory.Tick()
}
