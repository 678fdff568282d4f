package memory

// VariableBurstMemory models a controller that charges the full burst
// setup cost once per page spanned by an access and streams the remaining
// words at one tick each. With bytesPerPage equal to bytesPerBurst it
// degenerates to the fixed-delay model.
type VariableBurstMemory struct {
	*FixedDelayMemory

	bytesPerPage uint32
}

// NewVariableBurstMemory creates a variable-burst memory model.
func NewVariableBurstMemory(
	backing *IdealMemory,
	bytesPerBurst, bytesPerPage, ticksPerBurst, readDelayTicks uint32,
	postedWrites int,
) *VariableBurstMemory {
	m := &VariableBurstMemory{
		FixedDelayMemory: NewFixedDelayMemory(
			backing, bytesPerBurst, ticksPerBurst, readDelayTicks, postedWrites),
		bytesPerPage: bytesPerPage,
	}
	m.transferTicks = m.variableTransferTicks
	return m
}

func (m *VariableBurstMemory) variableTransferTicks(alignedAddress, alignedSize uint32, isLoad, isPosted bool) uint32 {
	startPage := alignedAddress / m.bytesPerPage
	endPage := (alignedAddress + alignedSize - 1) / m.bytesPerPage
	numPages := endPage - startPage + 1

	// Every page spanned pays the burst setup once; the rest of the bytes
	// stream at one tick per word.
	ticks := numPages * m.ticksPerBurst
	length := alignedSize - numPages*m.bytesPerBurst
	ticks += length / 4

	if isLoad || !isPosted {
		ticks += m.readDelayTicks
	}
	return ticks
}
