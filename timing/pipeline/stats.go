package pipeline

import "github.com/sarchlab/patsim/insts"

// InstructionStats counts one opcode's instructions through one issue
// slot.
type InstructionStats struct {
	// Fetched counts instructions entering the fetch stage.
	Fetched uint64
	// Retired counts instructions leaving the memory stage with their
	// predicate true.
	Retired uint64
	// Discarded counts instructions leaving the memory stage with their
	// predicate false.
	Discarded uint64
}

// Statistics holds the pipeline performance counters.
type Statistics struct {
	// PerOp indexes instruction counters by issue slot and opcode.
	PerOp [NumSlots]map[insts.Op]*InstructionStats

	// BubblesRetired counts bubbles leaving the memory stage per slot.
	BubblesRetired [NumSlots]uint64

	// StallCycles counts cycles per stall floor. The StageIF entry is
	// the number of cycles with no stall at all.
	StallCycles [NumStages]uint64
}

// op returns the counter cell for the given slot and opcode, creating
// it on first use.
func (s *Statistics) op(slot int, op insts.Op) *InstructionStats {
	if s.PerOp[slot] == nil {
		s.PerOp[slot] = make(map[insts.Op]*InstructionStats)
	}
	st := s.PerOp[slot][op]
	if st == nil {
		st = &InstructionStats{}
		s.PerOp[slot][op] = st
	}
	return st
}

// TotalRetired sums retired instructions across slots and opcodes.
func (s *Statistics) TotalRetired() uint64 {
	var n uint64
	for j := 0; j < NumSlots; j++ {
		for _, st := range s.PerOp[j] {
			n += st.Retired
		}
	}
	return n
}
