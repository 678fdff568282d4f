package pipeline

import "github.com/sarchlab/patsim/insts"

// bypass is a pending general-register writeback visible to the forwarding
// network before it reaches the register file.
type bypass struct {
	valid bool
	reg   uint8
	value int32
}

func (b *bypass) set(reg uint8, value int32) {
	b.valid = true
	b.reg = reg
	b.value = value
}

func (b *bypass) reset() {
	*b = bypass{}
}

// slot carries one issue slot's instruction and its shadow state through
// the pipeline. Each stage reads the fields latched by earlier stages and
// latches its own results for the stages behind it. A slot with a nil
// instruction is a bubble.
type slot struct {
	inst *insts.Instruction

	// ifPC is the fetch-time program counter, the reference point of
	// PC-relative branch targets.
	ifPC uint32

	// Latched at decode.
	pred   bool
	ps1    bool
	ps2    bool
	ss     int32
	base   uint32
	offset uint32

	// Latched at execute.
	result   int32
	mulLow   int32
	mulHigh  int32
	address  uint32
	storeVal int32

	// dispatched marks a control-flow redirect as taken, so re-execution
	// under a stall does not redirect again.
	dispatched bool

	exBypass bypass
	mwBypass bypass
}

// clear turns the slot into a bubble.
func (s *slot) clear() {
	*s = slot{}
}
