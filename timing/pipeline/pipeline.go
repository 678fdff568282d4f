// Package pipeline implements the four-stage dual-issue in-order Patmos
// pipeline.
//
// Every cycle the stages are evaluated from memory/writeback down to
// fetch, each instruction carrying its shadow state through its issue
// slot. Stages request stalls; the highest request freezes all stages up
// to and including it, and a bubble enters behind the stall point.
// Results of the execute and memory stages are forwarded to operand reads
// in the execute stage, so dependent instructions never wait on the
// register file.
package pipeline

import (
	"github.com/sarchlab/patsim/emu"
	"github.com/sarchlab/patsim/insts"
	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/mcache"
	"github.com/sarchlab/patsim/timing/memory"
	"github.com/sarchlab/patsim/timing/scache"
)

// Stage identifies a pipeline stage.
type Stage int

// The pipeline stages, in program order.
const (
	// StageIF fetches the bundle from the method cache.
	StageIF Stage = iota
	// StageDR decodes the bundle and reads register operands.
	StageDR
	// StageEX computes results, addresses, and branch targets.
	StageEX
	// StageMW accesses memory and writes registers back.
	StageMW

	// NumStages is the pipeline depth.
	NumStages
)

var stageNames = [NumStages]string{"IF", "DR", "EX", "MW"}

// String returns the stage mnemonic.
func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "??"
	}
	return stageNames[s]
}

// NumSlots is the issue width of the pipeline.
const NumSlots = 2

// Config wires a pipeline to its register files and memory hierarchy.
type Config struct {
	GPR *emu.GPRFile
	PRR *emu.PRRFile
	SPR *emu.SPRFile

	MainMemory  memory.Memory
	LocalMemory memory.Memory
	DataCache   memory.Memory
	MethodCache mcache.Cache
	StackCache  scache.Cache

	// StackBlockBytes is the stack-control granularity: the immediates of
	// sres, sens and sfree count blocks of this many bytes.
	StackBlockBytes uint32
}

// Pipeline is the timing model of a single Patmos core.
type Pipeline struct {
	gpr *emu.GPRFile
	prr *emu.PRRFile
	spr *emu.SPRFile

	decoder *insts.Decoder

	mainMemory  memory.Memory
	localMemory memory.Memory
	dataCache   memory.Memory
	methodCache mcache.Cache
	stackCache  scache.Cache

	stackBlockBytes uint32

	base uint32
	pc   uint32
	npc  uint32

	stall Stage

	slots [NumStages][NumSlots]slot

	decoupled       slot
	decoupledActive bool

	stats Statistics
}

// New creates a pipeline over the given register files and memory
// hierarchy. The pipeline starts empty; Start positions it at the program
// entry point.
func New(config Config) *Pipeline {
	return &Pipeline{
		gpr:             config.GPR,
		prr:             config.PRR,
		spr:             config.SPR,
		decoder:         insts.NewDecoder(),
		mainMemory:      config.MainMemory,
		localMemory:     config.LocalMemory,
		dataCache:       config.DataCache,
		methodCache:     config.MethodCache,
		stackCache:      config.StackCache,
		stackBlockBytes: config.StackBlockBytes,
	}
}

// Start positions the pipeline at the entry method. The entry method must
// already be resident in the method cache.
func (p *Pipeline) Start(entry uint32) {
	p.base = entry
	p.pc = entry
	p.npc = entry
}

// PC returns the current program counter.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// Base returns the base address of the active method.
func (p *Pipeline) Base() uint32 {
	return p.base
}

// Stall returns the stall floor requested during the last cycle.
func (p *Pipeline) Stall() Stage {
	return p.stall
}

// Stats returns the pipeline performance counters.
func (p *Pipeline) Stats() *Statistics {
	return &p.stats
}

// Tick simulates one cycle: the decoupled load, the four stages and their
// commit phases, retirement accounting, and the stage advance with the
// next fetch. The memory hierarchy is ticked at the end of the cycle.
func (p *Pipeline) Tick(cycle uint64) error {
	if err := p.decoupledTick(); err != nil {
		return err
	}

	if err := p.memoryStage(); err != nil {
		return err
	}
	if err := p.executeStage(); err != nil {
		return err
	}
	p.decodeStage()
	p.fetchStage()

	if err := p.memoryCommit(); err != nil {
		return err
	}
	p.executeCommit()

	p.spr.Write(emu.SCL, int32(cycle&0xffffffff))
	p.spr.Write(emu.SCH, int32(cycle>>32))

	p.retire()
	p.stats.StallCycles[p.stall]++

	if err := p.advance(); err != nil {
		return err
	}
	p.stall = StageIF

	p.mainMemory.Tick()
	p.methodCache.Tick()
	p.stackCache.Tick()

	return nil
}

// requestStall freezes the pipeline up to and including the given stage.
func (p *Pipeline) requestStall(st Stage) {
	p.stall = max(p.stall, st)
}

// readGPR reads a general register as seen by the execute stage, giving
// in-flight results priority over the register file.
func (p *Pipeline) readGPR(reg uint8) int32 {
	if reg == 0 {
		return 0
	}
	for j := 0; j < NumSlots; j++ {
		if c := &p.slots[StageEX][j].exBypass; c.valid && c.reg == reg {
			return c.value
		}
	}
	for j := 0; j < NumSlots; j++ {
		if c := &p.slots[StageMW][j].mwBypass; c.valid && c.reg == reg {
			return c.value
		}
	}
	return p.gpr.Read(reg)
}

// advance moves the stage registers past the stall floor, inserts a
// bubble behind the stall point, and fetches the next bundle when nothing
// stalled.
func (p *Pipeline) advance() error {
	for i := int(StageEX); i >= int(p.stall); i-- {
		p.slots[i+1] = p.slots[i]
	}

	// A fully stalled execute stage must not forward this cycle's results
	// into its own re-execution.
	if p.stall > StageEX {
		for j := range p.slots[StageEX] {
			p.slots[StageEX][j].exBypass.reset()
		}
	}

	if p.stall == StageIF {
		return p.fetch()
	}
	if p.stall != StageMW {
		for j := range p.slots[p.stall+1] {
			p.slots[p.stall+1][j].clear()
		}
	}
	return nil
}

// fetch reads the next bundle from the method cache and decodes it into
// the fetch stage.
func (p *Pipeline) fetch() error {
	words, err := p.methodCache.Fetch(p.pc)
	if err != nil {
		return err
	}

	bundle := p.decoder.Decode(words[0], words[1])
	if bundle.First.Op == insts.OpUnknown {
		return sim.IllegalError(words[0])
	}
	if bundle.Second != nil && bundle.Second.Op == insts.OpUnknown {
		return sim.IllegalError(words[1])
	}

	p.npc = p.pc + bundle.NumWords*4

	p.slots[StageIF][0] = slot{inst: bundle.First}
	p.slots[StageIF][1] = slot{inst: bundle.Second}

	for j := range p.slots[StageIF] {
		if i := p.slots[StageIF][j].inst; i != nil {
			p.stats.op(j, i.Op).Fetched++
		}
	}
	return nil
}
