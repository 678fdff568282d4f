// Package core assembles a Patmos core: the register files, the memory
// hierarchy built from the timing configuration, and the pipeline. It
// drives the cycle loop, stamps simulation faults with the cycle and PC
// at which they surfaced, and renders the execution traces and the
// statistics report.
package core

import (
	"github.com/sarchlab/patsim/emu"
	"github.com/sarchlab/patsim/loader"
	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/latency"
	"github.com/sarchlab/patsim/timing/mcache"
	"github.com/sarchlab/patsim/timing/memory"
	"github.com/sarchlab/patsim/timing/pipeline"
	"github.com/sarchlab/patsim/timing/scache"
)

// Config selects the timing parameters and debug facilities of a core.
type Config struct {
	// Timing parameterizes the memory hierarchy. Nil selects the default
	// configuration.
	Timing *latency.TimingConfig

	// Strict faults reads of uninitialized main memory.
	Strict bool

	// Symbols resolves addresses in traces and reports. May be nil.
	Symbols *loader.SymbolMap
}

// Core is a single Patmos core with its private memory hierarchy.
type Core struct {
	gpr *emu.GPRFile
	prr *emu.PRRFile
	spr *emu.SPRFile

	mainMemory  memory.Memory
	localMemory *memory.IdealMemory
	dataCache   memory.Memory
	methodCache mcache.Cache
	stackCache  scache.Cache

	pipeline *pipeline.Pipeline

	symbols *loader.SymbolMap

	cycle uint64

	trace tracer
}

// New builds a core from the configuration.
func New(config Config) (*Core, error) {
	timing := config.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}
	if err := timing.Validate(); err != nil {
		return nil, err
	}

	mainMemory, err := timing.BuildMainMemory(config.Strict)
	if err != nil {
		return nil, err
	}
	localMemory := timing.BuildLocalMemory()
	dataCache := timing.BuildDataCache(mainMemory)
	methodCache := timing.BuildMethodCache(mainMemory)
	stackCache := timing.BuildStackCache(mainMemory)

	gpr := &emu.GPRFile{}
	prr := &emu.PRRFile{}
	spr := emu.NewSPRFile(prr)

	c := &Core{
		gpr:         gpr,
		prr:         prr,
		spr:         spr,
		mainMemory:  mainMemory,
		localMemory: localMemory,
		dataCache:   dataCache,
		methodCache: methodCache,
		stackCache:  stackCache,
		symbols:     config.Symbols,
	}
	c.pipeline = pipeline.New(pipeline.Config{
		GPR:             gpr,
		PRR:             prr,
		SPR:             spr,
		MainMemory:      mainMemory,
		LocalMemory:     localMemory,
		DataCache:       dataCache,
		MethodCache:     methodCache,
		StackCache:      stackCache,
		StackBlockBytes: timing.StackCacheBlockBytes,
	})
	return c, nil
}

// MainMemory returns the main memory, for program loading through the
// untimed peek interface.
func (c *Core) MainMemory() memory.Memory {
	return c.mainMemory
}

// LocalMemory returns the local scratchpad.
func (c *Core) LocalMemory() *memory.IdealMemory {
	return c.localMemory
}

// GPR returns the general register file.
func (c *Core) GPR() *emu.GPRFile {
	return c.gpr
}

// SPR returns the special register file.
func (c *Core) SPR() *emu.SPRFile {
	return c.spr
}

// Pipeline returns the pipeline timing model.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Cycle returns the number of cycles simulated so far.
func (c *Core) Cycle() uint64 {
	return c.cycle
}

// Init positions the core at the program entry point. The first blocks of
// the entry method are loaded into the method cache without consuming
// simulated time.
func (c *Core) Init(entry uint32) error {
	if err := c.methodCache.Initialize(entry); err != nil {
		return c.stamp(err)
	}
	c.pipeline.Start(entry)
	return nil
}

// InitStack places the shadow stack. Both the stack top and the memory
// spill pointer start at top; reserves grow the stack downward from
// there.
func (c *Core) InitStack(top uint32) {
	c.spr.Write(emu.ST, int32(top))
	c.spr.Write(emu.SS, int32(top))
}

// Step simulates one cycle.
func (c *Core) Step() error {
	c.trace.emit(c)

	if err := c.pipeline.Tick(c.cycle); err != nil {
		return c.stamp(err)
	}
	c.cycle++
	return nil
}

// Run simulates until the program halts, a fault surfaces, or maxCycles
// cycles have elapsed. Zero means no cycle bound. Normal termination
// surfaces as a sim.Error of kind sim.Halt carrying the exit code.
func (c *Core) Run(maxCycles uint64) error {
	for maxCycles == 0 || c.cycle < maxCycles {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// stamp attaches the current cycle and PC to simulation faults.
func (c *Core) stamp(err error) error {
	if se := sim.AsError(err); se != nil {
		se.SetCycle(c.cycle, c.pipeline.PC())
	}
	return err
}
