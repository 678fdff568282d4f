// Package main provides the entry point for patsim, a cycle-accurate
// Patmos processor simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/patsim/loader"
	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/core"
	"github.com/sarchlab/patsim/timing/latency"
)

var (
	configPath = flag.String("config", "", "Path to timing configuration JSON file")
	maxCycles  = flag.Uint64("max-cycles", 0, "Maximum number of cycles to simulate (0 = unbounded)")
	raw        = flag.Bool("raw", false, "Load the program as a raw memory image instead of ELF")
	strict     = flag.Bool("strict", false, "Fault on reads of uninitialized main memory")
	stackBase  = flag.Uint("stack-base", 0, "Initial shadow stack top (default: top of main memory)")

	memoryModel = flag.String("memory", "", "Main memory model: ideal, fixed, tdm, variable")
	methodCache = flag.String("mcache", "", "Method cache model: ideal, lru, fifo")
	stackCache  = flag.String("scache", "", "Stack cache model: ideal, block")
	dataCache   = flag.Bool("dcache", true, "Enable the data cache")

	traceMode = flag.String("trace", "", "Per-cycle trace: reg, pc, blocks, stack")
	traceFrom = flag.Uint64("trace-from", 0, "First cycle to trace")

	printStats = flag.Bool("stats", false, "Print the statistics report after the run")
	slotStats  = flag.Bool("slot-stats", false, "Break instruction statistics out per issue slot")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: patsim [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	programPath := flag.Arg(0)

	prog, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	timingConfig, err := buildTimingConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in timing configuration: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	os.Exit(run(prog, timingConfig))
}

func loadProgram(path string) (*loader.Program, error) {
	if *raw {
		return loader.LoadRaw(path)
	}
	return loader.Load(path)
}

// buildTimingConfig loads the configuration file and applies the model
// overrides from the command line.
func buildTimingConfig() (*latency.TimingConfig, error) {
	var config *latency.TimingConfig
	if *configPath != "" {
		var err error
		config, err = latency.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	} else {
		config = latency.DefaultTimingConfig()
	}

	if *memoryModel != "" {
		config.Model = latency.MemoryModel(*memoryModel)
	}
	if *methodCache != "" {
		config.MethodCacheModel = latency.MethodCacheModel(*methodCache)
	}
	if *stackCache != "" {
		config.StackCacheModel = latency.StackCacheModel(*stackCache)
	}
	config.DataCacheEnabled = *dataCache

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func run(prog *loader.Program, timingConfig *latency.TimingConfig) int {
	c, err := core.New(core.Config{
		Timing:  timingConfig,
		Strict:  *strict,
		Symbols: prog.Symbols,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building core: %v\n", err)
		return 1
	}

	for _, seg := range prog.Segments {
		if err := c.MainMemory().WritePeek(seg.Address, seg.Data); err != nil {
			fmt.Fprintf(os.Stderr, "Error placing program: %v\n", err)
			return 1
		}
		if seg.MemSize > uint32(len(seg.Data)) {
			zeros := make([]byte, seg.MemSize-uint32(len(seg.Data)))
			bss := seg.Address + uint32(len(seg.Data))
			if err := c.MainMemory().WritePeek(bss, zeros); err != nil {
				fmt.Fprintf(os.Stderr, "Error placing program: %v\n", err)
				return 1
			}
		}
	}

	top := uint32(*stackBase)
	if top == 0 {
		top = timingConfig.MainMemorySize
	}
	c.InitStack(top)

	if mode, ok := parseTraceMode(*traceMode); !ok {
		fmt.Fprintf(os.Stderr, "Unknown trace mode %q\n", *traceMode)
		return 1
	} else if mode != core.TraceNone {
		c.SetTrace(os.Stderr, mode, *traceFrom)
	}

	if err := c.Init(prog.EntryPoint); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	exitCode := 0
	err = c.Run(*maxCycles)
	switch se := sim.AsError(err); {
	case err == nil:
		fmt.Fprintf(os.Stderr, "Maximum number of cycles reached\n")
		exitCode = 1
	case se != nil && se.Kind == sim.Halt:
		if *verbose {
			fmt.Printf("\nExit code: %d\n", se.ExitCode())
			fmt.Printf("Cycles: %d\n", c.Cycle())
		}
		exitCode = se.ExitCode()
	case se != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", se)
		exitCode = se.ExitCode()
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = 1
	}

	if *printStats {
		c.Report(os.Stdout, *slotStats)
	}
	return exitCode
}

func parseTraceMode(s string) (core.TraceMode, bool) {
	switch s {
	case "":
		return core.TraceNone, true
	case "reg":
		return core.TraceRegisters, true
	case "pc":
		return core.TracePC, true
	case "blocks":
		return core.TraceBlocks, true
	case "stack":
		return core.TraceStack, true
	}
	return core.TraceNone, false
}
