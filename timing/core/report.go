package core

import (
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/patsim/emu"
	"github.com/sarchlab/patsim/insts"
	"github.com/sarchlab/patsim/timing/cache"
	"github.com/sarchlab/patsim/timing/memory"
	"github.com/sarchlab/patsim/timing/pipeline"
)

// printRegisters dumps the architectural register state.
func (c *Core) printRegisters(w io.Writer) {
	fmt.Fprintf(w, "\nCyc : %d\n PRR: ", c.cycle)
	for p := emu.NumPRRs - 1; p >= 0; p-- {
		if c.prr.Read(uint8(p)) {
			fmt.Fprint(w, "1")
		} else {
			fmt.Fprint(w, "0")
		}
	}
	fmt.Fprintf(w, "  BASE: %08x   PC : %08x   ", c.pipeline.Base(), c.pipeline.PC())
	if c.symbols != nil {
		c.symbols.Print(w, c.pipeline.PC())
	}
	fmt.Fprint(w, "\n ")

	for r := 0; r < emu.NumGPRs; r++ {
		fmt.Fprintf(w, "r%-2d: %08x", r, uint32(c.gpr.Read(uint8(r))))
		if r&0x7 == 7 {
			fmt.Fprint(w, "\n ")
		} else {
			fmt.Fprint(w, "   ")
		}
	}
	for s := 0; s < emu.NumSPRs; s++ {
		fmt.Fprintf(w, "s%-2d: %08x", s, uint32(c.spr.Read(uint8(s))))
		if s&0x7 == 7 {
			fmt.Fprint(w, "\n ")
		} else {
			fmt.Fprint(w, "   ")
		}
	}
	fmt.Fprintln(w)
}

// Report writes the register state and the statistics of the pipeline and
// the memory hierarchy. With slotStats enabled the instruction counters
// are broken out per issue slot instead of summed.
func (c *Core) Report(w io.Writer, slotStats bool) {
	c.printRegisters(w)
	c.printInstructionStats(w, slotStats)
	c.printStallCycles(w)
	c.printMethodCacheStats(w)
	c.printDataCacheStats(w)
	c.printStackCacheStats(w)
	c.printMemoryStats(w)
}

func (c *Core) printInstructionStats(w io.Writer, slotStats bool) {
	stats := c.pipeline.Stats()

	numColumns := 1
	if slotStats {
		numColumns = pipeline.NumSlots
	}

	fmt.Fprintf(w, "\n\nInstruction Statistics:\n   %15s:", "instruction")
	for j := 0; j < numColumns; j++ {
		fmt.Fprintf(w, " %10s %10s %10s", "#fetched", "#retired", "#discarded")
	}
	fmt.Fprintln(w)

	var totalFetched, totalRetired, totalDiscarded [pipeline.NumSlots]uint64
	for op := insts.OpAdd; op <= insts.OpBne; op++ {
		var fetched, retired, discarded [pipeline.NumSlots]uint64
		for j := 0; j < pipeline.NumSlots; j++ {
			st := stats.PerOp[j][op]
			if st == nil {
				continue
			}
			col := 0
			if slotStats {
				col = j
			}
			fetched[col] += st.Fetched
			retired[col] += st.Retired
			discarded[col] += st.Discarded
		}

		fmt.Fprintf(w, "   %15s:", op)
		for j := 0; j < numColumns; j++ {
			fmt.Fprintf(w, " %10d %10d %10d", fetched[j], retired[j], discarded[j])
			totalFetched[j] += fetched[j]
			totalRetired[j] += retired[j]
			totalDiscarded[j] += discarded[j]
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "   %15s:", "all")
	for j := 0; j < numColumns; j++ {
		fmt.Fprintf(w, " %10d %10d %10d", totalFetched[j], totalRetired[j], totalDiscarded[j])
	}
	fmt.Fprintln(w)

	var bubbles [pipeline.NumSlots]uint64
	for j := 0; j < pipeline.NumSlots; j++ {
		col := 0
		if slotStats {
			col = j
		}
		bubbles[col] += stats.BubblesRetired[j]
	}
	fmt.Fprintf(w, "   %15s:", "bubbles")
	for j := 0; j < numColumns; j++ {
		fmt.Fprintf(w, " %10s %10d %10s", "-", bubbles[j], "-")
	}
	fmt.Fprintln(w)
}

func (c *Core) printStallCycles(w io.Writer) {
	stats := c.pipeline.Stats()

	fmt.Fprintf(w, "\nStall Cycles:\n")
	for st := pipeline.StageDR; st < pipeline.NumStages; st++ {
		fmt.Fprintf(w, "   %v: %d\n", st, stats.StallCycles[st])
	}
}

func (c *Core) printMethodCacheStats(w io.Writer) {
	stats := c.methodCache.Stats()

	fmt.Fprintf(w, "\nMethod Cache Statistics:\n")
	fmt.Fprintf(w, "   hits                  : %d\n", stats.Hits)
	fmt.Fprintf(w, "   misses                : %d\n", stats.Misses)
	fmt.Fprintf(w, "   stall cycles          : %d\n", stats.StallCycles)
	fmt.Fprintf(w, "   blocks transferred    : %d (max %d)\n",
		stats.BlocksTransferred, stats.MaxBlocksTransferred)
	fmt.Fprintf(w, "   bytes transferred     : %d (max %d)\n",
		stats.BytesTransferred, stats.MaxBytesTransferred)

	if len(stats.PerMethod) == 0 {
		return
	}
	addresses := make([]uint32, 0, len(stats.PerMethod))
	for address := range stats.PerMethod {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i] < addresses[j] })

	fmt.Fprintf(w, "   %10s %10s  method\n", "#hits", "#misses")
	for _, address := range addresses {
		m := stats.PerMethod[address]
		fmt.Fprintf(w, "   %10d %10d  %08x ", m.Hits, m.Misses, address)
		if c.symbols != nil {
			c.symbols.Print(w, address)
		}
		fmt.Fprintln(w)
	}
}

func (c *Core) printDataCacheStats(w io.Writer) {
	dc, ok := c.dataCache.(interface{ Stats() cache.Statistics })
	if !ok {
		return
	}
	stats := dc.Stats()

	fmt.Fprintf(w, "\nData Cache Statistics:\n")
	fmt.Fprintf(w, "   reads                 : %d\n", stats.Reads)
	fmt.Fprintf(w, "   writes                : %d\n", stats.Writes)
	fmt.Fprintf(w, "   hits                  : %d\n", stats.Hits)
	fmt.Fprintf(w, "   misses                : %d\n", stats.Misses)
	fmt.Fprintf(w, "   evictions             : %d\n", stats.Evictions)
	fmt.Fprintf(w, "   bytes transferred     : %d\n", stats.BytesTransferred)
}

func (c *Core) printStackCacheStats(w io.Writer) {
	stats := c.stackCache.Stats()

	fmt.Fprintf(w, "\nStack Cache Statistics:\n")
	fmt.Fprintf(w, "   blocks spilled        : %d (max %d)\n",
		stats.BlocksSpilled, stats.MaxBlocksSpilled)
	fmt.Fprintf(w, "   blocks filled         : %d (max %d)\n",
		stats.BlocksFilled, stats.MaxBlocksFilled)
	fmt.Fprintf(w, "   blocks reserved       : %d (max %d)\n",
		stats.BlocksReservedTotal, stats.MaxBlocksReserved)
	fmt.Fprintf(w, "   max blocks allocated  : %d\n", stats.MaxBlocksAllocated)
	fmt.Fprintf(w, "   reads                 : %d (%d bytes)\n",
		stats.Reads, stats.BytesRead)
	fmt.Fprintf(w, "   writes                : %d (%d bytes)\n",
		stats.Writes, stats.BytesWritten)
	fmt.Fprintf(w, "   emptying frees        : %d\n", stats.EmptyingFrees)
}

func (c *Core) printMemoryStats(w io.Writer) {
	mm, ok := c.mainMemory.(interface{ Stats() memory.Statistics })
	if !ok {
		return
	}
	stats := mm.Stats()

	fmt.Fprintf(w, "\nMain Memory Statistics:\n")
	fmt.Fprintf(w, "   reads                 : %d (%d bytes)\n",
		stats.Reads, stats.BytesRead)
	fmt.Fprintf(w, "   writes                : %d (%d bytes)\n",
		stats.Writes, stats.BytesWritten)
	fmt.Fprintf(w, "   bytes transferred     : %d\n", stats.TotalBytesTransferred())
	fmt.Fprintf(w, "   stall cycles          : %d\n", stats.StallCycles())
	fmt.Fprintf(w, "   max queue size        : %d\n", stats.MaxQueueSize)
	fmt.Fprintf(w, "   consecutive requests  : %d\n", stats.ConsecutiveRequests)

	if len(stats.RequestsPerSize) == 0 {
		return
	}
	sizes := make([]uint32, 0, len(stats.RequestsPerSize))
	for size := range stats.RequestsPerSize {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	fmt.Fprintf(w, "   %10s %10s\n", "size", "#requests")
	for _, size := range sizes {
		fmt.Fprintf(w, "   %10d %10d\n", size, stats.RequestsPerSize[size])
	}
}
