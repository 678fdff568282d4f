package core

import (
	"fmt"
	"io"
)

// TraceMode selects what a core emits to its trace writer each cycle.
type TraceMode int

const (
	// TraceNone disables tracing.
	TraceNone TraceMode = iota
	// TraceRegisters dumps the full register state.
	TraceRegisters
	// TracePC emits one line of PC and cycle per cycle.
	TracePC
	// TraceBlocks emits a line whenever the PC enters a symbol.
	TraceBlocks
	// TraceStack emits stack cache occupancy changes.
	TraceStack
)

// tracer emits per-cycle debug output once the start cycle is reached.
type tracer struct {
	w    io.Writer
	mode TraceMode
	from uint64
}

// SetTrace directs per-cycle trace output to w, starting at cycle from.
func (c *Core) SetTrace(w io.Writer, mode TraceMode, from uint64) {
	c.trace = tracer{w: w, mode: mode, from: from}
}

// emit writes the trace line for the cycle about to execute.
func (t *tracer) emit(c *Core) {
	if t.w == nil || t.mode == TraceNone || c.cycle < t.from {
		return
	}

	switch t.mode {
	case TraceRegisters:
		c.printRegisters(t.w)
	case TracePC:
		fmt.Fprintf(t.w, "%08x %d\n", c.pipeline.PC(), c.cycle)
	case TraceBlocks:
		pc := c.pipeline.PC()
		if c.symbols != nil && c.symbols.Covers(pc) {
			fmt.Fprintf(t.w, "%08x %9d ", pc, c.cycle)
			c.symbols.Print(t.w, pc)
			fmt.Fprintln(t.w)
		}
	case TraceStack:
		c.stackCache.Trace(t.w, c.cycle)
	}
}
