// Package emu provides the Patmos architectural state: the general,
// predicate and special register files, and the ALU helpers shared by the
// execute stage.
package emu

// Well-known general-purpose register indices.
const (
	// ExitCodeReg holds the program's exit code at halt.
	ExitCodeReg = 1
	// ReturnBaseReg receives the caller's method base on call.
	ReturnBaseReg = 30
	// ReturnOffsetReg receives the caller's method offset on call.
	ReturnOffsetReg = 31
)

// Special-purpose register indices with defined roles.
const (
	// S0 aggregates the predicate registers; bit 0 always reads 1.
	S0 = 0
	// SL is the multiply result low word. It doubles as the landing port
	// for decoupled-load results.
	SL = 2
	// SH is the multiply result high word.
	SH = 3
	// SM is the decoupled-load result port.
	SM = SL
	// SS is the memory-side stack spill pointer.
	SS = 5
	// ST is the stack top pointer.
	ST = 6
	// SRB and SRO mirror the return base and offset for interrupt returns.
	SRB = 7
	SRO = 8
	// SXB and SXO hold the exception base and offset.
	SXB = 9
	SXO = 10
	// SCL and SCH expose the cycle counter low and high words; the core
	// refreshes them every cycle.
	SCL = 14
	SCH = 15
)

// NumGPRs, NumPRRs and NumSPRs give the register file sizes.
const (
	NumGPRs = 32
	NumPRRs = 8
	NumSPRs = 32
)

// GPRFile is the general-purpose register file. Register 0 is wired to
// zero.
type GPRFile struct {
	regs [NumGPRs]int32
}

// Read returns the value of a general-purpose register.
func (r *GPRFile) Read(reg uint8) int32 {
	if reg == 0 || reg >= NumGPRs {
		return 0
	}
	return r.regs[reg]
}

// Write sets a general-purpose register. Writes to r0 are ignored.
func (r *GPRFile) Write(reg uint8, value int32) {
	if reg == 0 || reg >= NumGPRs {
		return
	}
	r.regs[reg] = value
}

// PRRFile is the predicate register file. Predicate 0 is wired to true.
type PRRFile struct {
	preds [NumPRRs]bool
}

// Read returns the value of a predicate register.
func (r *PRRFile) Read(pred uint8) bool {
	if pred == 0 {
		return true
	}
	if pred >= NumPRRs {
		return false
	}
	return r.preds[pred]
}

// Write sets a predicate register. Writes to p0 are ignored.
func (r *PRRFile) Write(pred uint8, value bool) {
	if pred == 0 || pred >= NumPRRs {
		return
	}
	r.preds[pred] = value
}

// SPRFile is the special-purpose register file. Index S0 is an aggregate
// view over the predicate file: reads gather p0..p7 into the low bits,
// writes scatter bits 1..7 into p1..p7.
type SPRFile struct {
	regs [NumSPRs]int32
	prr  *PRRFile
}

// NewSPRFile creates a special register file bound to a predicate file.
func NewSPRFile(prr *PRRFile) *SPRFile {
	return &SPRFile{prr: prr}
}

// Read returns the value of a special register.
func (r *SPRFile) Read(reg uint8) int32 {
	if reg >= NumSPRs {
		return 0
	}
	if reg == S0 && r.prr != nil {
		v := int32(0)
		for p := uint8(0); p < NumPRRs; p++ {
			if r.prr.Read(p) {
				v |= 1 << p
			}
		}
		return v
	}
	return r.regs[reg]
}

// Write sets a special register.
func (r *SPRFile) Write(reg uint8, value int32) {
	if reg >= NumSPRs {
		return
	}
	if reg == S0 && r.prr != nil {
		for p := uint8(1); p < NumPRRs; p++ {
			r.prr.Write(p, value&(1<<p) != 0)
		}
		return
	}
	r.regs[reg] = value
}
