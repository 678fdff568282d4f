// Package insts provides Patmos instruction definitions and bundle
// decoding.
//
// Patmos instructions are 32-bit words fetched in bundles of one or two.
// Bit 31 of the first word marks a dual-issue bundle; long-immediate ALU
// instructions occupy both issue slots, with the immediate in the second
// word. Every instruction carries a predicate guard.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	bundle := decoder.Decode(w0, w1)
//	for _, inst := range bundle.Slots() {
//		fmt.Printf("Op: %v, Rd: %d\n", inst.Op, inst.Rd)
//	}
package insts

// Op represents a Patmos operation.
type Op uint16

// Patmos operations.
const (
	OpUnknown Op = iota

	// Binary ALU operations, shared by the immediate, long-immediate and
	// register formats.
	OpAdd
	OpSub
	OpXor
	OpSl
	OpSr
	OpSra
	OpOr
	OpAnd
	OpRsub
	OpRl
	OpRr
	OpNor
	OpShadd
	OpShadd2

	// Multiply, writing the low and high special registers.
	OpMul
	OpMulU

	// Compares, writing a predicate register.
	OpCmpEq
	OpCmpNeq
	OpCmpLt
	OpCmpLe
	OpCmpULt
	OpCmpULe
	OpBTest

	// Predicate combine operations.
	OpPor
	OpPand
	OpPxor

	// Special register moves and the decoupled-load wait.
	OpWait
	OpMts
	OpMfs

	// Typed memory accesses. Area, Type and the decoupled flag refine
	// these.
	OpLoad
	OpLoadDec
	OpStore

	// Stack cache control.
	OpSres
	OpSens
	OpSfree

	// Control flow.
	OpCall
	OpB
	OpCallR
	OpBr
	OpRet
	OpBne
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpAdd:     "add",
	OpSub:     "sub",
	OpXor:     "xor",
	OpSl:      "sl",
	OpSr:      "sr",
	OpSra:     "sra",
	OpOr:      "or",
	OpAnd:     "and",
	OpRsub:    "rsub",
	OpRl:      "rl",
	OpRr:      "rr",
	OpNor:     "nor",
	OpShadd:   "shadd",
	OpShadd2:  "shadd2",
	OpMul:     "mul",
	OpMulU:    "mulu",
	OpCmpEq:   "cmpeq",
	OpCmpNeq:  "cmpneq",
	OpCmpLt:   "cmplt",
	OpCmpLe:   "cmple",
	OpCmpULt:  "cmpult",
	OpCmpULe:  "cmpule",
	OpBTest:   "btest",
	OpPor:     "por",
	OpPand:    "pand",
	OpPxor:    "pxor",
	OpWait:    "wait",
	OpMts:     "mts",
	OpMfs:     "mfs",
	OpLoad:    "load",
	OpLoadDec: "dload",
	OpStore:   "store",
	OpSres:    "sres",
	OpSens:    "sens",
	OpSfree:   "sfree",
	OpCall:    "call",
	OpB:       "b",
	OpCallR:   "callr",
	OpBr:      "br",
	OpRet:     "ret",
	OpBne:     "bne",
}

// String returns the mnemonic of the operation.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatALUi          // ALU with 12-bit immediate
	FormatALUl          // ALU with 32-bit immediate in the second word
	FormatALUr          // ALU register-register
	FormatALUm          // Multiply
	FormatALUc          // Compare to predicate
	FormatALUci         // Compare against 5-bit immediate
	FormatALUp          // Predicate combine
	FormatSPC           // Special register move or wait
	FormatLDT           // Typed load
	FormatSTT           // Typed store
	FormatSTC           // Stack cache control
	FormatCFLi          // Control flow with immediate
	FormatCFLri         // Return
	FormatCFLrs         // Control flow through register
	FormatBNE           // Compare-and-branch
)

// MemArea selects the memory area of a typed access.
type MemArea uint8

// Memory areas.
const (
	AreaStack MemArea = iota // stack cache
	AreaLocal                // local scratchpad
	AreaCache                // data cache
	AreaMain                 // main memory, bypassing the cache
)

// MemType gives the width and extension of a typed access.
type MemType uint8

// Access types.
const (
	MemWord  MemType = iota // 32-bit word
	MemHalf                 // sign-extended half-word
	MemByte                 // sign-extended byte
	MemHalfU                // zero-extended half-word
	MemByteU                // zero-extended byte
)

// SizeOf returns the access width in bytes.
func (t MemType) SizeOf() uint32 {
	switch t {
	case MemWord:
		return 4
	case MemHalf, MemHalfU:
		return 2
	default:
		return 1
	}
}

// Instruction represents a decoded Patmos instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format

	// Predicate guard: the instruction commits only if predicate Pred,
	// negated if PredNeg, holds.
	Pred    uint8
	PredNeg bool

	// Register operands.
	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	// Predicate operands for compares and combines.
	Pd     uint8
	Ps1    uint8
	Ps2    uint8
	Ps1Neg bool
	Ps2Neg bool

	// Special register operand for mts/mfs.
	Sd uint8
	Ss uint8

	// Immediate operand, sign- or zero-extended per format. Load and
	// store displacements are in units of the access size.
	Imm int32

	// Typed access refinement for loads and stores.
	Area MemArea
	Type MemType
}

// Bundle is a fetched and decoded issue bundle.
type Bundle struct {
	First  *Instruction
	Second *Instruction // nil unless dual-issue

	// NumWords is the total fetch width of the bundle in words, counting
	// long immediates.
	NumWords uint32
}

// Slots returns the instructions of the bundle in issue order.
func (b *Bundle) Slots() []*Instruction {
	if b.Second == nil {
		return []*Instruction{b.First}
	}
	return []*Instruction{b.First, b.Second}
}

// IsNop reports whether the instruction is the canonical no-op, a subtract
// immediate discarding its result into r0.
func (i *Instruction) IsNop() bool {
	return i.Format == FormatALUi && i.Op == OpSub && i.Rd == 0
}
