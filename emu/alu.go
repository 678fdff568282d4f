package emu

// ALU helpers shared by the execute stage. All operate on 32-bit signed
// words; unsigned variants cast through uint32.

// Add returns v1 + v2.
func Add(v1, v2 int32) int32 { return v1 + v2 }

// Sub returns v1 - v2.
func Sub(v1, v2 int32) int32 { return v1 - v2 }

// Rsub returns v2 - v1.
func Rsub(v1, v2 int32) int32 { return v2 - v1 }

// Sl shifts v1 left by the low five bits of v2.
func Sl(v1, v2 int32) int32 { return v1 << (uint32(v2) & 0x1F) }

// Sr shifts v1 right logically by the low five bits of v2.
func Sr(v1, v2 int32) int32 { return int32(uint32(v1) >> (uint32(v2) & 0x1F)) }

// Sra shifts v1 right arithmetically by the low five bits of v2.
func Sra(v1, v2 int32) int32 { return v1 >> (uint32(v2) & 0x1F) }

// Or returns v1 | v2.
func Or(v1, v2 int32) int32 { return v1 | v2 }

// And returns v1 & v2.
func And(v1, v2 int32) int32 { return v1 & v2 }

// Xor returns v1 ^ v2.
func Xor(v1, v2 int32) int32 { return v1 ^ v2 }

// Nor returns ^(v1 | v2).
func Nor(v1, v2 int32) int32 { return ^(v1 | v2) }

// Rl rotates v1 left by the low five bits of v2.
func Rl(v1, v2 int32) int32 {
	s := uint32(v2) & 0x1F
	if s == 0 {
		return v1
	}
	return v1<<s | int32(uint32(v1)>>(32-s))
}

// Rr rotates v1 right by the low five bits of v2.
func Rr(v1, v2 int32) int32 {
	s := uint32(v2) & 0x1F
	if s == 0 {
		return v1
	}
	return int32(uint32(v1)>>s) | v1<<(32-s)
}

// Shadd returns (v1 << 1) + v2.
func Shadd(v1, v2 int32) int32 { return v1<<1 + v2 }

// Shadd2 returns (v1 << 2) + v2.
func Shadd2(v1, v2 int32) int32 { return v1<<2 + v2 }

// Sext8 sign-extends the low byte of v.
func Sext8(v int32) int32 { return int32(int8(v)) }

// Sext16 sign-extends the low half-word of v.
func Sext16(v int32) int32 { return int32(int16(v)) }

// Zext16 zero-extends the low half-word of v.
func Zext16(v int32) int32 { return int32(uint32(v) & 0xFFFF) }

// Abs returns the absolute value of v.
func Abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Mul computes the signed 64-bit product of v1 and v2 and returns its low
// and high words.
func Mul(v1, v2 int32) (low, high int32) {
	p := int64(v1) * int64(v2)
	return int32(p), int32(p >> 32)
}

// MulU computes the unsigned 64-bit product of v1 and v2 and returns its
// low and high words.
func MulU(v1, v2 int32) (low, high int32) {
	p := uint64(uint32(v1)) * uint64(uint32(v2))
	return int32(p), int32(p >> 32)
}

// CmpEq reports v1 == v2.
func CmpEq(v1, v2 int32) bool { return v1 == v2 }

// CmpNeq reports v1 != v2.
func CmpNeq(v1, v2 int32) bool { return v1 != v2 }

// CmpLt reports v1 < v2, signed.
func CmpLt(v1, v2 int32) bool { return v1 < v2 }

// CmpLe reports v1 <= v2, signed.
func CmpLe(v1, v2 int32) bool { return v1 <= v2 }

// CmpULt reports v1 < v2, unsigned.
func CmpULt(v1, v2 int32) bool { return uint32(v1) < uint32(v2) }

// CmpULe reports v1 <= v2, unsigned.
func CmpULe(v1, v2 int32) bool { return uint32(v1) <= uint32(v2) }

// BTest reports whether bit v2 of v1 is set.
func BTest(v1, v2 int32) bool {
	return uint32(v1)&(1<<(uint32(v2)&0x1F)) != 0
}
