package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/emu"
)

var _ = Describe("ALU", func() {
	It("should add and subtract", func() {
		Expect(emu.Add(3, 4)).To(Equal(int32(7)))
		Expect(emu.Add(0x7FFFFFFF, 1)).To(Equal(int32(-0x80000000)))
		Expect(emu.Sub(3, 4)).To(Equal(int32(-1)))
		Expect(emu.Rsub(3, 4)).To(Equal(int32(1)))
	})

	It("should shift by the low five bits only", func() {
		Expect(emu.Sl(1, 4)).To(Equal(int32(16)))
		Expect(emu.Sl(1, 33)).To(Equal(int32(2)))
		Expect(emu.Sr(-1, 28)).To(Equal(int32(0xF)))
		Expect(emu.Sra(-16, 2)).To(Equal(int32(-4)))
		Expect(emu.Sra(16, 2)).To(Equal(int32(4)))
	})

	It("should compute bitwise operations", func() {
		Expect(emu.Or(0x0F, 0xF0)).To(Equal(int32(0xFF)))
		Expect(emu.And(0x0F, 0xFC)).To(Equal(int32(0x0C)))
		Expect(emu.Xor(0x0F, 0xFF)).To(Equal(int32(0xF0)))
		Expect(emu.Nor(0, 0)).To(Equal(int32(-1)))
	})

	It("should rotate", func() {
		Expect(emu.Rl(1, 1)).To(Equal(int32(2)))
		Expect(emu.Rl(-0x80000000, 1)).To(Equal(int32(1)))
		Expect(emu.Rr(1, 1)).To(Equal(int32(-0x80000000)))
		Expect(emu.Rl(0x12345678, 0)).To(Equal(int32(0x12345678)))
		Expect(emu.Rr(0x12345678, 32)).To(Equal(int32(0x12345678)))
	})

	It("should compute shift-and-add", func() {
		Expect(emu.Shadd(3, 1)).To(Equal(int32(7)))
		Expect(emu.Shadd2(3, 1)).To(Equal(int32(13)))
	})

	It("should extend sub-word values", func() {
		Expect(emu.Sext8(0xFF)).To(Equal(int32(-1)))
		Expect(emu.Sext8(0x7F)).To(Equal(int32(0x7F)))
		Expect(emu.Sext16(0x8000)).To(Equal(int32(-0x8000)))
		Expect(emu.Zext16(-1)).To(Equal(int32(0xFFFF)))
	})

	It("should compute absolute values", func() {
		Expect(emu.Abs(-5)).To(Equal(int32(5)))
		Expect(emu.Abs(5)).To(Equal(int32(5)))
	})

	It("should multiply signed", func() {
		low, high := emu.Mul(-2, 3)
		Expect(low).To(Equal(int32(-6)))
		Expect(high).To(Equal(int32(-1)))

		low, high = emu.Mul(0x10000, 0x10000)
		Expect(low).To(Equal(int32(0)))
		Expect(high).To(Equal(int32(1)))
	})

	It("should multiply unsigned", func() {
		low, high := emu.MulU(-1, 2)
		Expect(uint32(low)).To(Equal(uint32(0xFFFFFFFE)))
		Expect(high).To(Equal(int32(1)))
	})

	It("should compare signed and unsigned", func() {
		Expect(emu.CmpEq(1, 1)).To(BeTrue())
		Expect(emu.CmpNeq(1, 2)).To(BeTrue())
		Expect(emu.CmpLt(-1, 0)).To(BeTrue())
		Expect(emu.CmpLe(0, 0)).To(BeTrue())
		Expect(emu.CmpULt(-1, 0)).To(BeFalse())
		Expect(emu.CmpULt(0, -1)).To(BeTrue())
		Expect(emu.CmpULe(-1, -1)).To(BeTrue())
	})

	It("should test bits", func() {
		Expect(emu.BTest(4, 2)).To(BeTrue())
		Expect(emu.BTest(4, 1)).To(BeFalse())
		Expect(emu.BTest(-0x80000000, 31)).To(BeTrue())
	})
})
