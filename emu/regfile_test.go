package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/emu"
)

var _ = Describe("GPRFile", func() {
	var gpr *emu.GPRFile

	BeforeEach(func() {
		gpr = &emu.GPRFile{}
	})

	It("should read back written registers", func() {
		gpr.Write(5, 42)
		Expect(gpr.Read(5)).To(Equal(int32(42)))
	})

	It("should keep r0 wired to zero", func() {
		gpr.Write(0, 42)
		Expect(gpr.Read(0)).To(Equal(int32(0)))
	})

	It("should ignore out-of-range registers", func() {
		gpr.Write(emu.NumGPRs, 42)
		Expect(gpr.Read(emu.NumGPRs)).To(Equal(int32(0)))
	})
})

var _ = Describe("PRRFile", func() {
	var prr *emu.PRRFile

	BeforeEach(func() {
		prr = &emu.PRRFile{}
	})

	It("should read back written predicates", func() {
		Expect(prr.Read(3)).To(BeFalse())
		prr.Write(3, true)
		Expect(prr.Read(3)).To(BeTrue())
	})

	It("should keep p0 wired to true", func() {
		Expect(prr.Read(0)).To(BeTrue())
		prr.Write(0, false)
		Expect(prr.Read(0)).To(BeTrue())
	})
})

var _ = Describe("SPRFile", func() {
	var (
		prr *emu.PRRFile
		spr *emu.SPRFile
	)

	BeforeEach(func() {
		prr = &emu.PRRFile{}
		spr = emu.NewSPRFile(prr)
	})

	It("should read back written registers", func() {
		spr.Write(emu.ST, 0x1000)
		Expect(spr.Read(emu.ST)).To(Equal(int32(0x1000)))
	})

	It("should gather the predicates through s0", func() {
		prr.Write(1, true)
		prr.Write(7, true)
		Expect(spr.Read(emu.S0)).To(Equal(int32(0b10000011)))
	})

	It("should scatter s0 writes into the predicate file", func() {
		spr.Write(emu.S0, 0b00001010)
		Expect(prr.Read(1)).To(BeTrue())
		Expect(prr.Read(2)).To(BeFalse())
		Expect(prr.Read(3)).To(BeTrue())
		Expect(prr.Read(0)).To(BeTrue())
	})

	It("should always report bit zero of s0 as set", func() {
		Expect(spr.Read(emu.S0) & 1).To(Equal(int32(1)))
	})
})
