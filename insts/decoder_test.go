package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	decodeOne := func(word uint32) *insts.Instruction {
		bundle := decoder.Decode(word, 0)
		Expect(bundle.NumWords).To(Equal(uint32(1)))
		Expect(bundle.Second).To(BeNil())
		return bundle.First
	}

	Context("ALU immediate", func() {
		It("should decode add immediate", func() {
			inst := decodeOne(insts.ALUi(insts.OpAdd, 3, 4, 100))

			Expect(inst.Op).To(Equal(insts.OpAdd))
			Expect(inst.Format).To(Equal(insts.FormatALUi))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(4)))
			Expect(inst.Imm).To(Equal(int32(100)))
			Expect(inst.Pred).To(Equal(uint8(0)))
			Expect(inst.PredNeg).To(BeFalse())
		})

		It("should zero-extend the 12-bit immediate", func() {
			inst := decodeOne(insts.ALUi(insts.OpOr, 1, 1, 0xFFF))
			Expect(inst.Imm).To(Equal(int32(0xFFF)))
		})

		It("should decode every immediate function", func() {
			ops := []insts.Op{
				insts.OpAdd, insts.OpSub, insts.OpXor, insts.OpSl,
				insts.OpSr, insts.OpSra, insts.OpOr, insts.OpAnd,
			}
			for _, op := range ops {
				inst := decodeOne(insts.ALUi(op, 2, 3, 1))
				Expect(inst.Op).To(Equal(op))
			}
		})

		It("should decode the guard", func() {
			inst := decodeOne(insts.Guarded(insts.ALUi(insts.OpAdd, 1, 1, 1), true, 5))

			Expect(inst.Pred).To(Equal(uint8(5)))
			Expect(inst.PredNeg).To(BeTrue())
			Expect(inst.Op).To(Equal(insts.OpAdd))
		})

		It("should recognize the canonical no-op", func() {
			inst := decodeOne(insts.Nop())
			Expect(inst.IsNop()).To(BeTrue())

			other := decodeOne(insts.ALUi(insts.OpSub, 1, 0, 0))
			Expect(other.IsNop()).To(BeFalse())
		})
	})

	Context("ALU long immediate", func() {
		It("should take the immediate from the second word", func() {
			w0, w1 := insts.ALUl(insts.OpAdd, 7, 8, 0xDEADBEEF)
			bundle := decoder.Decode(w0, w1)

			Expect(bundle.NumWords).To(Equal(uint32(2)))
			Expect(bundle.Second).To(BeNil())
			Expect(bundle.First.Op).To(Equal(insts.OpAdd))
			Expect(bundle.First.Format).To(Equal(insts.FormatALUl))
			Expect(bundle.First.Rd).To(Equal(uint8(7)))
			Expect(bundle.First.Rs1).To(Equal(uint8(8)))
			Expect(uint32(bundle.First.Imm)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should cover the register-only functions", func() {
			ops := []insts.Op{
				insts.OpRsub, insts.OpRl, insts.OpRr, insts.OpNor,
				insts.OpShadd, insts.OpShadd2,
			}
			for _, op := range ops {
				w0, w1 := insts.ALUl(op, 1, 2, 0)
				bundle := decoder.Decode(w0, w1)
				Expect(bundle.First.Op).To(Equal(op))
			}
		})

		It("should reject a long immediate in the second slot", func() {
			w1, _ := insts.ALUl(insts.OpAdd, 1, 1, 0)
			bundle := decoder.Decode(insts.Dual(insts.Nop()), w1)

			Expect(bundle.NumWords).To(Equal(uint32(2)))
			Expect(bundle.Second).NotTo(BeNil())
			Expect(bundle.Second.Op).To(Equal(insts.OpUnknown))
		})
	})

	Context("register ALU", func() {
		It("should decode register-register operations", func() {
			inst := decodeOne(insts.ALUr(insts.OpShadd2, 5, 6, 7))

			Expect(inst.Op).To(Equal(insts.OpShadd2))
			Expect(inst.Format).To(Equal(insts.FormatALUr))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(6)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
		})

		It("should decode every register function", func() {
			ops := []insts.Op{
				insts.OpAdd, insts.OpSub, insts.OpXor, insts.OpSl,
				insts.OpSr, insts.OpSra, insts.OpOr, insts.OpAnd,
				insts.OpRsub, insts.OpRl, insts.OpRr, insts.OpNor,
				insts.OpShadd, insts.OpShadd2,
			}
			for _, op := range ops {
				inst := decodeOne(insts.ALUr(op, 2, 3, 4))
				Expect(inst.Op).To(Equal(op))
				Expect(inst.Format).To(Equal(insts.FormatALUr))
			}
		})

		It("should decode multiplies", func() {
			inst := decodeOne(insts.ALUm(insts.OpMul, 1, 2))
			Expect(inst.Op).To(Equal(insts.OpMul))
			Expect(inst.Format).To(Equal(insts.FormatALUm))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))

			inst = decodeOne(insts.ALUm(insts.OpMulU, 1, 2))
			Expect(inst.Op).To(Equal(insts.OpMulU))
		})

		It("should decode compares", func() {
			inst := decodeOne(insts.ALUc(insts.OpCmpULt, 3, 4, 5))

			Expect(inst.Op).To(Equal(insts.OpCmpULt))
			Expect(inst.Format).To(Equal(insts.FormatALUc))
			Expect(inst.Pd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(4)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
		})

		It("should decode compares against immediates", func() {
			inst := decodeOne(insts.ALUci(insts.OpCmpEq, 2, 9, 31))

			Expect(inst.Op).To(Equal(insts.OpCmpEq))
			Expect(inst.Format).To(Equal(insts.FormatALUci))
			Expect(inst.Pd).To(Equal(uint8(2)))
			Expect(inst.Rs1).To(Equal(uint8(9)))
			Expect(inst.Imm).To(Equal(int32(31)))
		})

		It("should decode predicate combines with negation", func() {
			inst := decodeOne(insts.ALUp(insts.OpPand, 1, 2|0x8, 3))

			Expect(inst.Op).To(Equal(insts.OpPand))
			Expect(inst.Format).To(Equal(insts.FormatALUp))
			Expect(inst.Pd).To(Equal(uint8(1)))
			Expect(inst.Ps1).To(Equal(uint8(2)))
			Expect(inst.Ps1Neg).To(BeTrue())
			Expect(inst.Ps2).To(Equal(uint8(3)))
			Expect(inst.Ps2Neg).To(BeFalse())
		})
	})

	Context("special registers", func() {
		It("should decode wait", func() {
			inst := decodeOne(insts.Wait())
			Expect(inst.Op).To(Equal(insts.OpWait))
			Expect(inst.Format).To(Equal(insts.FormatSPC))
		})

		It("should decode mts", func() {
			inst := decodeOne(insts.Mts(6, 11))
			Expect(inst.Op).To(Equal(insts.OpMts))
			Expect(inst.Sd).To(Equal(uint8(6)))
			Expect(inst.Rs1).To(Equal(uint8(11)))
		})

		It("should decode mfs", func() {
			inst := decodeOne(insts.Mfs(12, 2))
			Expect(inst.Op).To(Equal(insts.OpMfs))
			Expect(inst.Rd).To(Equal(uint8(12)))
			Expect(inst.Ss).To(Equal(uint8(2)))
		})
	})

	Context("typed memory access", func() {
		It("should decode a word load from the data cache", func() {
			inst := decodeOne(insts.Load(insts.MemWord, insts.AreaCache, 4, 5, -3))

			Expect(inst.Op).To(Equal(insts.OpLoad))
			Expect(inst.Format).To(Equal(insts.FormatLDT))
			Expect(inst.Rd).To(Equal(uint8(4)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
			Expect(inst.Area).To(Equal(insts.AreaCache))
			Expect(inst.Type).To(Equal(insts.MemWord))
			Expect(inst.Imm).To(Equal(int32(-3)))
		})

		It("should decode every load area and width", func() {
			areas := []insts.MemArea{
				insts.AreaStack, insts.AreaLocal, insts.AreaCache, insts.AreaMain,
			}
			types := []insts.MemType{
				insts.MemWord, insts.MemHalf, insts.MemByte,
				insts.MemHalfU, insts.MemByteU,
			}
			for _, area := range areas {
				for _, t := range types {
					inst := decodeOne(insts.Load(t, area, 1, 2, 0))
					Expect(inst.Op).To(Equal(insts.OpLoad))
					Expect(inst.Area).To(Equal(area))
					Expect(inst.Type).To(Equal(t))
				}
			}
		})

		It("should decode decoupled loads", func() {
			inst := decodeOne(insts.LoadDec(insts.MemHalf, insts.AreaMain, 3, 2))

			Expect(inst.Op).To(Equal(insts.OpLoadDec))
			Expect(inst.Area).To(Equal(insts.AreaMain))
			Expect(inst.Type).To(Equal(insts.MemHalf))
			Expect(inst.Rs1).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int32(2)))

			inst = decodeOne(insts.LoadDec(insts.MemWord, insts.AreaCache, 1, 0))
			Expect(inst.Area).To(Equal(insts.AreaCache))
			Expect(inst.Type).To(Equal(insts.MemWord))
		})

		It("should decode stores", func() {
			inst := decodeOne(insts.Store(insts.MemByte, insts.AreaMain, 6, 7, -1))

			Expect(inst.Op).To(Equal(insts.OpStore))
			Expect(inst.Format).To(Equal(insts.FormatSTT))
			Expect(inst.Rs1).To(Equal(uint8(6)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
			Expect(inst.Area).To(Equal(insts.AreaMain))
			Expect(inst.Type).To(Equal(insts.MemByte))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should report access widths", func() {
			Expect(insts.MemWord.SizeOf()).To(Equal(uint32(4)))
			Expect(insts.MemHalf.SizeOf()).To(Equal(uint32(2)))
			Expect(insts.MemHalfU.SizeOf()).To(Equal(uint32(2)))
			Expect(insts.MemByte.SizeOf()).To(Equal(uint32(1)))
			Expect(insts.MemByteU.SizeOf()).To(Equal(uint32(1)))
		})
	})

	Context("stack cache control", func() {
		It("should decode reserve, ensure and free", func() {
			inst := decodeOne(insts.Sres(5))
			Expect(inst.Op).To(Equal(insts.OpSres))
			Expect(inst.Format).To(Equal(insts.FormatSTC))
			Expect(inst.Imm).To(Equal(int32(5)))

			inst = decodeOne(insts.Sens(7))
			Expect(inst.Op).To(Equal(insts.OpSens))
			Expect(inst.Imm).To(Equal(int32(7)))

			inst = decodeOne(insts.Sfree(5))
			Expect(inst.Op).To(Equal(insts.OpSfree))
			Expect(inst.Imm).To(Equal(int32(5)))
		})
	})

	Context("control flow", func() {
		It("should decode call with an absolute word address", func() {
			inst := decodeOne(insts.Call(0x100))
			Expect(inst.Op).To(Equal(insts.OpCall))
			Expect(inst.Format).To(Equal(insts.FormatCFLi))
			Expect(inst.Imm).To(Equal(int32(0x100)))
		})

		It("should sign-extend branch offsets", func() {
			inst := decodeOne(insts.B(-2))
			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Imm).To(Equal(int32(-2)))

			inst = decodeOne(insts.B(3))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("should decode compare-and-branch", func() {
			inst := decodeOne(insts.Bne(2, 3, -4))
			Expect(inst.Op).To(Equal(insts.OpBne))
			Expect(inst.Format).To(Equal(insts.FormatBNE))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int32(-4)))
		})

		It("should decode return", func() {
			inst := decodeOne(insts.Ret())
			Expect(inst.Op).To(Equal(insts.OpRet))
			Expect(inst.Format).To(Equal(insts.FormatCFLri))
		})

		It("should decode register call and branch", func() {
			inst := decodeOne(insts.CallR(9))
			Expect(inst.Op).To(Equal(insts.OpCallR))
			Expect(inst.Format).To(Equal(insts.FormatCFLrs))
			Expect(inst.Rs1).To(Equal(uint8(9)))

			inst = decodeOne(insts.Br(10))
			Expect(inst.Op).To(Equal(insts.OpBr))
			Expect(inst.Rs1).To(Equal(uint8(10)))
		})
	})

	Context("bundles", func() {
		It("should decode a dual-issue bundle", func() {
			bundle := decoder.Decode(
				insts.Dual(insts.ALUi(insts.OpAdd, 1, 0, 1)),
				insts.ALUi(insts.OpAdd, 2, 0, 2))

			Expect(bundle.NumWords).To(Equal(uint32(2)))
			Expect(bundle.Second).NotTo(BeNil())
			Expect(bundle.First.Rd).To(Equal(uint8(1)))
			Expect(bundle.Second.Rd).To(Equal(uint8(2)))
			Expect(bundle.Slots()).To(HaveLen(2))
		})

		It("should decode a single-issue bundle", func() {
			bundle := decoder.Decode(insts.ALUi(insts.OpAdd, 1, 0, 1), 0xFFFFFFFF)

			Expect(bundle.NumWords).To(Equal(uint32(1)))
			Expect(bundle.Second).To(BeNil())
			Expect(bundle.Slots()).To(HaveLen(1))
		})
	})

	Context("illegal encodings", func() {
		It("should decode unassigned opcodes as unknown", func() {
			inst := decodeOne(uint32(0x0D) << 22)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Format).To(Equal(insts.FormatUnknown))
		})

		It("should name unknown operations", func() {
			Expect(insts.OpUnknown.String()).To(Equal("unknown"))
			Expect(insts.OpAdd.String()).To(Equal("add"))
			Expect(insts.OpBne.String()).To(Equal("bne"))
		})
	})
})
