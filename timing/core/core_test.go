package core_test

import (
	"bytes"
	"encoding/binary"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/emu"
	"github.com/sarchlab/patsim/insts"
	"github.com/sarchlab/patsim/loader"
	"github.com/sarchlab/patsim/sim"
	"github.com/sarchlab/patsim/timing/core"
	"github.com/sarchlab/patsim/timing/latency"
	"github.com/sarchlab/patsim/timing/pipeline"
)

// idealConfig parameterizes a core with zero-latency models so that tests
// observe architectural behavior without timing noise.
func idealConfig() *latency.TimingConfig {
	timing := latency.DefaultTimingConfig()
	timing.MainMemorySize = 0x10000
	timing.Model = latency.ModelIdeal
	timing.MethodCacheModel = latency.MethodCacheIdeal
	timing.DataCacheEnabled = false
	timing.StackCacheModel = latency.StackCacheIdeal
	return timing
}

func newCore(config core.Config, words []uint32, entry uint32) *core.Core {
	c, err := core.New(config)
	ExpectWithOffset(1, err).ToNot(HaveOccurred())

	image := make([]byte, len(words)*4)
	for i, w := range words {
		binary.BigEndian.PutUint32(image[i*4:], w)
	}
	ExpectWithOffset(1, c.MainMemory().WritePeek(0, image)).To(Succeed())
	ExpectWithOffset(1, c.Init(entry)).To(Succeed())
	return c
}

var _ = Describe("Core", func() {
	haltProgram := []uint32{
		insts.ALUi(insts.OpAdd, 1, 0, 7),
		insts.Ret(),
	}

	It("should run a program to the halt", func() {
		c := newCore(core.Config{Timing: idealConfig()}, haltProgram, 0)

		err := c.Run(0)
		se := sim.AsError(err)
		Expect(se).ToNot(BeNil())
		Expect(se.Kind).To(Equal(sim.Halt))
		Expect(se.ExitCode()).To(Equal(7))
		Expect(c.GPR().Read(1)).To(Equal(int32(7)))
	})

	It("should stop at the cycle bound", func() {
		c := newCore(core.Config{Timing: idealConfig()}, haltProgram, 0)

		Expect(c.Run(3)).To(Succeed())
		Expect(c.Cycle()).To(Equal(uint64(3)))
	})

	It("should stamp faults with the cycle and PC", func() {
		c := newCore(core.Config{Timing: idealConfig()}, []uint32{
			uint32(0x0D) << 22,
		}, 0)

		err := c.Run(0)
		se := sim.AsError(err)
		Expect(se).ToNot(BeNil())
		Expect(se.Kind).To(Equal(sim.Illegal))
		Expect(se.Cycle).To(Equal(c.Cycle()))
		Expect(err.Error()).To(ContainSubstring("Illegal instruction"))
	})

	It("should place the shadow stack pointers", func() {
		c := newCore(core.Config{Timing: idealConfig()}, haltProgram, 0)

		c.InitStack(0x1000)
		Expect(c.SPR().Read(emu.ST)).To(Equal(int32(0x1000)))
		Expect(c.SPR().Read(emu.SS)).To(Equal(int32(0x1000)))
	})

	It("should fault strict reads of uninitialized memory", func() {
		c := newCore(core.Config{Timing: idealConfig(), Strict: true}, []uint32{
			insts.Load(insts.MemWord, insts.AreaMain, 1, 0, 60),
			insts.Ret(),
		}, 0)

		err := c.Run(0)
		se := sim.AsError(err)
		Expect(se).ToNot(BeNil())
		Expect(se.Kind).To(Equal(sim.IllegalAccess))
	})

	It("should emit a PC trace line per cycle", func() {
		c := newCore(core.Config{Timing: idealConfig()}, haltProgram, 0)

		var buf bytes.Buffer
		c.SetTrace(&buf, core.TracePC, 0)

		err := c.Run(0)
		Expect(sim.AsError(err)).ToNot(BeNil())

		lines := strings.Count(buf.String(), "\n")
		Expect(lines).To(Equal(int(c.Cycle()) + 1))
		Expect(buf.String()).To(HavePrefix("00000000 0\n"))
	})

	It("should resolve symbols in a block trace", func() {
		symbols := &loader.SymbolMap{}
		symbols.Add(loader.Symbol{Address: 0, Size: 8, Name: "main"})

		c := newCore(core.Config{
			Timing:  idealConfig(),
			Symbols: symbols,
		}, haltProgram, 0)

		var buf bytes.Buffer
		c.SetTrace(&buf, core.TraceBlocks, 0)

		Expect(sim.AsError(c.Run(0))).ToNot(BeNil())
		Expect(buf.String()).To(ContainSubstring("<main>"))
	})

	It("should report the register state and statistics", func() {
		c := newCore(core.Config{Timing: idealConfig()}, haltProgram, 0)
		Expect(sim.AsError(c.Run(0))).ToNot(BeNil())

		var buf bytes.Buffer
		c.Report(&buf, false)

		report := buf.String()
		Expect(report).To(ContainSubstring("Instruction Statistics:"))
		Expect(report).To(ContainSubstring("Stall Cycles:"))
		Expect(report).To(ContainSubstring("Method Cache Statistics:"))
		Expect(report).To(ContainSubstring("Stack Cache Statistics:"))
		Expect(report).To(ContainSubstring("r1 : 00000007"))
	})

	Context("with the default timed hierarchy", func() {
		It("should run a program through every memory path", func() {
			timing := latency.DefaultTimingConfig()
			timing.MainMemorySize = 0x10000

			c := newCore(core.Config{Timing: timing}, []uint32{
				insts.Sres(2),
				insts.ALUi(insts.OpAdd, 2, 0, 0x21),
				insts.Store(insts.MemWord, insts.AreaStack, 0, 2, 0),
				insts.Load(insts.MemWord, insts.AreaStack, 3, 0, 0),
				insts.Store(insts.MemWord, insts.AreaCache, 0, 2, 50),
				insts.Load(insts.MemWord, insts.AreaCache, 4, 0, 50),
				insts.ALUr(insts.OpAdd, 1, 3, 4),
				insts.Sfree(2),
				insts.Ret(),
			}, 0)
			c.InitStack(0x1000)

			err := c.Run(0)
			se := sim.AsError(err)
			Expect(se).ToNot(BeNil())
			Expect(se.Kind).To(Equal(sim.Halt))
			Expect(se.ExitCode()).To(Equal(0x42))

			// The data cache miss and the write-through both paid for main
			// memory bursts.
			Expect(c.Pipeline().Stats().StallCycles[pipeline.StageMW]).
				To(BeNumerically(">", 0))

			var buf bytes.Buffer
			c.Report(&buf, true)
			report := buf.String()
			Expect(report).To(ContainSubstring("Data Cache Statistics:"))
			Expect(report).To(ContainSubstring("Main Memory Statistics:"))
		})
	})
})
