package loader_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/loader"
)

var _ = Describe("SymbolMap", func() {
	var m *loader.SymbolMap

	BeforeEach(func() {
		m = &loader.SymbolMap{}
		m.Add(loader.Symbol{Address: 0x100, Size: 0x40, Name: "main"})
		m.Add(loader.Symbol{Address: 0x110, Size: 0x10, Name: ".L1"})
		m.Add(loader.Symbol{Address: 0x200, Size: 0, Name: "_end"})
	})

	It("should report symbol starts", func() {
		Expect(m.Covers(0x100)).To(BeTrue())
		Expect(m.Covers(0x110)).To(BeTrue())
		Expect(m.Covers(0x200)).To(BeTrue())
		Expect(m.Covers(0x104)).To(BeFalse())
	})

	It("should find the innermost covering symbol", func() {
		s, ok := m.Find(0x114)
		Expect(ok).To(BeTrue())
		Expect(s.Name).To(Equal(".L1"))

		s, ok = m.Find(0x130)
		Expect(ok).To(BeTrue())
		Expect(s.Name).To(Equal("main"))
	})

	It("should match zero-sized symbols exactly", func() {
		s, ok := m.Find(0x200)
		Expect(ok).To(BeTrue())
		Expect(s.Name).To(Equal("_end"))

		_, ok = m.Find(0x204)
		Expect(ok).To(BeFalse())
	})

	It("should format symbols with their offset", func() {
		Expect(m.Format(0x100)).To(Equal("<main>"))
		Expect(m.Format(0x104)).To(Equal("<main+0x4>"))
		Expect(m.Format(0x114)).To(Equal("<.L1+0x4>"))
		Expect(m.Format(0x500)).To(Equal(""))
	})

	It("should print only covered addresses", func() {
		var buf bytes.Buffer
		m.Print(&buf, 0x100)
		Expect(buf.String()).To(Equal("<main>"))

		buf.Reset()
		m.Print(&buf, 0x500)
		Expect(buf.String()).To(Equal(""))
	})

	It("should find nothing in an empty map", func() {
		empty := &loader.SymbolMap{}
		Expect(empty.Covers(0)).To(BeFalse())
		_, ok := empty.Find(0)
		Expect(ok).To(BeFalse())
	})
})
