package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/patsim/loader"
)

// buildELF assembles a minimal 32-bit ELF executable with one loadable
// segment and no section headers.
func buildELF(order binary.ByteOrder, elfType uint16, segment []byte) []byte {
	const (
		headerSize     = 52
		progHeaderSize = 32
		dataOffset     = headerSize + progHeaderSize
		entry          = 0x20000
	)

	image := make([]byte, dataOffset+len(segment))
	copy(image, []byte{0x7F, 'E', 'L', 'F'})
	image[4] = 1 // ELFCLASS32
	if order == binary.BigEndian {
		image[5] = 2
	} else {
		image[5] = 1
	}
	image[6] = 1 // EV_CURRENT

	order.PutUint16(image[16:], elfType)
	order.PutUint16(image[18:], 0)     // machine
	order.PutUint32(image[20:], 1)     // version
	order.PutUint32(image[24:], entry) // entry
	order.PutUint32(image[28:], headerSize)
	order.PutUint32(image[32:], 0) // shoff
	order.PutUint32(image[36:], 0) // flags
	order.PutUint16(image[40:], headerSize)
	order.PutUint16(image[42:], progHeaderSize)
	order.PutUint16(image[44:], 1) // phnum
	order.PutUint16(image[46:], 40)
	order.PutUint16(image[48:], 0) // shnum
	order.PutUint16(image[50:], 0)

	ph := image[headerSize:]
	order.PutUint32(ph[0:], 1) // PT_LOAD
	order.PutUint32(ph[4:], dataOffset)
	order.PutUint32(ph[8:], entry)
	order.PutUint32(ph[12:], entry)
	order.PutUint32(ph[16:], uint32(len(segment)))
	order.PutUint32(ph[20:], uint32(len(segment))+8) // memsz past filesz
	order.PutUint32(ph[24:], 5)
	order.PutUint32(ph[28:], 4)

	copy(image[dataOffset:], segment)
	return image
}

func writeTemp(name string, data []byte) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, data, 0644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	segment := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	It("should load a big-endian executable", func() {
		path := writeTemp("prog.elf", buildELF(binary.BigEndian, 2, segment))

		prog, err := loader.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint32(0x20000)))
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].Address).To(Equal(uint32(0x20000)))
		Expect(prog.Segments[0].Data).To(Equal(segment))
		Expect(prog.Segments[0].MemSize).To(Equal(uint32(len(segment) + 8)))
		Expect(prog.Symbols).NotTo(BeNil())
	})

	It("should reject a little-endian executable", func() {
		path := writeTemp("prog.elf", buildELF(binary.LittleEndian, 2, segment))

		_, err := loader.Load(path)
		Expect(err).To(MatchError(ContainSubstring("big-endian")))
	})

	It("should reject a relocatable file", func() {
		path := writeTemp("prog.elf", buildELF(binary.BigEndian, 1, segment))

		_, err := loader.Load(path)
		Expect(err).To(MatchError(ContainSubstring("executable")))
	})

	It("should reject a file that is not ELF", func() {
		path := writeTemp("prog.elf", []byte("not an elf file"))

		_, err := loader.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("should fail on a missing file", func() {
		_, err := loader.Load("/nonexistent/prog.elf")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoadRaw", func() {
	It("should place the image at address zero", func() {
		data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		path := writeTemp("prog.bin", data)

		prog, err := loader.LoadRaw(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(uint32(0)))
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].Address).To(Equal(uint32(0)))
		Expect(prog.Segments[0].Data).To(Equal(data))
		Expect(prog.Segments[0].MemSize).To(Equal(uint32(4)))
	})

	It("should fail on a missing file", func() {
		_, err := loader.LoadRaw("/nonexistent/prog.bin")
		Expect(err).To(HaveOccurred())
	})
})
