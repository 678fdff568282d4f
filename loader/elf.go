// Package loader loads Patmos program images: 32-bit big-endian ELF
// executables and raw memory images. Loading produces the segments to
// place into main memory, the entry point, and the symbol map used by
// traces and reports.
package loader

import (
	"debug/elf"
	"fmt"
	"os"
)

// Segment is a loadable piece of the program image.
type Segment struct {
	// Address is the load address in main memory.
	Address uint32

	// Data holds the segment contents from the file.
	Data []byte

	// MemSize is the size in memory; bytes past len(Data) are zero.
	MemSize uint32
}

// Program is a loaded program image.
type Program struct {
	// EntryPoint is the address of the entry method.
	EntryPoint uint32

	// Segments are the loadable segments in file order.
	Segments []Segment

	// Symbols maps addresses to names. Empty for raw images.
	Symbols *SymbolMap
}

// Load parses a Patmos ELF executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file: %s", path)
	}
	if f.Data != elf.ELFDATA2MSB {
		return nil, fmt.Errorf("not a big-endian ELF file: %s", path)
	}
	if f.Type != elf.ET_EXEC {
		return nil, fmt.Errorf("not an executable ELF file: %s", path)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		Symbols:    &SymbolMap{},
	}

	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, ph.Filesz)
		if _, err := ph.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("failed to read segment: %w", err)
		}
		prog.Segments = append(prog.Segments, Segment{
			Address: uint32(ph.Vaddr),
			Data:    data,
			MemSize: uint32(ph.Memsz),
		})
	}
	if len(prog.Segments) == 0 {
		return nil, fmt.Errorf("no loadable segments in %s", path)
	}

	symbols, err := f.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, fmt.Errorf("failed to read symbol table: %w", err)
	}
	for _, s := range symbols {
		if s.Name == "" || elf.ST_TYPE(s.Info) == elf.STT_SECTION {
			continue
		}
		prog.Symbols.Add(Symbol{
			Address: uint32(s.Value),
			Size:    uint32(s.Size),
			Name:    s.Name,
		})
	}

	return prog, nil
}

// LoadRaw reads a raw memory image placed at address zero, with the entry
// method at its start.
func LoadRaw(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return &Program{
		Segments: []Segment{{Data: data, MemSize: uint32(len(data))}},
		Symbols:  &SymbolMap{},
	}, nil
}
