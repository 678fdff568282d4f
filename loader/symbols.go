package loader

import (
	"fmt"
	"io"
	"sort"
)

// Symbol is a named code or data location.
type Symbol struct {
	Address uint32
	Size    uint32
	Name    string
}

// SymbolMap resolves addresses to the symbols covering them. Lookups
// prefer the innermost covering symbol and fall back to an exact address
// match for zero-sized symbols.
type SymbolMap struct {
	symbols []Symbol
	sorted  bool
}

// Add inserts a symbol.
func (m *SymbolMap) Add(sym Symbol) {
	m.symbols = append(m.symbols, sym)
	m.sorted = false
}

// sort orders symbols by address, larger sizes first, so that the
// covering search finds the tightest enclosing symbol last.
func (m *SymbolMap) sort() {
	if m.sorted {
		return
	}
	sort.Slice(m.symbols, func(i, j int) bool {
		if m.symbols[i].Address != m.symbols[j].Address {
			return m.symbols[i].Address < m.symbols[j].Address
		}
		return m.symbols[i].Size > m.symbols[j].Size
	})
	m.sorted = true
}

// Covers reports whether a symbol starts exactly at address.
func (m *SymbolMap) Covers(address uint32) bool {
	m.sort()
	i := sort.Search(len(m.symbols), func(i int) bool {
		return m.symbols[i].Address >= address
	})
	return i < len(m.symbols) && m.symbols[i].Address == address
}

// Find returns the innermost symbol covering address, or false when no
// symbol covers it.
func (m *SymbolMap) Find(address uint32) (Symbol, bool) {
	m.sort()

	var best Symbol
	found := false
	for _, s := range m.symbols {
		if s.Address > address {
			break
		}
		if s.Address == address || address-s.Address < s.Size {
			best = s
			found = true
		}
	}
	return best, found
}

// Format renders the symbol covering address as "<name>" or
// "<name+0xoffset>". It returns the empty string when no symbol covers
// the address.
func (m *SymbolMap) Format(address uint32) string {
	s, ok := m.Find(address)
	if !ok {
		return ""
	}
	if s.Address == address {
		return fmt.Sprintf("<%s>", s.Name)
	}
	return fmt.Sprintf("<%s+0x%x>", s.Name, address-s.Address)
}

// Print writes the formatted symbol for address, if any.
func (m *SymbolMap) Print(w io.Writer, address uint32) {
	if s := m.Format(address); s != "" {
		fmt.Fprint(w, s)
	}
}
