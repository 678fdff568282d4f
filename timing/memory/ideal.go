package memory

import (
	"fmt"

	"github.com/sarchlab/patsim/sim"
)

// IdealMemory is a zero-latency backing store. With strict checking
// enabled, reading bytes that were never written raises an
// illegal-access fault.
type IdealMemory struct {
	content []byte

	// written tracks per-byte write state under strict checking; nil when
	// checking is disabled.
	written []bool
}

// NewIdealMemory creates an ideal memory of the given size in bytes.
func NewIdealMemory(size uint32) *IdealMemory {
	return &IdealMemory{content: make([]byte, size)}
}

// NewCheckedIdealMemory creates an ideal memory that faults on reads of
// uninitialized bytes.
func NewCheckedIdealMemory(size uint32) *IdealMemory {
	return &IdealMemory{
		content: make([]byte, size),
		written: make([]bool, size),
	}
}

// Size returns the memory size in bytes.
func (m *IdealMemory) Size() uint32 {
	return uint32(len(m.content))
}

// checkAccess verifies the access lies inside the address space and, for
// strict-mode reads, that every byte was written before.
func (m *IdealMemory) checkAccess(address, size uint32, isRead, ignoreErrors bool) error {
	memSize := uint32(len(m.content))
	if address > memSize || size > memSize-address {
		return sim.UnmappedError(address)
	}

	if m.written == nil {
		return nil
	}
	if isRead {
		if ignoreErrors {
			return nil
		}
		uninit := uint32(0)
		for i := address; i < address+size; i++ {
			if !m.written[i] {
				uninit++
			}
		}
		if uninit > 0 {
			return sim.IllegalAccessError(fmt.Sprintf(
				"read of address 0x%x of size %d reads %d uninitialized bytes",
				address, size, uninit))
		}
	} else {
		for i := address; i < address+size; i++ {
			m.written[i] = true
		}
	}
	return nil
}

// Read retrieves bytes immediately.
func (m *IdealMemory) Read(address uint32, value []byte) (bool, error) {
	if err := m.checkAccess(address, uint32(len(value)), true, false); err != nil {
		return false, err
	}
	copy(value, m.content[address:])
	return true, nil
}

// Write stores bytes immediately.
func (m *IdealMemory) Write(address uint32, value []byte) (bool, error) {
	if err := m.checkAccess(address, uint32(len(value)), false, false); err != nil {
		return false, err
	}
	copy(m.content[address:], value)
	return true, nil
}

// ReadPeek retrieves bytes without timing and without strict checking.
func (m *IdealMemory) ReadPeek(address uint32, value []byte) error {
	if err := m.checkAccess(address, uint32(len(value)), true, true); err != nil {
		return err
	}
	copy(value, m.content[address:])
	return nil
}

// WritePeek stores bytes without timing.
func (m *IdealMemory) WritePeek(address uint32, value []byte) error {
	if err := m.checkAccess(address, uint32(len(value)), false, true); err != nil {
		return err
	}
	copy(m.content[address:], value)
	return nil
}

// IsReady always reports true.
func (m *IdealMemory) IsReady() bool {
	return true
}

// Tick is a no-op for the ideal memory.
func (m *IdealMemory) Tick() {}
