// Package latency holds the timing configuration of the memory hierarchy
// and constructs the configured main-memory model.
package latency

import (
	"github.com/sarchlab/patsim/timing/cache"
	"github.com/sarchlab/patsim/timing/mcache"
	"github.com/sarchlab/patsim/timing/memory"
	"github.com/sarchlab/patsim/timing/scache"
)

// BuildMainMemory constructs the main-memory timing model selected by the
// configuration, over a fresh ideal backing store. With strict enabled,
// reads of uninitialized bytes fault.
func (c *TimingConfig) BuildMainMemory(strict bool) (memory.Memory, error) {
	var backing *memory.IdealMemory
	if strict {
		backing = memory.NewCheckedIdealMemory(c.MainMemorySize)
	} else {
		backing = memory.NewIdealMemory(c.MainMemorySize)
	}

	switch c.Model {
	case ModelIdeal:
		return backing, nil
	case ModelTDM:
		return memory.NewTDMMemory(
			backing,
			c.BytesPerBurst, c.TicksPerBurst, c.ReadDelayTicks,
			c.PostedWrites,
			c.NumCores, c.CPUID,
			c.RefreshTicksPerRound,
		)
	case ModelVariableBurst:
		return memory.NewVariableBurstMemory(
			backing,
			c.BytesPerBurst, c.BytesPerPage, c.TicksPerBurst, c.ReadDelayTicks,
			c.PostedWrites,
		), nil
	default:
		return memory.NewFixedDelayMemory(
			backing,
			c.BytesPerBurst, c.TicksPerBurst, c.ReadDelayTicks,
			c.PostedWrites,
		), nil
	}
}

// BuildDataCache constructs the data cache in front of the main memory,
// or returns the main memory itself when the cache is disabled.
func (c *TimingConfig) BuildDataCache(main memory.Memory) memory.Memory {
	if !c.DataCacheEnabled {
		return main
	}
	return cache.New(cache.Config{
		Size:          c.DataCacheSize,
		Associativity: c.DataCacheAssociativity,
		BlockSize:     c.DataCacheBlockBytes,
	}, main)
}

// BuildLocalMemory constructs the zero-latency local scratchpad.
func (c *TimingConfig) BuildLocalMemory() *memory.IdealMemory {
	return memory.NewIdealMemory(c.LocalMemorySize)
}

// BuildMethodCache constructs the configured method cache over the main
// memory.
func (c *TimingConfig) BuildMethodCache(main memory.Memory) mcache.Cache {
	switch c.MethodCacheModel {
	case MethodCacheIdeal:
		return mcache.NewIdealCache(main)
	case MethodCacheFIFO:
		return mcache.NewFIFOCache(main,
			c.MethodCacheBlocks, c.MethodCacheBlockBytes, c.MethodCacheInitBlocks)
	default:
		return mcache.NewLRUCache(main,
			c.MethodCacheBlocks, c.MethodCacheBlockBytes, c.MethodCacheInitBlocks)
	}
}

// BuildStackCache constructs the configured stack cache spilling to the
// main memory.
func (c *TimingConfig) BuildStackCache(main memory.Memory) scache.Cache {
	if c.StackCacheModel == StackCacheIdeal {
		return scache.NewIdealCache()
	}
	return scache.NewBlockCache(main,
		c.StackCacheBlockBytes, c.StackCacheCapacityBlocks, c.StackCacheTotalBlocks)
}
