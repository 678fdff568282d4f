package pipeline

import (
	"encoding/binary"

	"github.com/sarchlab/patsim/emu"
	"github.com/sarchlab/patsim/insts"
	"github.com/sarchlab/patsim/sim"
)

// fetchStage records the fetch-time PC of control-flow instructions and
// advances the program counter. Bubbles leave the PC untouched, so the
// pipeline idles at the entry point until the first bundle arrives.
func (p *Pipeline) fetchStage() {
	if p.slots[StageIF][0].inst == nil {
		return
	}

	for j := range p.slots[StageIF] {
		sl := &p.slots[StageIF][j]
		if sl.inst == nil {
			continue
		}
		if isControlFlow(sl.inst) && p.pc != p.npc {
			sl.ifPC = p.pc
		}
	}

	p.pc = p.npc
}

func isControlFlow(i *insts.Instruction) bool {
	switch i.Format {
	case insts.FormatCFLi, insts.FormatCFLri, insts.FormatCFLrs, insts.FormatBNE:
		return true
	}
	return false
}

// decodeStage reads the predicate guard and the operands that are latched
// at decode time. General registers are read live at execute through the
// forwarding network instead.
func (p *Pipeline) decodeStage() {
	for j := range p.slots[StageDR] {
		sl := &p.slots[StageDR][j]
		i := sl.inst
		if i == nil {
			continue
		}

		sl.pred = p.prr.Read(i.Pred) != i.PredNeg

		switch i.Format {
		case insts.FormatALUp:
			sl.ps1 = p.prr.Read(i.Ps1) != i.Ps1Neg
			sl.ps2 = p.prr.Read(i.Ps2) != i.Ps2Neg
		case insts.FormatSPC:
			switch i.Op {
			case insts.OpWait:
				if sl.pred && p.decoupledActive {
					p.requestStall(StageDR)
				}
			case insts.OpMfs:
				sl.ss = p.spr.Read(i.Ss)
			}
		case insts.FormatLDT:
			if i.Op == insts.OpLoadDec && sl.pred && p.decoupledActive {
				p.requestStall(StageDR)
			}
		case insts.FormatSTC:
			sl.ss = p.spr.Read(emu.ST)
		case insts.FormatCFLi, insts.FormatCFLrs:
			sl.dispatched = false
		case insts.FormatCFLri:
			sl.base = uint32(p.gpr.Read(emu.ReturnBaseReg))
			sl.offset = uint32(p.gpr.Read(emu.ReturnOffsetReg))
			sl.dispatched = false
		case insts.FormatBNE:
			sl.pred = true
			sl.dispatched = false
		}
	}
}

// executeStage computes results, effective addresses, and branch targets.
// Predicate writes take effect here; general-register results wait in the
// execute bypass until the memory stage.
func (p *Pipeline) executeStage() error {
	for j := range p.slots[StageEX] {
		sl := &p.slots[StageEX][j]
		if sl.inst == nil {
			continue
		}
		if err := p.execute(sl); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) execute(sl *slot) error {
	i := sl.inst

	switch i.Format {
	case insts.FormatALUi, insts.FormatALUl:
		sl.result = aluCompute(i.Op, p.readGPR(i.Rs1), i.Imm)
	case insts.FormatALUr:
		sl.result = aluCompute(i.Op, p.readGPR(i.Rs1), p.readGPR(i.Rs2))
	case insts.FormatALUm:
		if i.Op == insts.OpMulU {
			sl.mulLow, sl.mulHigh = emu.MulU(p.readGPR(i.Rs1), p.readGPR(i.Rs2))
		} else {
			sl.mulLow, sl.mulHigh = emu.Mul(p.readGPR(i.Rs1), p.readGPR(i.Rs2))
		}
	case insts.FormatALUc:
		if sl.pred {
			p.prr.Write(i.Pd, cmpCompute(i.Op, p.readGPR(i.Rs1), p.readGPR(i.Rs2)))
		}
	case insts.FormatALUci:
		if sl.pred {
			p.prr.Write(i.Pd, cmpCompute(i.Op, p.readGPR(i.Rs1), i.Imm))
		}
	case insts.FormatALUp:
		if sl.pred {
			p.prr.Write(i.Pd, predCompute(i.Op, sl.ps1, sl.ps2))
		}
	case insts.FormatSPC:
		switch i.Op {
		case insts.OpMts:
			if sl.pred {
				p.spr.Write(i.Sd, p.readGPR(i.Rs1))
			}
		case insts.OpMfs:
			sl.result = sl.ss
		}
	case insts.FormatLDT:
		sl.address = uint32(p.readGPR(i.Rs1) + i.Imm*int32(i.Type.SizeOf()))
		if i.Op == insts.OpLoadDec && sl.pred && !p.decoupledActive {
			p.decoupled = *sl
			p.decoupledActive = true
		}
	case insts.FormatSTT:
		sl.address = uint32(p.readGPR(i.Rs1) + i.Imm*int32(i.Type.SizeOf()))
		sl.storeVal = p.readGPR(i.Rs2)
	case insts.FormatSTC:
		// acts at the memory stage
	case insts.FormatCFLi, insts.FormatCFLrs, insts.FormatCFLri, insts.FormatBNE:
		return p.executeControlFlow(sl)
	}
	return nil
}

func (p *Pipeline) executeControlFlow(sl *slot) error {
	i := sl.inst

	switch i.Op {
	case insts.OpCall:
		target := uint32(i.Imm) * 4
		sl.address = target
		p.storeReturnAddress(sl)
		return p.fetchAndDispatch(sl, sl.pred, target, target)
	case insts.OpCallR:
		target := uint32(p.readGPR(i.Rs1))
		sl.address = target
		p.storeReturnAddress(sl)
		return p.fetchAndDispatch(sl, sl.pred, target, target)
	case insts.OpB:
		target := sl.ifPC + uint32(i.Imm)*4
		sl.address = target
		p.dispatch(sl, sl.pred, p.base, target)
	case insts.OpBr:
		target := sl.ifPC + uint32(p.readGPR(i.Rs1))
		sl.address = target
		p.dispatch(sl, sl.pred, p.base, target)
	case insts.OpRet:
		if sl.pred && sl.base == 0 {
			// A return to base 0 halts; hold the younger stages until the
			// memory stage raises it.
			p.requestStall(StageDR)
			return nil
		}
		return p.fetchAndDispatch(sl, sl.pred, sl.base, sl.base+sl.offset)
	case insts.OpBne:
		taken := p.readGPR(i.Rs1) != p.readGPR(i.Rs2)
		target := p.pc + uint32(i.Imm)*4
		sl.address = target
		p.dispatch(sl, taken, p.base, target)
	}
	return nil
}

// storeReturnAddress writes the caller's method base and offset before
// the dispatch replaces them.
func (p *Pipeline) storeReturnAddress(sl *slot) {
	if sl.pred && !sl.dispatched {
		p.gpr.Write(emu.ReturnBaseReg, int32(p.base))
		p.gpr.Write(emu.ReturnOffsetReg, int32(p.npc-p.base))
	}
}

// fetchAndDispatch redirects fetch to another method, stalling the
// execute stage until the method cache holds it.
func (p *Pipeline) fetchAndDispatch(sl *slot, pred bool, base, target uint32) error {
	if !pred || sl.dispatched {
		return nil
	}

	available, err := p.methodCache.IsAvailable(base)
	if err != nil {
		return err
	}
	if !available {
		p.requestStall(StageEX)
		return nil
	}

	p.base = base
	p.pc = target
	p.npc = target
	sl.dispatched = true
	return nil
}

// dispatch redirects fetch within a resident method.
func (p *Pipeline) dispatch(sl *slot, pred bool, base, target uint32) {
	if !pred || sl.dispatched {
		return
	}

	p.base = base
	p.pc = target
	p.npc = target
	sl.dispatched = true
}

// executeCommit publishes general-register results into the execute
// bypass.
func (p *Pipeline) executeCommit() {
	for j := range p.slots[StageEX] {
		sl := &p.slots[StageEX][j]
		i := sl.inst
		if i == nil || !sl.pred {
			continue
		}

		switch i.Format {
		case insts.FormatALUi, insts.FormatALUl, insts.FormatALUr:
			sl.exBypass.set(i.Rd, sl.result)
		case insts.FormatSPC:
			if i.Op == insts.OpMfs {
				sl.exBypass.set(i.Rd, sl.result)
			}
		}
	}
}

// memoryStage performs memory accesses and register writeback. Memory
// operations that have not completed stall the whole pipeline and are
// re-issued every cycle.
func (p *Pipeline) memoryStage() error {
	for j := range p.slots[StageMW] {
		sl := &p.slots[StageMW][j]
		if sl.inst == nil {
			continue
		}
		if err := p.memory(sl); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) memory(sl *slot) error {
	i := sl.inst

	switch i.Format {
	case insts.FormatALUi, insts.FormatALUl, insts.FormatALUr:
		p.writeback(sl)
	case insts.FormatSPC:
		if i.Op == insts.OpMfs {
			p.writeback(sl)
		}
	case insts.FormatALUm:
		if sl.pred {
			p.spr.Write(emu.SL, sl.mulLow)
			p.spr.Write(emu.SH, sl.mulHigh)
		}
	case insts.FormatLDT:
		if i.Op != insts.OpLoad || !sl.pred {
			return nil
		}
		value, done, err := p.load(i, sl.address)
		if err != nil {
			return err
		}
		if !done {
			p.requestStall(StageMW)
			return nil
		}
		p.gpr.Write(i.Rd, value)
		sl.mwBypass.set(i.Rd, value)
	case insts.FormatSTT:
		if !sl.pred {
			return nil
		}
		done, err := p.store(i, sl.address, sl.storeVal)
		if err != nil {
			return err
		}
		if !done {
			p.requestStall(StageMW)
		}
	case insts.FormatSTC:
		stackTop := uint32(sl.ss)
		if sl.pred {
			done, err := p.stackControl(i, &stackTop)
			if err != nil {
				return err
			}
			if !done {
				p.requestStall(StageMW)
			}
		}
		p.spr.Write(emu.ST, int32(stackTop))
	}
	return nil
}

// writeback moves a result from the execute bypass into the register file
// and keeps it visible through the memory bypass for the rest of the
// cycle.
func (p *Pipeline) writeback(sl *slot) {
	if !sl.pred || !sl.exBypass.valid {
		return
	}
	p.gpr.Write(sl.exBypass.reg, sl.exBypass.value)
	sl.mwBypass = sl.exBypass
	sl.exBypass.reset()
}

// memoryCommit retires the memory bypasses and raises the halt of a
// return to base 0.
func (p *Pipeline) memoryCommit() error {
	for j := range p.slots[StageMW] {
		sl := &p.slots[StageMW][j]
		i := sl.inst
		if i == nil {
			continue
		}
		if i.Op == insts.OpRet && sl.pred && sl.base == 0 {
			return sim.HaltError(p.gpr.Read(emu.ExitCodeReg))
		}
		if sl.pred {
			sl.mwBypass.reset()
		}
	}
	return nil
}

// retire counts the instructions leaving the pipeline. Nothing retires
// while the memory stage stalls.
func (p *Pipeline) retire() {
	if p.stall == StageMW {
		return
	}
	for j := range p.slots[StageMW] {
		sl := &p.slots[StageMW][j]
		if sl.inst == nil {
			p.stats.BubblesRetired[j]++
			continue
		}
		st := p.stats.op(j, sl.inst.Op)
		if sl.pred {
			st.Retired++
		} else {
			st.Discarded++
		}
	}
}

// decoupledTick retries the active decoupled load and lands its result in
// the sm special register.
func (p *Pipeline) decoupledTick() error {
	if !p.decoupledActive {
		return nil
	}

	value, done, err := p.load(p.decoupled.inst, p.decoupled.address)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}

	p.spr.Write(emu.SM, value)
	p.decoupled.clear()
	p.decoupledActive = false
	return nil
}

// load issues a typed load to the addressed memory area. It returns false
// until the access completes.
func (p *Pipeline) load(i *insts.Instruction, address uint32) (int32, bool, error) {
	size := i.Type.SizeOf()
	if address&(size-1) != 0 {
		return 0, false, sim.UnalignedError(address)
	}

	var buf [4]byte
	b := buf[:size]
	var done bool
	var err error
	switch i.Area {
	case insts.AreaStack:
		err = p.stackCache.Read(address, b)
		done = err == nil
	case insts.AreaLocal:
		done, err = p.localMemory.Read(address, b)
	case insts.AreaCache:
		done, err = p.dataCache.Read(address, b)
	default:
		done, err = p.mainMemory.Read(address, b)
	}
	if err != nil || !done {
		return 0, done, err
	}
	return extend(i.Type, b), true, nil
}

// store issues a typed store to the addressed memory area. It returns
// false until the access completes.
func (p *Pipeline) store(i *insts.Instruction, address uint32, value int32) (bool, error) {
	size := i.Type.SizeOf()
	if address&(size-1) != 0 {
		return false, sim.UnalignedError(address)
	}

	var buf [4]byte
	b := buf[:size]
	switch i.Type {
	case insts.MemWord:
		binary.BigEndian.PutUint32(b, uint32(value))
	case insts.MemHalf:
		binary.BigEndian.PutUint16(b, uint16(value))
	default:
		b[0] = byte(value)
	}

	switch i.Area {
	case insts.AreaStack:
		err := p.stackCache.Write(address, b)
		return err == nil, err
	case insts.AreaLocal:
		return p.localMemory.Write(address, b)
	case insts.AreaCache:
		return p.dataCache.Write(address, b)
	default:
		return p.mainMemory.Write(address, b)
	}
}

// stackControl drives the stack cache with sizes scaled from blocks to
// bytes.
func (p *Pipeline) stackControl(i *insts.Instruction, stackTop *uint32) (bool, error) {
	size := uint32(i.Imm) * p.stackBlockBytes
	switch i.Op {
	case insts.OpSres:
		return p.stackCache.Reserve(size, stackTop)
	case insts.OpSens:
		return p.stackCache.Ensure(size, stackTop)
	default:
		return p.stackCache.Free(size, stackTop)
	}
}

// extend assembles a big-endian value with the access type's extension.
func extend(t insts.MemType, b []byte) int32 {
	switch t {
	case insts.MemWord:
		return int32(binary.BigEndian.Uint32(b))
	case insts.MemHalf:
		return int32(int16(binary.BigEndian.Uint16(b)))
	case insts.MemHalfU:
		return int32(binary.BigEndian.Uint16(b))
	case insts.MemByte:
		return int32(int8(b[0]))
	default:
		return int32(b[0])
	}
}

func aluCompute(op insts.Op, v1, v2 int32) int32 {
	switch op {
	case insts.OpAdd:
		return emu.Add(v1, v2)
	case insts.OpSub:
		return emu.Sub(v1, v2)
	case insts.OpXor:
		return emu.Xor(v1, v2)
	case insts.OpSl:
		return emu.Sl(v1, v2)
	case insts.OpSr:
		return emu.Sr(v1, v2)
	case insts.OpSra:
		return emu.Sra(v1, v2)
	case insts.OpOr:
		return emu.Or(v1, v2)
	case insts.OpAnd:
		return emu.And(v1, v2)
	case insts.OpRsub:
		return emu.Rsub(v1, v2)
	case insts.OpRl:
		return emu.Rl(v1, v2)
	case insts.OpRr:
		return emu.Rr(v1, v2)
	case insts.OpNor:
		return emu.Nor(v1, v2)
	case insts.OpShadd:
		return emu.Shadd(v1, v2)
	case insts.OpShadd2:
		return emu.Shadd2(v1, v2)
	}
	return 0
}

func cmpCompute(op insts.Op, v1, v2 int32) bool {
	switch op {
	case insts.OpCmpEq:
		return emu.CmpEq(v1, v2)
	case insts.OpCmpNeq:
		return emu.CmpNeq(v1, v2)
	case insts.OpCmpLt:
		return emu.CmpLt(v1, v2)
	case insts.OpCmpLe:
		return emu.CmpLe(v1, v2)
	case insts.OpCmpULt:
		return emu.CmpULt(v1, v2)
	case insts.OpCmpULe:
		return emu.CmpULe(v1, v2)
	case insts.OpBTest:
		return emu.BTest(v1, v2)
	}
	return false
}

func predCompute(op insts.Op, p1, p2 bool) bool {
	switch op {
	case insts.OpPor:
		return p1 || p2
	case insts.OpPand:
		return p1 && p2
	case insts.OpPxor:
		return p1 != p2
	}
	return false
}
