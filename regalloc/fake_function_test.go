package regalloc

// fakeInstr, fakeBlock, and fakeFunction are a small fluent test harness
// implementing the Function interface, grounded on the teacher's own
// mockInstr/mockBlock/mockFunction triple in
// backend/regalloc/regalloc_test.go, adapted to this package's richer
// operand-constraint model (fixed-reg, reuse, and stack constraints have
// no equivalent in the teacher's simpler linear-scan harness).
type fakeInstr struct {
	operands  []Operand
	clobbers  []PReg
	isBranch  bool
	isMove    bool
	moveSrc   Operand
	moveDst   Operand
	safepoint bool
}

func newFakeInstr() *fakeInstr { return &fakeInstr{} }

func (i *fakeInstr) use(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, AnyConstraint(), OperandUse, Early))
	return i
}

func (i *fakeInstr) useLate(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, AnyConstraint(), OperandUse, Late))
	return i
}

func (i *fakeInstr) useFixed(v VReg, p PReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, FixedRegConstraint(p), OperandUse, Early))
	return i
}

func (i *fakeInstr) useStack(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, StackConstraint(), OperandUse, Early))
	return i
}

func (i *fakeInstr) def(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, AnyConstraint(), OperandDef, Late))
	return i
}

func (i *fakeInstr) defEarly(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, AnyConstraint(), OperandDef, Early))
	return i
}

func (i *fakeInstr) defFixed(v VReg, p PReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, FixedRegConstraint(p), OperandDef, Late))
	return i
}

func (i *fakeInstr) defReuse(v VReg, inputIdx int) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, ReuseConstraint(inputIdx), OperandDef, Late))
	return i
}

func (i *fakeInstr) mod(v VReg) *fakeInstr {
	i.operands = append(i.operands, NewOperand(v, AnyConstraint(), OperandMod, Early))
	return i
}

func (i *fakeInstr) clobber(pregs ...PReg) *fakeInstr {
	i.clobbers = append(i.clobbers, pregs...)
	return i
}

func (i *fakeInstr) branch() *fakeInstr {
	i.isBranch = true
	return i
}

func (i *fakeInstr) move(src, dst VReg) *fakeInstr {
	i.isMove = true
	i.moveSrc = NewOperand(src, AnyConstraint(), OperandUse, Early)
	i.moveDst = NewOperand(dst, AnyConstraint(), OperandDef, Late)
	i.operands = []Operand{i.moveSrc, i.moveDst}
	return i
}

func (i *fakeInstr) movePinned(src, dst VReg, srcPReg, dstPReg PReg) *fakeInstr {
	i.isMove = true
	i.moveSrc = NewOperand(src, FixedRegConstraint(srcPReg), OperandUse, Early)
	i.moveDst = NewOperand(dst, FixedRegConstraint(dstPReg), OperandDef, Late)
	i.operands = []Operand{i.moveSrc, i.moveDst}
	return i
}

func (i *fakeInstr) requiresSafepoint() *fakeInstr {
	i.safepoint = true
	return i
}

type fakeBlock struct {
	index  Block
	insns  []*fakeInstr
	params []VReg
	preds  []*fakeBlock
	succs  []*fakeBlock
	entry  bool
}

func newFakeBlock(index int, insns ...*fakeInstr) *fakeBlock {
	return &fakeBlock{index: Block(index), insns: insns}
}

func (b *fakeBlock) asEntry() *fakeBlock {
	b.entry = true
	return b
}

func (b *fakeBlock) withParams(vs ...VReg) *fakeBlock {
	b.params = vs
	return b
}

func (b *fakeBlock) succeeds(preds ...*fakeBlock) *fakeBlock {
	for _, p := range preds {
		b.preds = append(b.preds, p)
		p.succs = append(p.succs, b)
	}
	return b
}

type fakeFunction struct {
	blocks       []*fakeBlock
	entry        *fakeBlock
	numInsts     int
	instBlock    []*fakeBlock
	instLocal    []*fakeInstr
	reftypeVRegs []VReg
	pinnedVRegs  map[VReg]PReg
}

func newFakeFunction(blocks ...*fakeBlock) *fakeFunction {
	f := &fakeFunction{blocks: blocks, pinnedVRegs: make(map[VReg]PReg)}
	for _, blk := range blocks {
		if blk.entry {
			f.entry = blk
		}
		for _, in := range blk.insns {
			f.instBlock = append(f.instBlock, blk)
			f.instLocal = append(f.instLocal, in)
			f.numInsts++
		}
	}
	return f
}

func (f *fakeFunction) withReftypeVRegs(vs ...VReg) *fakeFunction {
	f.reftypeVRegs = vs
	return f
}

func (f *fakeFunction) withPinnedVReg(v VReg, p PReg) *fakeFunction {
	f.pinnedVRegs[v] = p
	return f
}

func (f *fakeFunction) maxVReg() int {
	max := -1
	scan := func(v VReg) {
		if int(v) > max {
			max = int(v)
		}
	}
	for _, blk := range f.blocks {
		for _, v := range blk.params {
			scan(v)
		}
		for _, in := range blk.insns {
			for _, op := range in.operands {
				scan(op.VReg)
			}
		}
	}
	return max
}

func (f *fakeFunction) blockFirstInst(b *fakeBlock) Inst {
	off := 0
	for _, blk := range f.blocks {
		if blk.index == b.index {
			return Inst(off)
		}
		off += len(blk.insns)
	}
	panic("unknown block")
}

func (f *fakeFunction) NumBlocks() int { return len(f.blocks) }
func (f *fakeFunction) NumInsts() int  { return f.numInsts }
func (f *fakeFunction) NumVRegs() int  { return f.maxVReg() + 1 }
func (f *fakeFunction) EntryBlock() Block {
	if f.entry == nil {
		return f.blocks[0].index
	}
	return f.entry.index
}

func (f *fakeFunction) block(b Block) *fakeBlock {
	for _, blk := range f.blocks {
		if blk.index == b {
			return blk
		}
	}
	panic("unknown block")
}

func (f *fakeFunction) BlockInsns(b Block) []Inst {
	blk := f.block(b)
	start := int(f.blockFirstInst(blk))
	out := make([]Inst, len(blk.insns))
	for i := range blk.insns {
		out[i] = Inst(start + i)
	}
	return out
}

func (f *fakeFunction) BlockParams(b Block) []VReg   { return f.block(b).params }
func (f *fakeFunction) BlockPreds(b Block) []Block   { return blockIndices(f.block(b).preds) }
func (f *fakeFunction) BlockSuccs(b Block) []Block   { return blockIndices(f.block(b).succs) }

func blockIndices(blks []*fakeBlock) []Block {
	out := make([]Block, len(blks))
	for i, blk := range blks {
		out[i] = blk.index
	}
	return out
}

func (f *fakeFunction) InstOperands(inst Inst) []Operand { return f.instLocal[inst.Index()].operands }
func (f *fakeFunction) InstClobbers(inst Inst) []PReg    { return f.instLocal[inst.Index()].clobbers }

func (f *fakeFunction) IsMove(inst Inst) (Operand, Operand, bool) {
	in := f.instLocal[inst.Index()]
	if !in.isMove {
		return Operand{}, Operand{}, false
	}
	return in.moveSrc, in.moveDst, true
}

func (f *fakeFunction) IsBranch(inst Inst) bool { return f.instLocal[inst.Index()].isBranch }

// BranchBlockParamArgOffset assumes the test author appended the branch's
// blockparam arguments as the operand list's contiguous tail, one Use per
// successor's blockparams in successor order — the layout this package
// assumes.
func (f *fakeFunction) BranchBlockParamArgOffset(b Block, inst Inst) int {
	total := 0
	for _, succ := range f.BlockSuccs(b) {
		total += len(f.BlockParams(succ))
	}
	all := f.InstOperands(inst)
	return len(all) - total
}

func (f *fakeFunction) ReftypeVRegs() []VReg { return f.reftypeVRegs }

func (f *fakeFunction) PinnedVRegs() []VReg {
	out := make([]VReg, 0, len(f.pinnedVRegs))
	for v := range f.pinnedVRegs {
		out = append(out, v)
	}
	return out
}

func (f *fakeFunction) IsPinnedVReg(v VReg) (PReg, bool) {
	p, ok := f.pinnedVRegs[v]
	return p, ok
}

func (f *fakeFunction) RequiresRefsOnStack(inst Inst) bool { return f.instLocal[inst.Index()].safepoint }

// buildFakeCFGInfo synthesizes the CFGInfo a real driver would hand in,
// using a plain recursive postorder (loop depth is always reported as 0:
// no test here exercises the spill-weight heuristic's loop scaling).
func buildFakeCFGInfo(f *fakeFunction) *CFGInfo {
	n := f.NumBlocks()
	visited := make([]bool, n)
	var postorder []Block
	var visit func(b Block)
	visit = func(b Block) {
		if visited[b.Index()] {
			return
		}
		visited[b.Index()] = true
		for _, succ := range f.BlockSuccs(b) {
			visit(succ)
		}
		postorder = append(postorder, b)
	}
	visit(f.EntryBlock())
	for i := 0; i < n; i++ {
		visit(Block(i))
	}

	insnBlock := make([]Block, f.NumInsts())
	blockEntry := make([]ProgPoint, n)
	blockExit := make([]ProgPoint, n)
	for i := 0; i < n; i++ {
		insns := f.BlockInsns(Block(i))
		for _, inst := range insns {
			insnBlock[inst.Index()] = Block(i)
		}
		blockEntry[i] = AtBefore(insns[0])
		blockExit[i] = AtAfter(insns[len(insns)-1])
	}

	return &CFGInfo{
		Postorder:       postorder,
		InsnBlock:       insnBlock,
		BlockEntry:      blockEntry,
		BlockExit:       blockExit,
		ApproxLoopDepth: make([]uint32, n),
	}
}
