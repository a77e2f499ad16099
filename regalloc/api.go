package regalloc

// Function is the capability set this package needs from the driver: a
// CFG of instructions with typed operand constraints, plus the
// pre-computed CFG analysis results it assumes are read-only.
// It is a dozen narrow query operations rather than an object hierarchy,
// grounded on (and extended from) the teacher's own Function/Block/Instr
// interface family in backend/regalloc/api.go, adapted for the richer
// operand-constraint model this spec requires (the teacher's simpler
// linear-scan allocator has no FixedReg/Reuse/Stack constraint concept at
// all).
type Function interface {
	// NumBlocks returns the number of blocks in the CFG.
	NumBlocks() int
	// NumInsts returns the number of instructions in the CFG.
	NumInsts() int
	// NumVRegs returns the number of virtual registers referenced
	// anywhere in the CFG.
	NumVRegs() int
	// EntryBlock returns the function's single entry block.
	EntryBlock() Block

	// BlockInsns returns the instructions of b in program order.
	BlockInsns(b Block) []Inst
	// BlockParams returns the blockparam vregs defined at the entry of
	// b (the SSA-phi replacement).
	BlockParams(b Block) []VReg
	// BlockPreds returns the predecessor blocks of b.
	BlockPreds(b Block) []Block
	// BlockSuccs returns the successor blocks of b.
	BlockSuccs(b Block) []Block

	// InstOperands returns the operands of inst, in the order a
	// BranchBlockParamArgOffset or a slot index refers to them.
	InstOperands(inst Inst) []Operand
	// InstClobbers returns the pregs inst clobbers (written with no
	// defined post-value).
	InstClobbers(inst Inst) []PReg
	// IsMove reports whether inst is a move instruction and, if so,
	// returns its source and destination operands.
	IsMove(inst Inst) (src, dst Operand, ok bool)
	// IsBranch reports whether inst is a branch (its last instruction
	// in its block transfers control to one or more successors).
	IsBranch(inst Inst) bool
	// BranchBlockParamArgOffset returns the operand index, within
	// InstOperands(inst), of the first blockparam argument on a branch
	// out of b. Blockparam arguments for all successors are assumed to
	// occupy a contiguous tail starting at this offset, in successor
	// order, each successor contributing len(BlockParams(succ))
	// consecutive operands.
	BranchBlockParamArgOffset(b Block, inst Inst) int

	// ReftypeVRegs returns every reference-typed vreg (a GC root
	// candidate).
	ReftypeVRegs() []VReg
	// PinnedVRegs returns every vreg that must always resolve to a
	// specific preg.
	PinnedVRegs() []VReg
	// IsPinnedVReg reports whether v is pinned and, if so, to which
	// preg.
	IsPinnedVReg(v VReg) (PReg, bool)

	// RequiresRefsOnStack reports whether inst is a safepoint: every
	// reference-typed, non-pinned vreg live across it must have a
	// stack-resident copy for a collector to scan.
	RequiresRefsOnStack(inst Inst) bool
}

// CFGInfo holds the pre-computed, read-only CFG analysis this package
// assumes is already available: postorder for the dataflow solver's
// worklist seed, each instruction's owning block, each block's
// entry/exit ProgPoint, and an approximate loop depth used by the
// spill-weight heuristic.
type CFGInfo struct {
	// Postorder lists every block once, in postorder.
	Postorder []Block
	// InsnBlock maps an Inst to the Block that contains it.
	InsnBlock []Block
	// BlockEntry maps a Block to its first ProgPoint (Before of its
	// first instruction).
	BlockEntry []ProgPoint
	// BlockExit maps a Block to its last ProgPoint (After of its last
	// instruction).
	BlockExit []ProgPoint
	// ApproxLoopDepth maps a Block to its approximate loop nesting
	// depth, used only to weight spill costs.
	ApproxLoopDepth []uint32
}
