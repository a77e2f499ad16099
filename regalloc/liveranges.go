package regalloc

import "fmt"

// buildLiveRanges is the reverse range-construction scan: one pass per
// block, blocks visited in reverse program order, each block's
// instructions visited tail-to-head. Because self.livein/liveout are
// already exact (runDataflow ran first), every vreg's live ranges can be
// built locally per block with no further iteration: a vreg live at a
// block's end starts a range covering the whole block, and every def/use/
// mod encountered walking backward either closes that range early or
// starts a new, disjoint one strictly before it.
//
// Grounded directly on original_source/src/ion/liveranges.rs's
// compute_liveness (the per-block reverse-scan half, after the dataflow
// worklist): move handling, the branch blockparam-out wiring, clobber
// recording, and the def/use/mod position lookup are all translated
// instruction-for-instruction from that function.
func (b *LivenessBuilder) buildLiveRanges() {
	for i := b.f.NumBlocks() - 1; i >= 0; i-- {
		block := Block(i)
		b.Stats.LiveinBlocks++

		live := b.liveout[i].clone()

		// Registers live at block exit are assumed live for the whole
		// block until a def or use trims the range.
		live.scan(func(vi uint) {
			rng := CodeRange{From: b.cfg.BlockEntry[i], To: b.cfg.BlockExit[i].Next()}
			lr := b.addLiveRangeToVReg(VReg(vi), rng)
			b.vregRanges[vi] = lr
		})

		for _, param := range b.f.BlockParams(block) {
			b.VReg(param).Blockparam = block
		}

		insns := b.f.BlockInsns(block)

		if len(insns) > 0 {
			last := insns[len(insns)-1]
			if b.f.IsBranch(last) {
				operands := b.f.InstOperands(last)
				argOffset := b.f.BranchBlockParamArgOffset(block, last)
				k := argOffset
				for _, succ := range b.f.BlockSuccs(block) {
					for _, bp := range b.f.BlockParams(succ) {
						fromVReg := operands[k].VReg
						b.BlockparamOuts = append(b.BlockparamOuts, BlockParamOut{
							FromVReg: fromVReg, Block: block, Succ: succ, BlockparamVReg: bp,
						})
						k++
					}
				}
			}
		}

		for ii := len(insns) - 1; ii >= 0; ii-- {
			inst := insns[ii]

			clobbers := b.f.InstClobbers(inst)
			if len(clobbers) > 0 {
				b.Clobbers = append(b.Clobbers, inst)
			}
			for _, clobber := range clobbers {
				rng := CodeRange{From: AtAfter(inst), To: AtBefore(inst.Next())}
				b.AddLiveRangeToPReg(rng, clobber)
			}

			reusedInput := -1
			for _, op := range b.f.InstOperands(inst) {
				if op.Constraint.Kind == ConstraintReuse {
					reusedInput = op.Constraint.ReuseInput
					break
				}
			}

			if src, dst, ok := b.f.IsMove(inst); ok {
				if src.VReg != dst.VReg {
					b.handleMove(block, i, inst, src, dst, &live)
				}
				continue
			}

			for _, curPos := range [2]Phase{After, Before} {
				operands := b.f.InstOperands(inst)
				for slotIdx, op := range operands {
					pos := b.operandPos(block, i, inst, op, slotIdx, reusedInput)
					if pos.Phase() != curPos {
						continue
					}

					switch op.Kind {
					case OperandDef, OperandMod:
						b.handleDefOrMod(i, inst, op, pos, slotIdx, &live)
					case OperandUse:
						b.handleUse(i, inst, op, pos, slotIdx, &live)
					}
				}
			}

			if b.f.RequiresRefsOnStack(inst) {
				b.Safepoints = append(b.Safepoints, inst)
				live.scan(func(vi uint) {
					if m, ok := b.SafepointsPerVReg[VReg(vi)]; ok {
						m[inst] = struct{}{}
					}
				})
			}
		}

		for _, bp := range b.f.BlockParams(block) {
			if live.has(uint(bp.Index())) {
				live.clear(uint(bp.Index()))
			} else {
				start := b.cfg.BlockEntry[i]
				b.addLiveRangeToVReg(bp, CodeRange{From: start, To: start.Next()})
			}
			for _, pred := range b.f.BlockPreds(block) {
				b.BlockparamIns = append(b.BlockparamIns, BlockParamIn{VReg: bp, Block: block, Pred: pred})
			}
		}
	}
}

// operandPos computes the ProgPoint at which op's effect on liveness
// occurs. Arm order matters: it mirrors a Rust match, so branch-use and
// reused-input special cases only apply once Mod/Def/Use-Late have
// already been ruled out.
func (b *LivenessBuilder) operandPos(block Block, blockIdx int, inst Inst, op Operand, slotIdx, reusedInput int) ProgPoint {
	switch {
	case op.Kind == OperandMod:
		return AtBefore(inst)
	case op.Kind == OperandDef && op.Pos == Early:
		return AtBefore(inst)
	case op.Kind == OperandDef && op.Pos == Late:
		return AtAfter(inst)
	case op.Kind == OperandUse && op.Pos == Late:
		return AtAfter(inst)
	case op.Kind == OperandUse && b.f.IsBranch(inst):
		return b.cfg.BlockExit[blockIdx]
	case op.Kind == OperandUse && reusedInput >= 0 && reusedInput != slotIdx:
		return AtAfter(inst)
	default:
		return AtBefore(inst)
	}
}

func (b *LivenessBuilder) handleDefOrMod(blockIdx int, inst Inst, op Operand, pos ProgPoint, slotIdx int, live *indexSet) {
	lr := b.vregRanges[op.VReg.Index()]
	if !live.has(uint(op.VReg.Index())) {
		var from, to ProgPoint
		if op.Kind == OperandDef {
			from, to = pos, pos.Next()
		} else {
			from, to = b.cfg.BlockEntry[blockIdx], pos.Next().Next()
		}
		lr = b.addLiveRangeToVReg(op.VReg, CodeRange{From: from, To: to})
		b.vregRanges[op.VReg.Index()] = lr
		live.set(uint(op.VReg.Index()))
	}

	b.insertUseIntoLiveRange(lr, NewUse(op, pos, uint8(slotIdx)))

	if op.Kind == OperandDef {
		rng := b.LiveRange(lr)
		if rng.Range.From == b.cfg.BlockEntry[blockIdx] {
			rng.Range.From = pos
		}
		rng.SetFlag(StartsAtDef)
		live.clear(uint(op.VReg.Index()))
		b.vregRanges[op.VReg.Index()] = LiveRangeIndexInvalid
	}
}

func (b *LivenessBuilder) handleUse(blockIdx int, inst Inst, op Operand, pos ProgPoint, slotIdx int, live *indexSet) {
	lr := b.vregRanges[op.VReg.Index()]
	if !live.has(uint(op.VReg.Index())) {
		rng := CodeRange{From: b.cfg.BlockEntry[blockIdx], To: pos.Next()}
		lr = b.addLiveRangeToVReg(op.VReg, rng)
		b.vregRanges[op.VReg.Index()] = lr
	}
	b.insertUseIntoLiveRange(lr, NewUse(op, pos, uint8(slotIdx)))
	live.set(uint(op.VReg.Index()))
}

// handleMove integrates a non-trivial move instruction into the scan: the
// three sub-cases are both-pinned, exactly one pinned, and neither
// pinned, each with its own liveness and Edit-list bookkeeping.
func (b *LivenessBuilder) handleMove(block Block, blockIdx int, inst Inst, src, dst Operand, live *indexSet) {
	srcPinned := b.VReg(src.VReg).IsPinned
	dstPinned := b.VReg(dst.VReg).IsPinned

	switch {
	case srcPinned && dstPinned:
		b.handleBothPinnedMove(blockIdx, inst, src, dst, live)
	case srcPinned || dstPinned:
		b.handleOnePinnedMove(block, blockIdx, inst, src, dst, live, srcPinned)
	default:
		b.handleUnpinnedMove(blockIdx, inst, src, dst, live)
	}
}

func (b *LivenessBuilder) handleBothPinnedMove(blockIdx int, inst Inst, src, dst Operand, live *indexSet) {
	if !live.has(uint(src.VReg.Index())) {
		lr := b.addLiveRangeToVReg(src.VReg, CodeRange{From: b.cfg.BlockEntry[blockIdx], To: AtAfter(inst)})
		live.set(uint(src.VReg.Index()))
		b.vregRanges[src.VReg.Index()] = lr
	}
	if live.has(uint(dst.VReg.Index())) {
		lr := b.vregRanges[dst.VReg.Index()]
		b.LiveRange(lr).Range.From = AtAfter(inst)
		live.clear(uint(dst.VReg.Index()))
	} else {
		b.addLiveRangeToVReg(dst.VReg, CodeRange{From: AtAfter(inst), To: AtBefore(inst.Next())})
	}

	srcPReg := src.Constraint.FixedPReg
	dstPReg := dst.Constraint.FixedPReg
	b.insertMove(AtBefore(inst), MovePriorityMultiFixedReg, srcPReg, dstPReg, dst.VReg)
}

func (b *LivenessBuilder) handleOnePinnedMove(block Block, blockIdx int, inst Inst, src, dst Operand, live *indexSet, srcPinned bool) {
	var preg PReg
	var vreg, pinnedVReg VReg
	var kind OperandKind
	var pos OperandPos

	if srcPinned {
		p, ok := b.f.IsPinnedVReg(src.VReg)
		if !ok {
			panic(fmt.Sprintf("regalloc: %s marked pinned but IsPinnedVReg returned false", src.VReg))
		}
		preg, vreg, pinnedVReg, kind, pos = p, dst.VReg, src.VReg, OperandDef, Late
	} else {
		p, ok := b.f.IsPinnedVReg(dst.VReg)
		if !ok {
			panic(fmt.Sprintf("regalloc: %s marked pinned but IsPinnedVReg returned false", dst.VReg))
		}
		preg, vreg, pinnedVReg, kind, pos = p, src.VReg, dst.VReg, OperandUse, Early
	}

	progpoint := AtAfter(inst)
	constraint := FixedRegConstraint(preg)
	operand := NewOperand(vreg, constraint, kind, pos)

	lr := b.vregRanges[vreg.Index()]
	if !live.has(uint(vreg.Index())) {
		var from ProgPoint
		if kind == OperandUse {
			from = b.cfg.BlockEntry[blockIdx]
		} else {
			from = progpoint
		}
		lr = b.addLiveRangeToVReg(vreg, CodeRange{From: from, To: progpoint.Next()})
	}

	b.insertUseIntoLiveRange(lr, NewUse(operand, progpoint, SlotNone))

	if kind == OperandDef {
		live.clear(uint(vreg.Index()))
		rng := b.LiveRange(lr)
		if rng.Range.From == b.cfg.BlockEntry[blockIdx] {
			rng.Range.From = progpoint
		}
		rng.SetFlag(StartsAtDef)
	} else {
		live.set(uint(vreg.Index()))
		b.vregRanges[vreg.Index()] = lr
	}

	if kind == OperandDef {
		// The other vreg is a def, so the pinned-vreg mention is a use.
		if live.has(uint(pinnedVReg.Index())) {
			pinnedLR := b.vregRanges[pinnedVReg.Index()]
			origStart := b.LiveRange(pinnedLR).Range.From
			b.LiveRange(pinnedLR).Range.From = progpoint.Next()
			newLR := b.addLiveRangeToVReg(pinnedVReg, CodeRange{From: origStart, To: progpoint.Prev()})
			b.vregRanges[pinnedVReg.Index()] = newLR

			b.insertMove(AtAfter(inst), MovePriorityRegular, preg, preg, dst.VReg)
			b.insertMove(AtBefore(inst.Next()), MovePriorityMultiFixedReg, preg, preg, src.VReg)
		} else {
			if inst > b.cfg.BlockEntry[blockIdx].Inst() {
				newLR := b.addLiveRangeToVReg(pinnedVReg, CodeRange{From: b.cfg.BlockEntry[blockIdx], To: AtBefore(inst)})
				b.vregRanges[pinnedVReg.Index()] = newLR
				live.set(uint(pinnedVReg.Index()))
			}
			b.insertMove(AtAfter(inst), MovePriorityBlockParam, preg, preg, dst.VReg)
		}
	} else {
		// The other vreg is a use, so the pinned-vreg mention is a def.
		if live.has(uint(pinnedVReg.Index())) {
			pinnedLR := b.vregRanges[pinnedVReg.Index()]
			b.LiveRange(pinnedLR).Range.From = progpoint.Next()
			live.clear(uint(pinnedVReg.Index()))
			b.insertMove(AtBefore(inst.Next()), MovePriorityPostRegular, preg, preg, dst.VReg)
		}
	}
}

func (b *LivenessBuilder) handleUnpinnedMove(blockIdx int, inst Inst, src, dst Operand, live *indexSet) {
	srcConstraint := src.Constraint
	if srcConstraint.Kind == ConstraintReg {
		srcConstraint = AnyConstraint()
	}
	dstConstraint := dst.Constraint
	if dstConstraint.Kind == ConstraintReg {
		dstConstraint = AnyConstraint()
	}

	b.annotate(AtAfter(inst), fmt.Sprintf(" prog-move %s (%s) -> %s (%s)", src.VReg, srcConstraint, dst.VReg, dstConstraint))

	// Conceptually, the move happens between this inst's After and the
	// next inst's Before: the src range ends at (exclusive) next-inst
	// Before, and the dst range starts there, so move resolution treats
	// it like any other inter-LR move at Regular priority.
	pos := AtBefore(inst.Next())
	dstLR := b.vregRanges[dst.VReg.Index()]
	if !live.has(uint(dst.VReg.Index())) {
		dstLR = b.addLiveRangeToVReg(dst.VReg, CodeRange{From: pos, To: pos.Next()})
	}
	if b.LiveRange(dstLR).Range.From == b.cfg.BlockEntry[blockIdx] {
		b.LiveRange(dstLR).Range.From = pos
	}
	b.LiveRange(dstLR).SetFlag(StartsAtDef)
	live.clear(uint(dst.VReg.Index()))
	b.vregRanges[dst.VReg.Index()] = LiveRangeIndexInvalid

	pos2 := AtAfter(inst)
	var srcLR LiveRangeIndex
	if !live.has(uint(src.VReg.Index())) {
		srcLR = b.addLiveRangeToVReg(src.VReg, CodeRange{From: b.cfg.BlockEntry[blockIdx], To: pos2.Next()})
		b.vregRanges[src.VReg.Index()] = srcLR
	} else {
		srcLR = b.vregRanges[src.VReg.Index()]
	}

	srcIsDeadAfterMove := !live.has(uint(src.VReg.Index()))
	live.set(uint(src.VReg.Index()))

	b.ProgMoveSrcs = append(b.ProgMoveSrcs, ProgMoveSrc{VReg: src.VReg, Inst: inst})
	b.ProgMoveDsts = append(b.ProgMoveDsts, ProgMoveDst{VReg: dst.VReg, Inst: inst.Next()})
	b.Stats.ProgMoves++
	if srcIsDeadAfterMove {
		b.Stats.ProgMovesDeadSrc++
		b.ProgMoveMerges = append(b.ProgMoveMerges, ProgMoveMerge{Src: srcLR, Dst: dstLR})
	}
}

// addLiveRangeToVReg appends (or, via the reverse-contiguity fast path,
// extends) a LiveRange for vreg. Construction always proceeds strictly
// backward, so a new range's end can never fall after the start of the
// most-recently-added range for the same vreg; when it falls exactly on
// that start, the two are the same range and we just widen it, avoiding
// an O(n) merge step that would make construction O(n^2) overall.
func (b *LivenessBuilder) addLiveRangeToVReg(vreg VReg, rng CodeRange) LiveRangeIndex {
	data := b.VReg(vreg)
	if n := len(data.Ranges); n > 0 {
		last := data.Ranges[n-1]
		lastFrom := b.LiveRange(last.Index).Range.From
		if rng.To > lastFrom {
			panic(fmt.Sprintf("regalloc: live ranges for %s constructed out of order", vreg))
		}
		if rng.To == lastFrom {
			b.LiveRange(last.Index).Range.From = rng.From
			return last.Index
		}
	}
	lr := b.CreateLiveRange(rng)
	b.LiveRange(lr).VReg = vreg
	data.Ranges = append(data.Ranges, LiveRangeListEntry{Range: rng, Index: lr})
	return lr
}

// insertUseIntoLiveRange appends u to the range at idx, computing its
// spill-weight hint from the range's enclosing block's loop depth and
// folding it into the range's running weight sum.
func (b *LivenessBuilder) insertUseIntoLiveRange(idx LiveRangeIndex, u Use) {
	blk := b.cfg.InsnBlock[u.Pos.Inst().Index()]
	loopDepth := int(b.cfg.ApproxLoopDepth[blk.Index()])
	weight := SpillWeightFromConstraint(u.Operand.Constraint, loopDepth, u.Operand.Kind != OperandUse)
	u.Weight = weight.ToBits()

	rng := b.LiveRange(idx)
	rng.Uses = append(rng.Uses, u)
	rng.SetUsesSpillWeight(rng.UsesSpillWeight().Add(weight))
}

// insertMove records a synthetic preg-to-preg Edit.
func (b *LivenessBuilder) insertMove(pos ProgPoint, prio MovePriority, from, to PReg, vreg VReg) {
	b.Edits = append(b.Edits, Edit{Pos: pos, Priority: prio, From: from, To: to, VReg: vreg})
}
