package regalloc

import "sort"

// injectSafepointStackUses adds a virtual Stack-constrained Use to every
// live range of a reference-typed, non-pinned vreg that spans a safepoint
// instruction: later passes need a stack-resident copy of every live
// reference at a safepoint so a collector can scan it, and a plain Use
// is the cheapest way to force that requirement onto the existing
// range/bundle machinery without a separate representation.
//
// Pinned reftype vregs are skipped: a pinned vreg always resolves to the
// same preg, so there is no allocation decision for a virtual use to
// influence.
//
// Grounded on original_source/src/ion/liveranges.rs's safepoint-insertion
// loop, which walks each reftype vreg's (already-ascending) range list in
// lockstep with the safepoint instruction list, sorted here first.
func (b *LivenessBuilder) injectSafepointStackUses() {
	// buildLiveRanges appends safepoints in reverse program order.
	sort.Slice(b.Safepoints, func(i, j int) bool { return b.Safepoints[i] < b.Safepoints[j] })

	for _, vreg := range b.f.ReftypeVRegs() {
		if b.VReg(vreg).IsPinned {
			continue
		}

		safepointIdx := 0
		ranges := b.VReg(vreg).Ranges
		for rangeIdx := 0; rangeIdx < len(ranges); rangeIdx++ {
			entry := ranges[rangeIdx]
			inserted := false

			for safepointIdx < len(b.Safepoints) && AtBefore(b.Safepoints[safepointIdx]) < entry.Range.From {
				safepointIdx++
			}
			for safepointIdx < len(b.Safepoints) && entry.Range.Contains(AtBefore(b.Safepoints[safepointIdx])) {
				pos := AtBefore(b.Safepoints[safepointIdx])
				operand := NewOperand(vreg, StackConstraint(), OperandUse, Early)
				b.insertUseIntoLiveRange(entry.Index, NewUse(operand, pos, SlotNone))
				safepointIdx++
				inserted = true
			}

			if inserted {
				rng := b.LiveRange(entry.Index)
				sortUsesByPos(rng.Uses)
			}

			if safepointIdx >= len(b.Safepoints) {
				break
			}
		}
	}
}
