package regalloc

import (
	"fmt"
	"sort"

	"github.com/gocc-project/ionlive/internal/wazevoapi"
)

// reverseRangeLists flips every vreg's range list and every range's use
// list back into ascending program order. buildLiveRanges
// appends both in reverse, tail-to-head, to get its O(1) per-range
// coalescing; every later pass (safepoint injection, the fixup pass, and
// the bundle-formation pass beyond this package) expects ascending,
// non-overlapping order instead.
//
// Grounded on original_source/src/ion/liveranges.rs's end-of-
// compute_liveness reversal block: "We built them in reverse order above,
// so this is a simple reversal, not a full sort."
func (b *LivenessBuilder) reverseRangeLists() {
	for v := range b.vregs {
		data := &b.vregs[v]
		reverseRangeEntries(data.Ranges)

		var last ProgPoint
		haveLast := false
		for i := range data.Ranges {
			entry := &data.Ranges[i]
			// Defs may have trimmed the range after this entry was
			// appended; refresh from the authoritative record.
			entry.Range = b.LiveRange(entry.Index).Range
			if wazevoapi.RegAllocValidationEnabled && haveLast && last > entry.Range.From {
				panic(fmt.Sprintf("regalloc: %s has out-of-order or overlapping live ranges", VReg(v)))
			}
			last, haveLast = entry.Range.To, true
		}
	}

	for i := 0; i < b.numRanges; i++ {
		rng := b.LiveRange(LiveRangeIndex(i))
		reverseUses(rng.Uses)
		if wazevoapi.RegAllocValidationEnabled {
			for j := 1; j < len(rng.Uses); j++ {
				if rng.Uses[j-1].Pos > rng.Uses[j].Pos {
					panic(fmt.Sprintf("regalloc: live range %d has out-of-order uses", i))
				}
			}
		}
	}
}

func reverseRangeEntries(s []LiveRangeListEntry) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseUses(s []Use) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func sortUsesByPos(s []Use) {
	sort.Slice(s, func(i, j int) bool { return s[i].Pos < s[j].Pos })
}

// finalize publishes the summary Stats and sorts every side table that a
// later pass needs in a canonical order: clobbers by ProgPoint-implicit
// instruction order, the blockparam tables by their natural tuple order,
// and the program-move tables by position.
func (b *LivenessBuilder) finalize() {
	sort.Slice(b.Clobbers, func(i, j int) bool { return b.Clobbers[i] < b.Clobbers[j] })
	sort.Slice(b.BlockparamIns, func(i, j int) bool {
		a, c := b.BlockparamIns[i], b.BlockparamIns[j]
		if a.VReg != c.VReg {
			return a.VReg < c.VReg
		}
		if a.Block != c.Block {
			return a.Block < c.Block
		}
		return a.Pred < c.Pred
	})
	sort.Slice(b.BlockparamOuts, func(i, j int) bool {
		a, c := b.BlockparamOuts[i], b.BlockparamOuts[j]
		if a.FromVReg != c.FromVReg {
			return a.FromVReg < c.FromVReg
		}
		if a.Block != c.Block {
			return a.Block < c.Block
		}
		return a.Succ < c.Succ
	})
	sort.Slice(b.ProgMoveSrcs, func(i, j int) bool { return b.ProgMoveSrcs[i].Inst < b.ProgMoveSrcs[j].Inst })
	sort.Slice(b.ProgMoveDsts, func(i, j int) bool { return b.ProgMoveDsts[i].Inst < b.ProgMoveDsts[j].Inst })

	b.Stats.InitialLiveRangeCount = b.NumLiveRanges()
	b.Stats.BlockParamInsCount = len(b.BlockparamIns)
	b.Stats.BlockParamOutsCount = len(b.BlockparamOuts)
}
