package regalloc

import (
	"fmt"

	"github.com/gocc-project/ionlive/internal/wazevoapi"
)

// LivenessBuilder runs the whole liveness-analysis and live-range
// construction core over a single Function: Entity Store creation,
// dataflow, the reverse range-construction scan, safepoint stack-use
// injection, the multi-fixed-reg fixup, and finalization, in that order.
// It is single-use: construct one per Function via Compute.
type LivenessBuilder struct {
	*Store

	f   Function
	cfg *CFGInfo

	livein  []indexSet
	liveout []indexSet

	// vregRanges tracks, per vreg, the LiveRange currently open during
	// the reverse construction scan. It is valid only while the vreg is
	// a member of the scan's local `live` set; see liveranges.go.
	vregRanges []LiveRangeIndex

	// AnnotationsEnabled and Annotations are a pure debugging aid,
	// grounded on original_source's self.annotations_enabled /
	// self.annotate: when enabled, the neither-pinned program-move
	// rewrite records a human-readable note at the move's After point.
	// No later pass reads this.
	AnnotationsEnabled bool
	Annotations        map[ProgPoint][]string
}

// NewLivenessBuilder allocates a LivenessBuilder for f, using the
// pre-computed cfg analysis.
func NewLivenessBuilder(f Function, cfg *CFGInfo) *LivenessBuilder {
	b := &LivenessBuilder{
		Store:      NewStore(f.NumVRegs()),
		f:          f,
		cfg:        cfg,
		vregRanges: make([]LiveRangeIndex, f.NumVRegs()),
		Annotations: make(map[ProgPoint][]string),
	}
	for i := range b.vregRanges {
		b.vregRanges[i] = LiveRangeIndexInvalid
	}
	return b
}

// Compute runs the whole core over f and returns the populated builder
// (whose exported Store fields downstream passes consume), or
// ErrEntryLivein (wrapped in a *LivenessError) if the entry block has a
// non-empty live-in set.
func Compute(f Function, cfg *CFGInfo) (*LivenessBuilder, error) {
	b := NewLivenessBuilder(f, cfg)
	b.createPRegsAndVRegs()
	if err := b.runDataflow(); err != nil {
		return nil, err
	}
	b.buildLiveRanges()
	// buildLiveRanges appends ranges and uses in reverse (construction
	// runs tail-to-head); every later pass expects ascending order.
	b.reverseRangeLists()
	b.injectSafepointStackUses()
	b.fixupMultiFixedRegs()
	b.finalize()
	return b, nil
}

// createPRegsAndVRegs populates is_ref/is_pinned from the driver's
// reftype/pinned vreg lists and reserves an allocation-offset slot block
// per instruction.
func (b *LivenessBuilder) createPRegsAndVRegs() {
	for _, v := range b.f.ReftypeVRegs() {
		b.VReg(v).IsRef = true
		b.SafepointsPerVReg[v] = make(map[Inst]struct{})
	}
	for _, v := range b.f.PinnedVRegs() {
		b.VReg(v).IsPinned = true
	}
	for i := 0; i < b.f.NumInsts(); i++ {
		b.reserveInstOperandSlots(len(b.f.InstOperands(Inst(i))))
	}
}

func (b *LivenessBuilder) trace(format string, args ...interface{}) {
	if wazevoapi.RegAllocLoggingEnabled {
		fmt.Printf(format+"\n", args...)
	}
}

// annotate records a debugging note at pos, if annotations are enabled.
func (b *LivenessBuilder) annotate(pos ProgPoint, note string) {
	if !b.AnnotationsEnabled {
		return
	}
	b.Annotations[pos] = append(b.Annotations[pos], note)
}
