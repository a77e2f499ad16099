package regalloc

import (
	"sort"

	"github.com/gocc-project/ionlive/internal/wazevoapi"
)

// LiveRangeFlag records boolean properties of a LiveRange that downstream
// passes need but that don't belong in the numeric spill-weight word.
type LiveRangeFlag uint8

// StartsAtDef marks a LiveRange whose start coincides exactly with a def
// of its vreg (as opposed to starting at a block boundary because the
// vreg was already live).
const StartsAtDef LiveRangeFlag = 1 << 0

// LiveRange is a maximal interval during which a vreg's value must be
// resident somewhere, together with every Use within it.
type LiveRange struct {
	Range      CodeRange
	VReg       VReg
	Bundle     BundleIndex
	Uses       []Use
	Flags      LiveRangeFlag
	MergedInto LiveRangeIndex

	weightBits uint16
}

// UsesSpillWeight returns the additive sum of this range's uses' spill
// weights.
func (r *LiveRange) UsesSpillWeight() SpillWeight { return SpillWeightFromBits(r.weightBits) }

// SetUsesSpillWeight stores the packed sum of this range's uses' spill
// weights.
func (r *LiveRange) SetUsesSpillWeight(w SpillWeight) { r.weightBits = w.ToBits() }

// HasFlag reports whether f is set on this range.
func (r *LiveRange) HasFlag(f LiveRangeFlag) bool { return r.Flags&f != 0 }

// SetFlag sets f on this range.
func (r *LiveRange) SetFlag(f LiveRangeFlag) { r.Flags |= f }

// LiveRangeListEntry is one entry of a vreg's range list: a cached copy of
// the range (refreshed from the authoritative LiveRange at finalization,
// since defs may trim it after this entry is appended) plus the index of
// the authoritative LiveRange.
type LiveRangeListEntry struct {
	Range CodeRange
	Index LiveRangeIndex
}

// VRegData is the per-vreg record: its range list (descending during
// construction, ascending after Finalize), its blockparam owner (if any),
// and its reference/pinned flags.
type VRegData struct {
	Ranges     []LiveRangeListEntry
	Blockparam Block
	IsRef      bool
	IsPinned   bool
}

// PRegReservation reserves a CodeRange on a physical register, e.g. for a
// clobber or for a multi-fixed-reg fixup's extra clobber.
type PRegReservation struct {
	Range CodeRange
	Owner LiveRangeIndex
}

// PRegData is the per-preg record: the register identity plus its
// reserved-interval allocation map, kept sorted by Range.From so a later
// pass can binary-search it for overlap against a candidate range.
type PRegData struct {
	Reg         PReg
	Allocations []PRegReservation
}

// BundleData is the placeholder Entity Store record for a LiveBundle.
// Bundle formation itself is a later pass, out of scope for this package;
// this package only provides the creation primitive and storage so that
// LiveRange.Bundle has somewhere to point once that pass runs.
type BundleData struct {
	Allocation PReg
	Ranges     []LiveRangeIndex
}

// BlockParamIn records that vreg `VReg` is a blockparam of `Block`, with
// an inbound value supplied by `Pred` (one entry per predecessor edge).
type BlockParamIn struct {
	VReg  VReg
	Block Block
	Pred  Block
}

// BlockParamOut mirrors a BlockParamIn on the source side of a branch: the
// vreg passed as the branch operand, the block doing the branching, the
// successor, and the blockparam vreg it feeds.
type BlockParamOut struct {
	FromVReg      VReg
	Block         Block
	Succ          Block
	BlockparamVReg VReg
}

// ProgMoveSrc is the source-side marker for a program move (a move
// instruction between two non-pinned vregs), recorded at the move's own
// instruction.
type ProgMoveSrc struct {
	VReg VReg
	Inst Inst
}

// ProgMoveDst is the destination-side marker for a program move, recorded
// at the instruction following the move (see liveranges.go for why).
type ProgMoveDst struct {
	VReg VReg
	Inst Inst
}

// ProgMoveMerge pairs the source and destination LiveRange of a program
// move whose source died at the move, so the (out-of-scope) move
// resolution pass can consider coalescing them.
type ProgMoveMerge struct {
	Src, Dst LiveRangeIndex
}

// MultiFixedRegFixup records that a use was demoted from FixedReg(dup) to
// plain Reg because an earlier use of the same vreg at the same ProgPoint
// already claimed a different fixed preg (orig); a later move-resolution pass
// must insert a move from orig to dup (or vice versa) to reconcile them.
type MultiFixedRegFixup struct {
	Pos              ProgPoint
	OrigPReg, DupPReg PReg
	Slot             uint8
}

// Stats publishes summary counters produced by this phase.
type Stats struct {
	InitialLiveRangeCount int
	BlockParamInsCount    int
	BlockParamOutsCount   int
	ProgMoves             int
	ProgMovesDeadSrc      int
	LiveinIterations      int
	LiveinBlocks          int
}

// Store is the append-only entity store: dense arenas for
// pregs, vregs, live ranges, and bundles, plus the side tables that later
// allocation passes consume. All mutation is owned by the LivenessBuilder
// that embeds it; once Compute returns, Store is read-only except for the
// fields later passes explicitly own (LiveRange.Bundle, BundleData).
type Store struct {
	vregs     []VRegData
	pregs     []PRegData
	rangePool wazevoapi.Pool[LiveRange]
	numRanges int
	bundles   []BundleData

	instAllocOffsets []int32

	BlockparamIns   []BlockParamIn
	BlockparamOuts  []BlockParamOut
	ProgMoveSrcs    []ProgMoveSrc
	ProgMoveDsts    []ProgMoveDst
	ProgMoveMerges  []ProgMoveMerge
	Safepoints      []Inst
	SafepointsPerVReg map[VReg]map[Inst]struct{}
	MultiFixedRegFixups []MultiFixedRegFixup
	Clobbers        []Inst
	Edits           []Edit

	Stats Stats
}

// NewStore allocates a Store sized for a function with numVRegs vregs.
// PReg records are preallocated over the whole dense index space.
func NewStore(numVRegs int) *Store {
	s := &Store{
		vregs:             make([]VRegData, numVRegs),
		pregs:             make([]PRegData, MaxPRegIndex),
		rangePool:         wazevoapi.NewPool[LiveRange](),
		SafepointsPerVReg: make(map[VReg]map[Inst]struct{}),
	}
	for i := range s.pregs {
		s.pregs[i].Reg = PReg(i)
	}
	for v := range s.vregs {
		s.vregs[v] = VRegData{Blockparam: BlockInvalid}
	}
	return s
}

// NumVRegs returns the size of the preallocated vreg index space.
func (s *Store) NumVRegs() int { return len(s.vregs) }

// VReg returns the record for v. Panics if v is out of range: the vreg
// index space is preallocated from the driver's NumVRegs() up front, so
// an out-of-range index is always a driver bug.
func (s *Store) VReg(v VReg) *VRegData { return &s.vregs[v.Index()] }

// PReg returns the record for p.
func (s *Store) PReg(p PReg) *PRegData { return &s.pregs[p.Index()] }

// CreateLiveRange allocates a new LiveRange record and returns its index.
func (s *Store) CreateLiveRange(rng CodeRange) LiveRangeIndex {
	idx := LiveRangeIndex(s.numRanges)
	s.numRanges++
	r := s.rangePool.Allocate()
	*r = LiveRange{
		Range:      rng,
		VReg:       VRegInvalid,
		Bundle:     BundleIndexInvalid,
		MergedInto: LiveRangeIndexInvalid,
	}
	return idx
}

// LiveRange returns the record for idx.
func (s *Store) LiveRange(idx LiveRangeIndex) *LiveRange { return s.rangePool.View(int(idx)) }

// NumLiveRanges returns the number of LiveRange records created so far.
func (s *Store) NumLiveRanges() int { return s.numRanges }

// CreateBundle allocates a new (empty) BundleData record. Exposed for the
// later bundle-formation pass; this package never calls it itself.
func (s *Store) CreateBundle() BundleIndex {
	idx := BundleIndex(len(s.bundles))
	s.bundles = append(s.bundles, BundleData{})
	return idx
}

// Bundle returns the record for idx.
func (s *Store) Bundle(idx BundleIndex) *BundleData { return &s.bundles[idx] }

// reserveInstOperandSlots records that inst has n operand slots, growing
// the allocation-offset prefix array: each instruction's operands get a
// block of allocation slots, all initially unassigned, for the
// final-allocation pass (out of scope here) to fill in.
func (s *Store) reserveInstOperandSlots(n int) {
	var start int32
	if len(s.instAllocOffsets) > 0 {
		last := s.instAllocOffsets[len(s.instAllocOffsets)-1]
		start = last
	}
	s.instAllocOffsets = append(s.instAllocOffsets, start+int32(n))
}

// AddLiveRangeToPReg reserves rng on preg's allocation map, used for
// clobbers and for multi-fixed-reg extra clobbers. Allocations is kept
// sorted by Range.From via sort.Search, matching the teacher's own
// sort.Search/sort.Slice idiom for ordered interval lists.
func (s *Store) AddLiveRangeToPReg(rng CodeRange, preg PReg) {
	rec := s.PReg(preg)
	i := sort.Search(len(rec.Allocations), func(i int) bool {
		return rec.Allocations[i].Range.From >= rng.From
	})
	rec.Allocations = append(rec.Allocations, PRegReservation{})
	copy(rec.Allocations[i+1:], rec.Allocations[i:])
	rec.Allocations[i] = PRegReservation{Range: rng, Owner: LiveRangeIndexInvalid}
}
