package regalloc

import "math"

// SpillWeight is a heuristic cost used by the (out-of-scope) splitting and
// spill passes to prefer spilling cheap, cold values over hot ones. It is
// stored compactly: Use.Weight and LiveRange's running sum both keep only
// the high 16 bits of the IEEE-754 float32 representation, which is
// numerically equivalent to the bfloat16 format.
type SpillWeight float32

// ToBits packs w into the top 16 bits of its float32 representation.
func (w SpillWeight) ToBits() uint16 {
	return uint16(math.Float32bits(float32(w)) >> 16)
}

// SpillWeightFromBits unpacks a value previously produced by ToBits. Some
// precision is lost on the round trip; this is acceptable since spill
// weights are heuristic.
func SpillWeightFromBits(bits uint16) SpillWeight {
	return SpillWeight(math.Float32frombits(uint32(bits) << 16))
}

// ZeroSpillWeight is the zero weight.
const ZeroSpillWeight SpillWeight = 0

// Add returns the sum of two spill weights.
func (w SpillWeight) Add(other SpillWeight) SpillWeight { return w + other }

// maxLoopDepthForWeight caps the loop-depth contribution so the weight
// cannot overflow float32 precision for pathologically deep loop nests.
const maxLoopDepthForWeight = 10

// SpillWeightFromConstraint computes the spill-weight hint for a use with
// the given constraint, loop depth, and def-ness:
//
//	hot              = 1000 * 4^min(loopDepth, 10)
//	defBonus         = 2000 if isDef else 0
//	constraintBonus  = 1000 (Any) | 2000 (Reg or FixedReg) | 0 (other)
func SpillWeightFromConstraint(c OperandConstraint, loopDepth int, isDef bool) SpillWeight {
	if loopDepth > maxLoopDepthForWeight {
		loopDepth = maxLoopDepthForWeight
	}
	hot := float32(1000.0)
	for i := 0; i < loopDepth; i++ {
		hot *= 4.0
	}
	var defBonus float32
	if isDef {
		defBonus = 2000.0
	}
	var constraintBonus float32
	switch c.Kind {
	case ConstraintAny:
		constraintBonus = 1000.0
	case ConstraintReg, ConstraintFixedReg:
		constraintBonus = 2000.0
	}
	return SpillWeight(hot + defBonus + constraintBonus)
}
