// Package regalloc computes liveness and live ranges for the backtracking
// register allocator core: given a CFG of instructions with typed operand
// constraints, it builds, in a single reverse pass per block, the live
// ranges and uses that the bundle-formation, interference, and coloring
// passes (not part of this package) consume.
package regalloc

import "fmt"

// VReg identifies a virtual register. It doubles as the dense index into
// the per-vreg record arena: vregs are numbered 0..NumVRegs()-1 by the
// driver, so no separate identifier/index split is needed here (unlike a
// register-class-carrying VReg, ours carries no class bits to pack).
type VReg uint32

// VRegInvalid is the sentinel for "no vreg".
const VRegInvalid VReg = ^VReg(0)

// Index returns the dense arena index of v.
func (v VReg) Index() int { return int(v) }

// Valid reports whether v refers to a real vreg.
func (v VReg) Valid() bool { return v != VRegInvalid }

// String implements fmt.Stringer.
func (v VReg) String() string {
	if !v.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("v%d", uint32(v))
}

// PReg identifies a physical register of the target. Indices are dense
// over [0, MaxPRegIndex).
type PReg uint8

const (
	// PRegInvalid is the sentinel for "no preg".
	PRegInvalid PReg = 0xff
	// MaxPRegIndex bounds the dense preg index space: preg indices are
	// dense over [0, MaxPRegIndex).
	MaxPRegIndex = 64
)

// Index returns the dense arena index of r.
func (r PReg) Index() int { return int(r) }

// Valid reports whether r refers to a real physical register.
func (r PReg) Valid() bool { return r != PRegInvalid }

// String implements fmt.Stringer.
func (r PReg) String() string {
	if !r.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("p%d", uint8(r))
}

// Inst identifies an instruction by its dense position in program order.
type Inst uint32

// InstInvalid is the sentinel for "no instruction".
const InstInvalid Inst = ^Inst(0)

// Index returns the dense arena index of i.
func (i Inst) Index() int { return int(i) }

// Next returns the instruction immediately following i in program order.
func (i Inst) Next() Inst { return i + 1 }

// Valid reports whether i refers to a real instruction.
func (i Inst) Valid() bool { return i != InstInvalid }

// Block identifies a basic block by its dense position in the CFG.
type Block uint32

// BlockInvalid is the sentinel for "no block".
const BlockInvalid Block = ^Block(0)

// Index returns the dense arena index of b.
func (b Block) Index() int { return int(b) }

// Valid reports whether b refers to a real block.
func (b Block) Valid() bool { return b != BlockInvalid }

// LiveRangeIndex identifies a LiveRange in the arena.
type LiveRangeIndex int32

// LiveRangeIndexInvalid is the sentinel for "no live range".
const LiveRangeIndexInvalid LiveRangeIndex = -1

// Valid reports whether i refers to a real live range.
func (i LiveRangeIndex) Valid() bool { return i != LiveRangeIndexInvalid }

// BundleIndex identifies a LiveBundle in the arena. Bundle formation is a
// later pass (out of scope for this package); the Entity Store still
// provides the creation primitive and the zero-value sentinel so that
// LiveRange.Bundle has somewhere valid to point once that pass runs.
type BundleIndex int32

// BundleIndexInvalid is the sentinel for "not yet bundled".
const BundleIndexInvalid BundleIndex = -1
