package regalloc

import "fmt"

// OperandKind classifies how an operand's vreg is touched by the
// instruction that owns it.
type OperandKind uint8

const (
	// OperandUse means the instruction reads the vreg's current value.
	OperandUse OperandKind = iota
	// OperandDef means the instruction writes a new value to the vreg.
	OperandDef
	// OperandMod means the instruction both reads and writes the vreg
	// in place.
	OperandMod
)

// String implements fmt.Stringer.
func (k OperandKind) String() string {
	switch k {
	case OperandUse:
		return "use"
	case OperandDef:
		return "def"
	case OperandMod:
		return "mod"
	default:
		return "invalid"
	}
}

// OperandPos says whether an operand's effect is visible before or after
// the instruction's other operands are evaluated.
type OperandPos uint8

const (
	// Early means the operand takes effect before the instruction's
	// late-position operands.
	Early OperandPos = iota
	// Late means the operand takes effect after the instruction's
	// early-position operands.
	Late
)

// String implements fmt.Stringer.
func (p OperandPos) String() string {
	if p == Early {
		return "early"
	}
	return "late"
}

// ConstraintKind enumerates the shapes an OperandConstraint may take.
type ConstraintKind uint8

const (
	// ConstraintAny allows any location: register or stack slot.
	ConstraintAny ConstraintKind = iota
	// ConstraintReg requires a physical register, any one.
	ConstraintReg
	// ConstraintStack requires a stack slot.
	ConstraintStack
	// ConstraintFixedReg requires one specific physical register.
	ConstraintFixedReg
	// ConstraintReuse requires the same location as a named input
	// operand (by operand index within the same instruction).
	ConstraintReuse
)

// String implements fmt.Stringer.
func (k ConstraintKind) String() string {
	switch k {
	case ConstraintAny:
		return "any"
	case ConstraintReg:
		return "reg"
	case ConstraintStack:
		return "stack"
	case ConstraintFixedReg:
		return "fixed-reg"
	case ConstraintReuse:
		return "reuse"
	default:
		return "invalid"
	}
}

// OperandConstraint describes where an operand's vreg is allowed to live.
// FixedPReg is only meaningful when Kind == ConstraintFixedReg; ReuseInput
// is only meaningful when Kind == ConstraintReuse.
type OperandConstraint struct {
	Kind      ConstraintKind
	FixedPReg PReg
	ReuseInput int
}

// AnyConstraint returns the Any constraint.
func AnyConstraint() OperandConstraint { return OperandConstraint{Kind: ConstraintAny} }

// RegConstraint returns the Reg constraint.
func RegConstraint() OperandConstraint { return OperandConstraint{Kind: ConstraintReg} }

// StackConstraint returns the Stack constraint.
func StackConstraint() OperandConstraint { return OperandConstraint{Kind: ConstraintStack} }

// FixedRegConstraint returns a FixedReg(p) constraint.
func FixedRegConstraint(p PReg) OperandConstraint {
	return OperandConstraint{Kind: ConstraintFixedReg, FixedPReg: p}
}

// ReuseConstraint returns a Reuse(inputIndex) constraint.
func ReuseConstraint(inputIndex int) OperandConstraint {
	return OperandConstraint{Kind: ConstraintReuse, ReuseInput: inputIndex}
}

// String implements fmt.Stringer.
func (c OperandConstraint) String() string {
	switch c.Kind {
	case ConstraintFixedReg:
		return fmt.Sprintf("fixed(%s)", c.FixedPReg)
	case ConstraintReuse:
		return fmt.Sprintf("reuse(%d)", c.ReuseInput)
	default:
		return c.Kind.String()
	}
}

// Operand is a single mention of a vreg on an instruction, with the
// constraint it must satisfy, whether it is a use/def/mod, and whether its
// effect is early or late relative to the instruction's other operands.
type Operand struct {
	VReg       VReg
	Constraint OperandConstraint
	Kind       OperandKind
	Pos        OperandPos
}

// NewOperand constructs an Operand.
func NewOperand(v VReg, c OperandConstraint, kind OperandKind, pos OperandPos) Operand {
	return Operand{VReg: v, Constraint: c, Kind: kind, Pos: pos}
}

// String implements fmt.Stringer.
func (o Operand) String() string {
	return fmt.Sprintf("%s(%s,%s,%s)", o.VReg, o.Kind, o.Pos, o.Constraint)
}

// SlotNone marks a Use that does not correspond to a real operand slot on
// an instruction (a ghost use or a safepoint-injected virtual use).
const SlotNone uint8 = 0xff

// Use records one occurrence of a vreg within a LiveRange: the operand
// itself, the program point at which it occurs, its operand index on the
// owning instruction (or SlotNone), and a packed spill-weight hint.
type Use struct {
	Operand Operand
	Pos     ProgPoint
	Slot    uint8
	Weight  uint16
}

// NewUse constructs a Use with a zero (not-yet-computed) weight.
func NewUse(operand Operand, pos ProgPoint, slot uint8) Use {
	return Use{Operand: operand, Pos: pos, Slot: slot}
}
