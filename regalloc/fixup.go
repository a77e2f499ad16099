package regalloc

// fixupMultiFixedRegs demotes duplicate FixedReg constraints at the same
// ProgPoint down to a plain Reg constraint, recording a fixup so a later
// move-resolution pass can reconcile the two pregs. Without this, a vreg
// with two distinct FixedReg uses at one ProgPoint would force a single
// LiveRange to occupy two pregs simultaneously, which the
// (out-of-scope) bundle-splitting pass cannot represent: bundles and
// ranges are assumed to occupy exactly one allocation apiece.
//
// Grounded on original_source/src/ion/liveranges.rs's multi-fixed-reg
// cleanup pass, which walks each vreg's uses in ascending ProgPoint order
// (already established by reverseRangeLists) tracking, per distinct
// ProgPoint, which pregs have already been claimed.
func (b *LivenessBuilder) fixupMultiFixedRegs() {
	type clobberAt struct {
		preg PReg
		inst Inst
	}

	var seenVRegs []VReg
	var firstPReg []PReg
	var extraClobbers []clobberAt

	for v := range b.vregs {
		data := &b.vregs[v]
		for _, entry := range data.Ranges {
			rng := b.LiveRange(entry.Index)

			seenVRegs = seenVRegs[:0]
			firstPReg = firstPReg[:0]
			extraClobbers = extraClobbers[:0]

			var lastPoint ProgPoint
			havePoint := false

			for ui := range rng.Uses {
				u := &rng.Uses[ui]
				pos := u.Pos
				if havePoint && pos != lastPoint {
					seenVRegs = seenVRegs[:0]
					firstPReg = firstPReg[:0]
				}
				lastPoint, havePoint = pos, true

				if u.Operand.Constraint.Kind != ConstraintFixedReg {
					continue
				}
				preg := u.Operand.Constraint.FixedPReg

				dup := -1
				for si, sv := range seenVRegs {
					if sv == u.Operand.VReg {
						dup = si
						break
					}
				}
				if dup < 0 {
					seenVRegs = append(seenVRegs, u.Operand.VReg)
					firstPReg = append(firstPReg, preg)
					continue
				}

				origPReg := firstPReg[dup]
				if origPReg == preg {
					continue
				}

				b.MultiFixedRegFixups = append(b.MultiFixedRegFixups, MultiFixedRegFixup{
					Pos: pos, OrigPReg: origPReg, DupPReg: preg, Slot: u.Slot,
				})
				u.Operand = NewOperand(u.Operand.VReg, RegConstraint(), u.Operand.Kind, u.Operand.Pos)
				extraClobbers = append(extraClobbers, clobberAt{preg: preg, inst: pos.Inst()})
			}

			for _, c := range extraClobbers {
				rng2 := CodeRange{From: AtBefore(c.inst), To: AtBefore(c.inst.Next())}
				b.AddLiveRangeToPReg(rng2, c.preg)
			}
		}
	}
}
