package regalloc

import "math/bits"

// indexSet is a growable bitset over dense vreg indices, used by the
// dataflow solver to represent per-block live-in/live-out sets. It is
// grounded on the teacher's bitset primitive (backend/regalloc/bitset.go)
// stripped of the VRegSet/VRegTypeTable layers built on top of it there,
// which existed to split real-vs-virtual and int-vs-float registers for
// allocation bookkeeping this package never does.
type indexSet struct {
	bits []uint64
	// Most sets are small; avoid a heap allocation up to 320 bits.
	buf [5]uint64
}

func newIndexSet() indexSet {
	var s indexSet
	return s
}

// has reports whether i is a member of the set.
func (s *indexSet) has(i uint) bool {
	word, shift := i/64, i%64
	return word < uint(len(s.bits)) && s.bits[word]&(1<<shift) != 0
}

// set adds i to the set.
func (s *indexSet) set(i uint) {
	word, shift := i/64, i%64
	if word >= uint(len(s.bits)) {
		if len(s.bits) == 0 && word < uint(len(s.buf)) {
			s.bits = s.buf[:]
		} else {
			s.bits = append(s.bits, make([]uint64, (word+1)-uint(len(s.bits)))...)
		}
	}
	s.bits[word] |= 1 << shift
}

// clear removes i from the set.
func (s *indexSet) clear(i uint) {
	word, shift := i/64, i%64
	if word < uint(len(s.bits)) {
		s.bits[word] &^= 1 << shift
	}
}

// setTo adds or removes i depending on v.
func (s *indexSet) setTo(i uint, v bool) {
	if v {
		s.set(i)
	} else {
		s.clear(i)
	}
}

// clone returns an independent copy of s. The copy never aliases s.buf, so
// mutating one does not affect the other.
func (s *indexSet) clone() indexSet {
	var out indexSet
	if len(s.bits) == 0 {
		return out
	}
	out.bits = append([]uint64(nil), s.bits...)
	return out
}

// growTo ensures s.bits has at least n words of backing storage, without
// losing any bits already set.
func (s *indexSet) growTo(n int) {
	if n <= len(s.bits) {
		return
	}
	grown := make([]uint64, n)
	copy(grown, s.bits)
	s.bits = grown
}

// unionWith ORs other into s in place and reports whether s changed.
func (s *indexSet) unionWith(other *indexSet) bool {
	if len(other.bits) > len(s.bits) {
		s.growTo(len(other.bits))
	}
	changed := false
	for i, w := range other.bits {
		if w == 0 {
			continue
		}
		if s.bits[i]|w != s.bits[i] {
			changed = true
			s.bits[i] |= w
		}
	}
	return changed
}

// scan calls f once for every member of the set, in ascending order.
func (s *indexSet) scan(f func(uint)) {
	for i, w := range s.bits {
		for j := uint(i * 64); w != 0; j++ {
			n := uint(bits.TrailingZeros64(w))
			j += n
			w >>= n + 1
			f(j)
		}
	}
}

// isEmpty reports whether the set has no members.
func (s *indexSet) isEmpty() bool {
	for _, w := range s.bits {
		if w != 0 {
			return false
		}
	}
	return true
}
