package cpbp

import "math/bits"

// BitSet is a fixed-span bit set backing variable domains. Indices are
// 0-based positions within a construction-time span; IntVar maps them to
// actual values through its offset. Operations are copy-on-write: they
// return a new set and never modify the receiver, so a prior value stored
// on the trail stays valid without cloning.
type BitSet struct {
	n     int
	words []uint64
}

// NewBitSet returns a set of span n with all n positions present.
func NewBitSet(n int) BitSet {
	bs := BitSet{n: n, words: make([]uint64, (n+63)/64)}
	for i := 0; i < n; i++ {
		bs.words[i/64] |= 1 << uint(i%64)
	}
	return bs
}

// Clone returns a copy with its own word storage.
func (b BitSet) Clone() BitSet {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return BitSet{n: b.n, words: words}
}

// Has reports whether position v is present.
func (b BitSet) Has(v int) bool {
	if v < 0 || v >= b.n {
		return false
	}
	return (b.words[v/64]>>uint(v%64))&1 == 1
}

// Remove returns a new set with position v absent.
func (b BitSet) Remove(v int) BitSet {
	if !b.Has(v) {
		return b
	}
	nb := b.Clone()
	nb.words[v/64] &^= 1 << uint(v%64)
	return nb
}

// KeepOnly returns a new set containing only position v.
func (b BitSet) KeepOnly(v int) BitSet {
	nb := BitSet{n: b.n, words: make([]uint64, len(b.words))}
	if v >= 0 && v < b.n {
		nb.words[v/64] = 1 << uint(v%64)
	}
	return nb
}

// Count returns the number of positions present.
func (b BitSet) Count() int {
	cnt := 0
	for _, w := range b.words {
		cnt += bits.OnesCount64(w)
	}
	return cnt
}

// IsSingleton reports whether exactly one position remains.
func (b BitSet) IsSingleton() bool { return b.Count() == 1 }

// MinPos returns the smallest position present, or -1 when empty.
func (b BitSet) MinPos() int {
	for i, w := range b.words {
		if w != 0 {
			return i*64 + bits.TrailingZeros64(w)
		}
	}
	return -1
}

// MaxPos returns the largest position present, or -1 when empty.
func (b BitSet) MaxPos() int {
	for i := len(b.words) - 1; i >= 0; i-- {
		if w := b.words[i]; w != 0 {
			return i*64 + 63 - bits.LeadingZeros64(w)
		}
	}
	return -1
}

// IteratePos calls f for each present position in ascending order.
func (b BitSet) IteratePos(f func(v int)) {
	for i, w := range b.words {
		for w != 0 {
			off := bits.TrailingZeros64(w)
			f(i*64 + off)
			w &^= 1 << uint(off)
		}
	}
}
