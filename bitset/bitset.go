// Package bitset implements a growable array of bits addressed in 32 bit words.
//
// Positions are non-negative integers. Reads past the allocated size report false and writes
// past it grow the set, so callers never deal with bounds. Binary operations between two sets of
// different lengths treat the shorter one as if it were padded with zero words.
//
// Storage and the set algebra are delegated to github.com/bits-and-blooms/bitset. This package
// adds the 32 bit word view used by Size, String and Cardinality, and the nil operand rules.
package bitset

import (
	"strconv"
	"strings"

	bbs "github.com/bits-and-blooms/bitset"
)

const bitsPerWord = 32

// hammingTable holds the population count of every nibble.
var hammingTable = [16]int{0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4}

// BitSet is a growable bit array. The zero value is an empty set ready to use.
type BitSet struct {
	bits bbs.BitSet
	// size is the number of allocated bits, always a multiple of bitsPerWord.
	size int
}

func wordsFor(bits int) int {
	return (bits + bitsPerWord - 1) / bitsPerWord
}

// New creates a BitSet with room for at least size bits.
func New(size int) *BitSet {
	n := max(wordsFor(size), 1)
	b := &BitSet{size: n * bitsPerWord}
	b.bits = *bbs.New(uint(b.size))
	return b
}

// Clone returns a deep copy of b. Cloning nil returns an empty set.
func Clone(b *BitSet) *BitSet {
	if b == nil {
		return New(0)
	}
	c := &BitSet{size: b.size}
	c.bits.InPlaceUnion(&b.bits)
	return c
}

// grow makes sure pos is addressable, zero extending the words.
func (b *BitSet) grow(pos int) {
	if pos < b.size {
		return
	}
	b.size = (pos/bitsPerWord + 1) * bitsPerWord
}

// Size returns the number of allocated bits.
func (b *BitSet) Size() int {
	return b.size
}

// Get reports whether the bit at pos is set.
func (b *BitSet) Get(pos int) bool {
	if pos < 0 || pos >= b.size {
		return false
	}
	return b.bits.Test(uint(pos))
}

// Set sets the bit at pos.
func (b *BitSet) Set(pos int) {
	b.SetTo(pos, true)
}

// SetTo sets the bit at pos to value.
func (b *BitSet) SetTo(pos int, value bool) {
	if pos < 0 {
		return
	}
	b.grow(pos)
	b.bits.SetTo(uint(pos), value)
}

// Clear unsets the bit at pos.
func (b *BitSet) Clear(pos int) {
	b.SetTo(pos, false)
}

// SetRange sets every bit in [from, to].
func (b *BitSet) SetRange(from, to int) {
	b.SetRangeTo(from, to, true)
}

// ClearRange unsets every bit in [from, to].
func (b *BitSet) ClearRange(from, to int) {
	b.SetRangeTo(from, to, false)
}

// SetRangeTo sets every bit in [from, to] to value.
func (b *BitSet) SetRangeTo(from, to int, value bool) {
	from = max(from, 0)
	if to < from {
		return
	}
	b.grow(to)
	for i := from; i <= to; i++ {
		b.bits.SetTo(uint(i), value)
	}
}

// SetAll sets every allocated bit.
func (b *BitSet) SetAll() {
	b.bits.ClearAll()
	b.bits.FlipRange(0, uint(b.size))
}

// ClearAll unsets every allocated bit. The allocation is kept.
func (b *BitSet) ClearAll() {
	b.bits.ClearAll()
}

// And keeps only the bits that are also set in o. And(nil) clears the set.
// Words of b past the end of o are zeroed.
func (b *BitSet) And(o *BitSet) {
	if o == nil {
		b.ClearAll()
		return
	}
	b.bits.InPlaceIntersection(&o.bits)
}

// Or sets every bit that is set in o. Or(nil) is a no-op.
func (b *BitSet) Or(o *BitSet) {
	if o == nil {
		return
	}
	b.size = max(b.size, o.size)
	b.bits.InPlaceUnion(&o.bits)
}

// Xor flips every bit that is set in o. Xor(nil) is a no-op.
func (b *BitSet) Xor(o *BitSet) {
	if o == nil {
		return
	}
	b.size = max(b.size, o.size)
	b.bits.InPlaceSymmetricDifference(&o.bits)
}

// Not flips every allocated bit.
func (b *BitSet) Not() {
	b.bits.FlipRange(0, uint(b.size))
}

// IsEmpty reports whether no bit is set.
func (b *BitSet) IsEmpty() bool {
	return b.bits.None()
}

// Intersects reports whether b and o share at least one set bit.
func (b *BitSet) Intersects(o *BitSet) bool {
	if o == nil {
		return false
	}
	return b.bits.IntersectionCardinality(&o.bits) > 0
}

// Contains reports whether every bit set in o is also set in b.
func (b *BitSet) Contains(o *BitSet) bool {
	if o == nil {
		return false
	}
	return b.bits.IsSuperSet(&o.bits)
}

// Equals reports whether b and o have the same bits set, ignoring trailing zero words.
func (b *BitSet) Equals(o *BitSet) bool {
	if o == nil {
		return false
	}
	return b.bits.IsSuperSet(&o.bits) && o.bits.IsSuperSet(&b.bits)
}

// words returns the allocated bits as 32 bit words, least significant first.
func (b *BitSet) words() []uint32 {
	out := make([]uint32, b.size/bitsPerWord)
	for i, w := range b.bits.Words() {
		if lo := 2 * i; lo < len(out) {
			out[lo] = uint32(w)
		}
		if hi := 2*i + 1; hi < len(out) {
			out[hi] = uint32(w >> bitsPerWord)
		}
	}
	return out
}

// Cardinality returns the number of set bits.
func (b *BitSet) Cardinality() int {
	count := 0
	for _, w := range b.words() {
		for shift := 0; shift < bitsPerWord; shift += 4 {
			count += hammingTable[(w>>uint(shift))&0xF]
		}
	}
	return count
}

// String prints the words in base 2, most significant word first.
func (b *BitSet) String() string {
	words := b.words()
	parts := make([]string, len(words))
	for i, w := range words {
		parts[len(words)-1-i] = strconv.FormatUint(uint64(w), 2)
	}
	return strings.Join(parts, " ")
}
