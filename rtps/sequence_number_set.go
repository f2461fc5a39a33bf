package rtps

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Sequence numbers are assigned from 1. Zero is never a valid sequence number.
type SequenceNumber uint64

const SequenceNumberUnknown SequenceNumber = 0

func (self SequenceNumber) EncodeCdr(w *CdrWriter) {
	w.WriteUint64(uint64(self))
}

func (self *SequenceNumber) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	v, err := r.ReadUint64()
	if err != nil {
		return decodeError("sequence_number", offset, err)
	}
	*self = SequenceNumber(v)
	return nil
}

// a set covers `[base, base + MaxSetOffset]`
const MaxSetOffset = 255

const bitmapBits = MaxSetOffset + 1
const bitmapWords = bitmapBits / 32

// Fixed 256 bit window. Bit `j` of word `i` is offset `32*i + j`.
type bitmap [bitmapWords]uint32

func (self *bitmap) set(offset uint8) bool {
	i := offset / 32
	mask := uint32(1) << (offset % 32)
	if self[i]&mask != 0 {
		return false
	}
	self[i] |= mask
	return true
}

func (self *bitmap) has(offset uint8) bool {
	return self[offset/32]&(uint32(1)<<(offset%32)) != 0
}

func (self *bitmap) isEmpty() bool {
	return *self == bitmap{}
}

func (self *bitmap) count() int {
	n := 0
	for _, word := range self {
		n += bits.OnesCount32(word)
	}
	return n
}

// 0 when empty
func (self *bitmap) maxOffset() uint8 {
	for i := bitmapWords - 1; 0 <= i; i -= 1 {
		if word := self[i]; word != 0 {
			return uint8(32*i + 31 - bits.LeadingZeros32(word))
		}
	}
	return 0
}

// ascending. stops when `f` returns false.
func (self *bitmap) rangeOffsets(f func(offset uint8) bool) {
	for i, word := range self {
		for word != 0 {
			j := bits.TrailingZeros32(word)
			if !f(uint8(32*i + j)) {
				return
			}
			word &= word - 1
		}
	}
}

func (self *bitmap) offsets() []uint8 {
	offsets := make([]uint8, 0, self.count())
	self.rangeOffsets(func(offset uint8) bool {
		offsets = append(offsets, offset)
		return true
	})
	return offsets
}

// bit count (multiple of 32, enough bits for the max offset) then the words
func (self *bitmap) encode(w *CdrWriter) {
	n := int(self.maxOffset()) + 1
	bitCount := (n + 31) / 32 * 32
	w.WriteUint32(uint32(bitCount))
	for i := 0; i < bitCount/32; i += 1 {
		w.WriteUint32(self[i])
	}
}

// A bit count over 256 rejects the whole element. Bits are never silently dropped.
func (self *bitmap) decode(r *CdrReader, field string) error {
	offset := r.Offset()
	bitCount, err := r.ReadUint32()
	if err != nil {
		return decodeError(field, offset, err)
	}
	if bitmapBits < bitCount {
		return decodeError(field, offset, fmt.Errorf("%w: %d", ErrBitmapTooLarge, bitCount))
	}
	words := int((bitCount + 31) / 32)
	var decoded bitmap
	for i := 0; i < words; i += 1 {
		wordOffset := r.Offset()
		word, err := r.ReadUint32()
		if err != nil {
			return decodeError(field, wordOffset, err)
		}
		decoded[i] = word
	}
	*self = decoded
	return nil
}

// The sequence numbers `base + offset` for a set of offsets in [0, 255].
// Construct with `NewSequenceNumberSet`. The zero value is not a valid set.
// comparable
type SequenceNumberSet struct {
	base SequenceNumber
	bits bitmap
}

func NewSequenceNumberSet(base SequenceNumber) (SequenceNumberSet, error) {
	if base == 0 {
		return SequenceNumberSet{}, ErrZeroBase
	}
	return SequenceNumberSet{
		base: base,
	}, nil
}

// panics on an invalid base or value
func RequireSequenceNumberSet(base SequenceNumber, values ...SequenceNumber) SequenceNumberSet {
	set, err := NewSequenceNumberSet(base)
	if err != nil {
		panic(err)
	}
	for _, value := range values {
		if _, err := set.InsertValue(value); err != nil {
			panic(err)
		}
	}
	return set
}

func (self *SequenceNumberSet) Base() SequenceNumber {
	return self.base
}

// returns true if newly inserted.
// Offsets past the largest sequence number are never inserted.
func (self *SequenceNumberSet) InsertOffset(offset uint8) bool {
	if !self.fits(offset) {
		return false
	}
	return self.bits.set(offset)
}

// near the top of the range the window is shorter than 256
func (self *SequenceNumberSet) fits(offset uint8) bool {
	return uint64(offset) <= math.MaxUint64-uint64(self.base)
}

// returns true if newly inserted
func (self *SequenceNumberSet) InsertValue(value SequenceNumber) (bool, error) {
	if value < self.base {
		return false, fmt.Errorf("%w: %d < %d", ErrLessThanBase, value, self.base)
	}
	if MaxSetOffset < value-self.base {
		return false, fmt.Errorf("%w: %d", ErrOffsetTooLarge, value-self.base)
	}
	return self.bits.set(uint8(value - self.base)), nil
}

func (self *SequenceNumberSet) Contains(value SequenceNumber) bool {
	if value < self.base || MaxSetOffset < value-self.base {
		return false
	}
	return self.bits.has(uint8(value - self.base))
}

// Range calls `f` for each value in ascending order until `f` returns false.
// It may be called any number of times.
func (self *SequenceNumberSet) Range(f func(value SequenceNumber) bool) {
	self.bits.rangeOffsets(func(offset uint8) bool {
		return f(self.base + SequenceNumber(offset))
	})
}

// ascending
func (self *SequenceNumberSet) Values() []SequenceNumber {
	values := make([]SequenceNumber, 0, self.bits.count())
	self.Range(func(value SequenceNumber) bool {
		values = append(values, value)
		return true
	})
	return values
}

// ascending
func (self *SequenceNumberSet) Offsets() []uint8 {
	return self.bits.offsets()
}

// The largest offset, or 0 for an empty set.
// Use `IsEmpty` to tell an empty set from one that holds only the base.
func (self *SequenceNumberSet) MaxOffset() uint8 {
	return self.bits.maxOffset()
}

func (self *SequenceNumberSet) IsEmpty() bool {
	return self.bits.isEmpty()
}

func (self *SequenceNumberSet) Len() int {
	return self.bits.count()
}

func (self SequenceNumberSet) String() string {
	return fmt.Sprintf("%d/{%s}", self.base, joinOffsets(self.bits.offsets()))
}

func (self SequenceNumberSet) EncodeCdr(w *CdrWriter) {
	self.base.EncodeCdr(w)
	self.bits.encode(w)
}

func (self *SequenceNumberSet) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	var base SequenceNumber
	if err := base.DecodeCdr(r); err != nil {
		return decodeError("sequence_number_set.base", offset, err)
	}
	if base == 0 {
		return decodeError("sequence_number_set.base", offset, ErrZeroBase)
	}
	bitmapOffset := r.Offset()
	var b bitmap
	if err := b.decode(r, "sequence_number_set.bitmap"); err != nil {
		return err
	}
	if !b.isEmpty() && uint64(math.MaxUint64-base) < uint64(b.maxOffset()) {
		return decodeError("sequence_number_set.bitmap", bitmapOffset, fmt.Errorf("%w: %d past %d", ErrOffsetTooLarge, b.maxOffset(), base))
	}
	self.base = base
	self.bits = b
	return nil
}

type FragmentNumber uint32

// The same 256 bit window as `SequenceNumberSet`, over a 32 bit fragment number base.
// comparable
type FragmentNumberSet struct {
	base FragmentNumber
	bits bitmap
}

func NewFragmentNumberSet(base FragmentNumber) (FragmentNumberSet, error) {
	if base == 0 {
		return FragmentNumberSet{}, ErrZeroBase
	}
	return FragmentNumberSet{
		base: base,
	}, nil
}

func RequireFragmentNumberSet(base FragmentNumber, values ...FragmentNumber) FragmentNumberSet {
	set, err := NewFragmentNumberSet(base)
	if err != nil {
		panic(err)
	}
	for _, value := range values {
		if _, err := set.InsertValue(value); err != nil {
			panic(err)
		}
	}
	return set
}

func (self *FragmentNumberSet) Base() FragmentNumber {
	return self.base
}

func (self *FragmentNumberSet) InsertOffset(offset uint8) bool {
	if !self.fits(offset) {
		return false
	}
	return self.bits.set(offset)
}

func (self *FragmentNumberSet) fits(offset uint8) bool {
	return uint32(offset) <= math.MaxUint32-uint32(self.base)
}

func (self *FragmentNumberSet) InsertValue(value FragmentNumber) (bool, error) {
	if value < self.base {
		return false, fmt.Errorf("%w: %d < %d", ErrLessThanBase, value, self.base)
	}
	if MaxSetOffset < value-self.base {
		return false, fmt.Errorf("%w: %d", ErrOffsetTooLarge, value-self.base)
	}
	return self.bits.set(uint8(value - self.base)), nil
}

func (self *FragmentNumberSet) Contains(value FragmentNumber) bool {
	if value < self.base || MaxSetOffset < value-self.base {
		return false
	}
	return self.bits.has(uint8(value - self.base))
}

func (self *FragmentNumberSet) Values() []FragmentNumber {
	values := make([]FragmentNumber, 0, self.bits.count())
	self.bits.rangeOffsets(func(offset uint8) bool {
		values = append(values, self.base+FragmentNumber(offset))
		return true
	})
	return values
}

func (self *FragmentNumberSet) MaxOffset() uint8 {
	return self.bits.maxOffset()
}

func (self *FragmentNumberSet) IsEmpty() bool {
	return self.bits.isEmpty()
}

func (self FragmentNumberSet) String() string {
	return fmt.Sprintf("%d/{%s}", self.base, joinOffsets(self.bits.offsets()))
}

func (self FragmentNumberSet) EncodeCdr(w *CdrWriter) {
	w.WriteUint32(uint32(self.base))
	self.bits.encode(w)
}

func (self *FragmentNumberSet) DecodeCdr(r *CdrReader) error {
	offset := r.Offset()
	base, err := r.ReadUint32()
	if err != nil {
		return decodeError("fragment_number_set.base", offset, err)
	}
	if base == 0 {
		return decodeError("fragment_number_set.base", offset, ErrZeroBase)
	}
	bitmapOffset := r.Offset()
	var b bitmap
	if err := b.decode(r, "fragment_number_set.bitmap"); err != nil {
		return err
	}
	if !b.isEmpty() && math.MaxUint32-base < uint32(b.maxOffset()) {
		return decodeError("fragment_number_set.bitmap", bitmapOffset, fmt.Errorf("%w: %d past %d", ErrOffsetTooLarge, b.maxOffset(), base))
	}
	self.base = FragmentNumber(base)
	self.bits = b
	return nil
}

func joinOffsets(offsets []uint8) string {
	parts := make([]string, len(offsets))
	for i, offset := range offsets {
		parts[i] = fmt.Sprintf("+%d", offset)
	}
	return strings.Join(parts, ",")
}
