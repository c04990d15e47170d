// Package word defines the strong numeric units the rest of the runtime uses for
// offset arithmetic: Size (words), BitCount, ByteCount and ElementCount are distinct types
// so a mismatched unit (bits where words were meant) is a compile error rather than
// an off-by-8 bug discovered at 3am. They are thin wrappers over int64/int32 and cost
// nothing at runtime.
package word

// Size is a count of 64-bit words, the unit of pointer arithmetic on the wire.
type Size int32

// Bytes converts a word count to the equivalent byte count.
func (s Size) Bytes() ByteCount { return ByteCount(s) * 8 }

// Bits converts a word count to the equivalent bit count.
func (s Size) Bits() BitCount { return BitCount(s) * 64 }

// ByteCount is a count of bytes.
type ByteCount int64

// Words rounds up to the nearest whole word.
func (b ByteCount) Words() Size { return Size((b + 7) / 8) }

// BitCount is a count of bits.
type BitCount int64

// Bytes rounds up to the nearest whole byte.
func (b BitCount) Bytes() ByteCount { return ByteCount((b + 7) / 8) }

// Words rounds up to the nearest whole word.
func (b BitCount) Words() Size { return Size((b + 63) / 64) }

// ElementCount is a count of list elements. The wire format reserves 29 bits for it.
type ElementCount int32

// MaxElementCount is the largest element count the wire pointer's 29-bit field can hold.
const MaxElementCount ElementCount = 1<<29 - 1

// PointerCount is a count of pointers in a struct's pointer section.
type PointerCount int16

// DataSize is the size, in words, of a struct's data section. The wire format
// reserves 16 bits for it.
type DataSize int16

// ObjectSize bundles the two dimensions of a struct layout: the data section size and
// the pointer section count. It is the unit both StructReader and StructBuilder use to
// describe "how big is this struct", and the unit struct-list tags carry.
type ObjectSize struct {
	Data     DataSize
	Pointers PointerCount
}

// Total returns the struct's total word footprint (data words plus one word per pointer).
func (o ObjectSize) Total() Size { return Size(o.Data) + Size(o.Pointers) }

// Max returns the element-wise maximum of two sizes, the size a struct must be
// allocated at to upgrade in place without truncating either schema's fields.
func (o ObjectSize) Max(other ObjectSize) ObjectSize {
	m := o
	if other.Data > m.Data {
		m.Data = other.Data
	}
	if other.Pointers > m.Pointers {
		m.Pointers = other.Pointers
	}
	return m
}

// FitsIn reports whether a struct of size o can be read or written in place as a
// struct of size want, i.e. want's data and pointer sections are no larger than o's.
func (o ObjectSize) FitsIn(want ObjectSize) bool {
	return o.Data >= want.Data && o.Pointers >= want.Pointers
}

// SegmentID identifies one segment within an arena. Segment ids are dense and start
// at zero; a SegmentID is never negative in a valid message.
type SegmentID uint32
