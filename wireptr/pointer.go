// Package wireptr implements the single-word wire pointer described by the format:
// a tagged union over {Struct, List, Far, Reserved}, matched once at resolution time
// rather than simulated with virtual dispatch.
package wireptr

import (
	"encoding/binary"

	"github.com/segmentwire/segmentwire/word"
)

// Kind is the low 2 bits of a wire pointer.
type Kind uint8

const (
	Struct Kind = 0
	List   Kind = 1
	Far    Kind = 2
	// Reserved is kind value 3. The runtime has no use for it; encountering one is a
	// validation failure on read and a precondition failure on write.
	Reserved Kind = 3
)

func (k Kind) String() string {
	switch k {
	case Struct:
		return "struct"
	case List:
		return "list"
	case Far:
		return "far"
	default:
		return "reserved"
	}
}

// ElementSize is the 3-bit element size code carried by list pointers and
// inline-composite tag words.
type ElementSize uint8

const (
	Void ElementSize = iota
	Bit
	Byte
	TwoBytes
	FourBytes
	EightBytes
	PointerSize
	InlineComposite
)

// BitsPerElement returns the width of one element for the fixed-width codes.
// It is meaningless for InlineComposite, whose stride is schema-defined.
func (e ElementSize) BitsPerElement() word.BitCount {
	switch e {
	case Void:
		return 0
	case Bit:
		return 1
	case Byte:
		return 8
	case TwoBytes:
		return 16
	case FourBytes:
		return 32
	case EightBytes:
		return 64
	case PointerSize:
		return 64
	default:
		return 0
	}
}

// Pointer is an 8-byte wire pointer word. It is a value type over the raw bits;
// callers read and write it through a *Raw view into a segment so mutations land
// directly on the backing buffer.
type Pointer uint64

// IsNull reports whether every bit is zero.
func (p Pointer) IsNull() bool { return p == 0 }

// Kind returns the pointer's tag.
func (p Pointer) Kind() Kind { return Kind(p & 3) }

// Offset returns the signed word offset carried in bits 2-31, valid for Struct and
// List pointers. It counts from the word immediately following the pointer itself,
// so an offset of zero means "the next word" -- the common case when packing.
func (p Pointer) Offset() int32 { return int32(p) >> 2 }

// WithOffset returns p with its offset field replaced, kind and upper 32 bits untouched.
func (p Pointer) WithOffset(offset int32) Pointer {
	return Pointer(uint32(p)&3) | Pointer(uint32(offset)<<2) | (p &^ Pointer(0xffffffff))
}

// StructSize decodes the upper 32 bits as a struct pointer's data/pointer section sizes.
func (p Pointer) StructSize() word.ObjectSize {
	upper := uint32(p >> 32)
	return word.ObjectSize{
		Data:     word.DataSize(uint16(upper)),
		Pointers: word.PointerCount(uint16(upper >> 16)),
	}
}

// ListTag decodes the upper 32 bits as a list pointer's element size and count.
func (p Pointer) ListTag() (ElementSize, word.ElementCount) {
	upper := uint32(p >> 32)
	return ElementSize(upper & 7), word.ElementCount(upper >> 3)
}

// FarSegmentID decodes the upper 32 bits of a far pointer as the target segment id.
func (p Pointer) FarSegmentID() word.SegmentID { return word.SegmentID(p >> 32) }

// FarOffset decodes the unsigned word offset of a far pointer within its target segment.
func (p Pointer) FarOffset() word.Size { return word.Size(uint32(p) >> 3) }

// IsDoubleFar reports whether a far pointer's double-far bit (bit 2) is set.
func (p Pointer) IsDoubleFar() bool { return p&4 != 0 }

// NewStruct builds a struct pointer with the given offset and size.
func NewStruct(offset int32, size word.ObjectSize) Pointer {
	upper := uint32(uint16(size.Data)) | uint32(uint16(size.Pointers))<<16
	return Pointer(uint32(Struct)) | Pointer(uint32(offset)<<2) | Pointer(upper)<<32
}

// NewList builds a list pointer with the given offset, element size and count.
func NewList(offset int32, size ElementSize, count word.ElementCount) Pointer {
	upper := uint32(size) | uint32(count)<<3
	return Pointer(uint32(List)) | Pointer(uint32(offset)<<2) | Pointer(upper)<<32
}

// NewFar builds a far pointer to offset within segment id, optionally a double-far.
func NewFar(double bool, id word.SegmentID, offset word.Size) Pointer {
	low := uint32(Far) | uint32(offset)<<3
	if double {
		low |= 4
	}
	return Pointer(low) | Pointer(uint32(id))<<32
}

// Raw is a pointer-sized view directly into segment storage: reading or writing
// through it observes and mutates the backing bytes in place.
type Raw []byte

// Get decodes the 8 bytes at the view's start as a Pointer.
func (r Raw) Get() Pointer { return Pointer(binary.LittleEndian.Uint64(r)) }

// Set writes p as the 8 bytes at the view's start.
func (r Raw) Set(p Pointer) { binary.LittleEndian.PutUint64(r, uint64(p)) }

// Zero clears the view to the null pointer.
func (r Raw) Zero() { binary.LittleEndian.PutUint64(r, 0) }
