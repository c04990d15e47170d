package layout

import (
	"encoding/binary"
	"math"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wirerr"
)

// StructReader is a read-only view of one struct value: a data section and a pointer
// section, both addressed relative to seg. The zero value is the empty struct (all
// data zero, all pointers null), which is exactly what a generated accessor should see
// when a field's default is itself empty.
type StructReader struct {
	seg       *segment.Reader
	data      word.Size // word address of the data section
	dataWords word.Size
	ptrs      word.Size // word address of the pointer section
	ptrCount  word.PointerCount

	// bit0 offsets every data-section bit read by this many bits. It is nonzero only
	// for the degenerate single-bit StructReader a bool list hands out per element.
	bit0 word.BitCount

	a            *arena.Reader
	nestingLimit int
}

// RootStruct reads the struct at the root pointer (word 0 of seg), the conventional
// entry point for an entire message or an independent default-value blob. def is used
// if the root pointer is null or malformed.
func RootStruct(a *arena.Reader, seg *segment.Reader, def StructReader) StructReader {
	if !seg.ContainsInterval(0, 1) {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "root pointer", ""))
		return def
	}
	raw := wireptr.Raw(seg.Word(0)).Get()
	return readStructField(a, seg, 0, raw, def, a.NestingLimit())
}

func readStructField(a *arena.Reader, seg *segment.Reader, ptrAddr word.Size, raw wireptr.Pointer, def StructReader, nestingLimit int) StructReader {
	if nestingLimit <= 0 {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrNestingLimit, "", ""))
		return def
	}
	t, ok := resolveReader(a, seg, ptrAddr, raw)
	if !ok {
		return def
	}
	if t.tag.Kind() != wireptr.Struct {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "expected struct pointer", ""))
		return def
	}
	size := t.tag.StructSize()
	dataWords := word.Size(size.Data)
	ptrWords := word.Size(size.Pointers)
	if !t.seg.ContainsInterval(t.addr, t.addr+dataWords+ptrWords) {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "struct body", ""))
		return def
	}
	return StructReader{
		seg:          t.seg,
		data:         t.addr,
		dataWords:    dataWords,
		ptrs:         t.addr + dataWords,
		ptrCount:     size.Pointers,
		a:            a,
		nestingLimit: nestingLimit - 1,
	}
}

// ReadStructField reads the struct pointer at index in s's pointer section.
func (s StructReader) ReadStructField(index word.PointerCount, def StructReader) StructReader {
	if s.seg == nil || index >= s.ptrCount {
		return def
	}
	addr := s.ptrs + word.Size(index)
	raw := wireptr.Raw(s.seg.Word(addr)).Get()
	return readStructField(s.a, s.seg, addr, raw, def, s.nestingLimit)
}

// ReadListField reads the list pointer at index, coerced to expected's element shape.
func (s StructReader) ReadListField(index word.PointerCount, expected wireptr.ElementSize, expectedStructSize word.ObjectSize, def ListReader) ListReader {
	if s.seg == nil || index >= s.ptrCount {
		return def
	}
	addr := s.ptrs + word.Size(index)
	raw := wireptr.Raw(s.seg.Word(addr)).Get()
	return readListField(s.a, s.seg, addr, raw, expected, expectedStructSize, def, s.nestingLimit)
}

// ReadTextField reads the text pointer at index as a list-of-byte with a trailing NUL,
// returning the content without that NUL.
func (s StructReader) ReadTextField(index word.PointerCount, def string) string {
	l := s.ReadListField(index, wireptr.Byte, word.ObjectSize{}, ListReader{})
	if l.seg == nil {
		return def
	}
	return textFromList(l)
}

// ReadDataField reads the data (blob) pointer at index as a list-of-byte.
func (s StructReader) ReadDataField(index word.PointerCount, def []byte) []byte {
	l := s.ReadListField(index, wireptr.Byte, word.ObjectSize{}, ListReader{})
	if l.seg == nil {
		return def
	}
	return bytesFromList(l)
}

// ObjectKind distinguishes the possible shapes an AnyPointer field may resolve to.
type ObjectKind int

const (
	ObjectNull ObjectKind = iota
	ObjectStruct
	ObjectList
)

// Object is the result of reading a schema-untyped (AnyPointer) field: exactly one of
// Struct or List is meaningful, selected by Kind.
type Object struct {
	Kind   ObjectKind
	Struct StructReader
	List   ListReader
}

// ReadObjectField reads the pointer at index without assuming its kind, the read
// primitive behind AnyPointer fields and capability/interface pointers (the latter of
// which this runtime treats as opaque and out of scope beyond not corrupting them).
func (s StructReader) ReadObjectField(index word.PointerCount) Object {
	if s.seg == nil || index >= s.ptrCount {
		return Object{}
	}
	addr := s.ptrs + word.Size(index)
	raw := wireptr.Raw(s.seg.Word(addr)).Get()
	if raw.IsNull() {
		return Object{}
	}
	t, ok := resolveReader(s.a, s.seg, addr, raw)
	if !ok {
		return Object{}
	}
	switch t.tag.Kind() {
	case wireptr.Struct:
		return Object{Kind: ObjectStruct, Struct: readStructField(s.a, s.seg, addr, raw, StructReader{}, s.nestingLimit)}
	case wireptr.List:
		return Object{Kind: ObjectList, List: readListField(s.a, s.seg, addr, raw, wireptr.Void, word.ObjectSize{}, ListReader{}, s.nestingLimit)}
	default:
		s.a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "object pointer resolved to neither struct nor list", ""))
		return Object{}
	}
}

// HasPointer reports whether the pointer field at index is non-null, without resolving
// it. A field pointing at a legitimately-empty default still reads as absent: has()
// answers "was anything written here", not "is the value non-default".
func (s StructReader) HasPointer(index word.PointerCount) bool {
	if s.seg == nil || index >= s.ptrCount {
		return false
	}
	return !wireptr.Raw(s.seg.Word(s.ptrs + word.Size(index))).Get().IsNull()
}

func (s StructReader) dataBytes() []byte {
	if s.seg == nil {
		return nil
	}
	return s.seg.Words(s.data, s.data+s.dataWords)
}

// Bool reads a single data-section bit.
func (s StructReader) Bool(bitOffset word.BitCount) bool {
	bit := bitOffset + s.bit0
	b := s.dataBytes()
	byteOff := int64(bit / 8)
	if byteOff >= int64(len(b)) {
		return false
	}
	return b[byteOff]&(1<<uint(bit%8)) != 0
}

func (s StructReader) Uint8(byteOffset word.ByteCount) uint8 {
	b := s.dataBytes()
	if int64(byteOffset) >= int64(len(b)) {
		return 0
	}
	return b[byteOffset]
}

func (s StructReader) Uint16(byteOffset word.ByteCount) uint16 {
	b := s.dataBytes()
	if int64(byteOffset)+2 > int64(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[byteOffset:])
}

func (s StructReader) Uint32(byteOffset word.ByteCount) uint32 {
	b := s.dataBytes()
	if int64(byteOffset)+4 > int64(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[byteOffset:])
}

func (s StructReader) Uint64(byteOffset word.ByteCount) uint64 {
	b := s.dataBytes()
	if int64(byteOffset)+8 > int64(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[byteOffset:])
}

func (s StructReader) Int8(byteOffset word.ByteCount) int8     { return int8(s.Uint8(byteOffset)) }
func (s StructReader) Int16(byteOffset word.ByteCount) int16   { return int16(s.Uint16(byteOffset)) }
func (s StructReader) Int32(byteOffset word.ByteCount) int32   { return int32(s.Uint32(byteOffset)) }
func (s StructReader) Int64(byteOffset word.ByteCount) int64   { return int64(s.Uint64(byteOffset)) }
func (s StructReader) Float32(byteOffset word.ByteCount) float32 {
	return math.Float32frombits(s.Uint32(byteOffset))
}
func (s StructReader) Float64(byteOffset word.ByteCount) float64 {
	return math.Float64frombits(s.Uint64(byteOffset))
}

// IsEmpty reports whether s carries no data or pointer words at all, the shape a zero
// value or an empty default resolves to.
func (s StructReader) IsEmpty() bool {
	return s.seg == nil || (s.dataWords == 0 && s.ptrCount == 0)
}
