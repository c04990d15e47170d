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

// StructBuilder is a writable view of one struct value, with a fixed data and pointer
// section size decided when it (or the upgrade that replaced it) was allocated.
type StructBuilder struct {
	a         *arena.Builder
	seg       *segment.Builder
	data      word.Size
	dataWords word.Size
	ptrs      word.Size
	ptrCount  word.PointerCount
	bit0      word.BitCount
}

// initStructAt allocates a fresh struct of size at slotAddr, discarding whatever was
// there. def is copied into the new storage first when non-empty, mirroring the read
// side's default-value handling: a builder writing into a field backed by a schema
// default starts from that default rather than from zero.
func initStructAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, size word.ObjectSize, def StructReader) StructBuilder {
	zeroPointer(a, seg, slotAddr)
	target, addr, far, padAddr := allocate(a, seg, size.Total())
	writePointerTo(seg, slotAddr, target, addr, far, padAddr, wireptr.NewStruct(0, size))
	sb := StructBuilder{
		a: a, seg: target, data: addr, dataWords: word.Size(size.Data),
		ptrs: addr + word.Size(size.Data), ptrCount: size.Pointers,
	}
	CopyStruct(sb, def)
	return sb
}

// getWritableStructAt returns the struct at slotAddr, creating it from def if the
// pointer is null and upgrading it in place (widening its data and pointer sections,
// never shrinking them) if it already exists but is narrower than size.
func getWritableStructAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, size word.ObjectSize, def StructReader) StructBuilder {
	raw := wireptr.Raw(seg.Word(slotAddr)).Get()
	if raw.IsNull() {
		return initStructAt(a, seg, slotAddr, size, def)
	}
	t := followFarsBuilder(a, seg, slotAddr, raw)
	if t.tag.Kind() != wireptr.Struct {
		wirerr.Fail(wirerr.ErrMalformed, "existing pointer is not a struct")
	}
	existing := t.tag.StructSize()
	if existing.FitsIn(size) {
		return StructBuilder{
			a: a, seg: t.seg, data: t.addr, dataWords: word.Size(existing.Data),
			ptrs: t.addr + word.Size(existing.Data), ptrCount: existing.Pointers,
		}
	}

	merged := existing.Max(size)
	newTarget, newAddr, far, padAddr := allocate(a, seg, merged.Total())
	oldPtrs := t.addr + word.Size(existing.Data)
	newPtrs := newAddr + word.Size(merged.Data)

	copy(newTarget.Words(newAddr, newAddr+word.Size(existing.Data)), t.seg.Words(t.addr, t.addr+word.Size(existing.Data)))
	for i := word.PointerCount(0); i < existing.Pointers; i++ {
		transferPointer(a, newTarget, newPtrs+word.Size(i), t.seg, oldPtrs+word.Size(i))
	}
	zeroWords(t.seg, t.addr, t.addr+existing.Total())

	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewStruct(0, merged))
	if a.Metrics != nil {
		a.Metrics.RecordStructUpgrade()
	}
	return StructBuilder{
		a: a, seg: newTarget, data: newAddr, dataWords: word.Size(merged.Data),
		ptrs: newPtrs, ptrCount: merged.Pointers,
	}
}

func (s StructBuilder) dataBytes() []byte {
	if s.seg == nil {
		return nil
	}
	return s.seg.Words(s.data, s.data+s.dataWords)
}

func (s StructBuilder) Bool(bitOffset word.BitCount) bool {
	bit := bitOffset + s.bit0
	b := s.dataBytes()
	byteOff := int64(bit / 8)
	if byteOff >= int64(len(b)) {
		return false
	}
	return b[byteOff]&(1<<uint(bit%8)) != 0
}

func (s StructBuilder) SetBool(bitOffset word.BitCount, v bool) {
	bit := bitOffset + s.bit0
	b := s.dataBytes()
	byteOff := int64(bit / 8)
	if byteOff >= int64(len(b)) {
		wirerr.Fail(wirerr.ErrOutOfBounds, "bit field beyond struct data section")
	}
	mask := byte(1) << uint(bit%8)
	if v {
		b[byteOff] |= mask
	} else {
		b[byteOff] &^= mask
	}
}

func (s StructBuilder) checkByteRange(byteOffset word.ByteCount, width int64) []byte {
	b := s.dataBytes()
	if int64(byteOffset)+width > int64(len(b)) {
		wirerr.Fail(wirerr.ErrOutOfBounds, "data field beyond struct data section")
	}
	return b[byteOffset:]
}

func (s StructBuilder) Uint8(byteOffset word.ByteCount) uint8 { return s.checkByteRange(byteOffset, 1)[0] }
func (s StructBuilder) SetUint8(byteOffset word.ByteCount, v uint8) {
	s.checkByteRange(byteOffset, 1)[0] = v
}

func (s StructBuilder) Uint16(byteOffset word.ByteCount) uint16 {
	return binary.LittleEndian.Uint16(s.checkByteRange(byteOffset, 2))
}
func (s StructBuilder) SetUint16(byteOffset word.ByteCount, v uint16) {
	binary.LittleEndian.PutUint16(s.checkByteRange(byteOffset, 2), v)
}

func (s StructBuilder) Uint32(byteOffset word.ByteCount) uint32 {
	return binary.LittleEndian.Uint32(s.checkByteRange(byteOffset, 4))
}
func (s StructBuilder) SetUint32(byteOffset word.ByteCount, v uint32) {
	binary.LittleEndian.PutUint32(s.checkByteRange(byteOffset, 4), v)
}

func (s StructBuilder) Uint64(byteOffset word.ByteCount) uint64 {
	return binary.LittleEndian.Uint64(s.checkByteRange(byteOffset, 8))
}
func (s StructBuilder) SetUint64(byteOffset word.ByteCount, v uint64) {
	binary.LittleEndian.PutUint64(s.checkByteRange(byteOffset, 8), v)
}

func (s StructBuilder) Int8(byteOffset word.ByteCount) int8   { return int8(s.Uint8(byteOffset)) }
func (s StructBuilder) Int16(byteOffset word.ByteCount) int16 { return int16(s.Uint16(byteOffset)) }
func (s StructBuilder) Int32(byteOffset word.ByteCount) int32 { return int32(s.Uint32(byteOffset)) }
func (s StructBuilder) Int64(byteOffset word.ByteCount) int64 { return int64(s.Uint64(byteOffset)) }
func (s StructBuilder) SetInt8(byteOffset word.ByteCount, v int8)   { s.SetUint8(byteOffset, uint8(v)) }
func (s StructBuilder) SetInt16(byteOffset word.ByteCount, v int16) { s.SetUint16(byteOffset, uint16(v)) }
func (s StructBuilder) SetInt32(byteOffset word.ByteCount, v int32) { s.SetUint32(byteOffset, uint32(v)) }
func (s StructBuilder) SetInt64(byteOffset word.ByteCount, v int64) { s.SetUint64(byteOffset, uint64(v)) }

func (s StructBuilder) Float32(byteOffset word.ByteCount) float32 {
	return math.Float32frombits(s.Uint32(byteOffset))
}
func (s StructBuilder) SetFloat32(byteOffset word.ByteCount, v float32) {
	s.SetUint32(byteOffset, math.Float32bits(v))
}
func (s StructBuilder) Float64(byteOffset word.ByteCount) float64 {
	return math.Float64frombits(s.Uint64(byteOffset))
}
func (s StructBuilder) SetFloat64(byteOffset word.ByteCount, v float64) {
	s.SetUint64(byteOffset, math.Float64bits(v))
}

func (s StructBuilder) pointerSlot(index word.PointerCount) word.Size {
	if index >= s.ptrCount {
		wirerr.Fail(wirerr.ErrOutOfBounds, "pointer field beyond struct pointer section")
	}
	return s.ptrs + word.Size(index)
}

// HasPointer reports whether the pointer field at index is non-null.
func (s StructBuilder) HasPointer(index word.PointerCount) bool {
	return !wireptr.Raw(s.seg.Word(s.pointerSlot(index))).Get().IsNull()
}

// ClearPointer discards whatever the pointer field at index refers to.
func (s StructBuilder) ClearPointer(index word.PointerCount) {
	zeroPointer(s.a, s.seg, s.pointerSlot(index))
}

// InitStructField allocates a fresh struct of size for the pointer field at index,
// discarding any value already there.
func (s StructBuilder) InitStructField(index word.PointerCount, size word.ObjectSize) StructBuilder {
	return initStructAt(s.a, s.seg, s.pointerSlot(index), size, StructReader{})
}

// GetStructField returns the struct field at index, creating it from def if the field
// is currently null, or upgrading it in place as needed, preserving any value already
// present.
func (s StructBuilder) GetStructField(index word.PointerCount, size word.ObjectSize, def StructReader) StructBuilder {
	return getWritableStructAt(s.a, s.seg, s.pointerSlot(index), size, def)
}

// InitListField allocates a fresh fixed-width-element list for the pointer field at
// index.
func (s StructBuilder) InitListField(index word.PointerCount, size wireptr.ElementSize, count word.ElementCount) ListBuilder {
	return initListAt(s.a, s.seg, s.pointerSlot(index), size, count)
}

// InitStructListField allocates a fresh inline-composite (list-of-struct) list for the
// pointer field at index.
func (s StructBuilder) InitStructListField(index word.PointerCount, elemSize word.ObjectSize, count word.ElementCount) ListBuilder {
	return initStructListAt(s.a, s.seg, s.pointerSlot(index), elemSize, count)
}

// GetListField returns the fixed-width list field at index, creating one of count
// elements if the field is null, or upgrading it in place to expected's element width
// if it was written narrower by an older schema.
func (s StructBuilder) GetListField(index word.PointerCount, expected wireptr.ElementSize, count word.ElementCount) ListBuilder {
	return getWritableListAt(s.a, s.seg, s.pointerSlot(index), expected, count)
}

// GetStructListField returns the list-of-struct field at index, creating one of count
// elements if the field is null, or promoting it in place to expectedStructSize if it
// was written as a narrower inline-composite, a POINTER list, or a fixed-width
// primitive list by an older schema.
func (s StructBuilder) GetStructListField(index word.PointerCount, expectedStructSize word.ObjectSize, count word.ElementCount) ListBuilder {
	return getWritableStructListAt(s.a, s.seg, s.pointerSlot(index), expectedStructSize, count)
}

// SetTextField writes str, NUL-terminated, as the list-of-byte text field at index.
func (s StructBuilder) SetTextField(index word.PointerCount, str string) {
	lb := initListAt(s.a, s.seg, s.pointerSlot(index), wireptr.Byte, word.ElementCount(len(str)+1))
	for i := 0; i < len(str); i++ {
		lb.SetUint8(word.ElementCount(i), str[i])
	}
}

// SetDataField writes b as the list-of-byte data (blob) field at index.
func (s StructBuilder) SetDataField(index word.PointerCount, b []byte) {
	lb := initListAt(s.a, s.seg, s.pointerSlot(index), wireptr.Byte, word.ElementCount(len(b)))
	for i, c := range b {
		lb.SetUint8(word.ElementCount(i), c)
	}
}

// CopyStructField deep-copies src into a freshly allocated struct field at index.
func (s StructBuilder) CopyStructField(index word.PointerCount, size word.ObjectSize, src StructReader) StructBuilder {
	dst := s.InitStructField(index, size)
	CopyStruct(dst, src)
	return dst
}

// CopyListField deep-copies src into a freshly allocated list field at index.
func (s StructBuilder) CopyListField(index word.PointerCount, src ListReader) ListBuilder {
	dst := allocateListLike(s.a, s.seg, s.pointerSlot(index), src)
	CopyList(dst, src)
	return dst
}

// CopyObjectField deep-copies whatever src holds (struct, list, or nothing) into the
// pointer field at index.
func (s StructBuilder) CopyObjectField(index word.PointerCount, src Object) {
	switch src.Kind {
	case ObjectStruct:
		size := word.ObjectSize{Data: word.DataSize(src.Struct.dataWords), Pointers: src.Struct.ptrCount}
		s.CopyStructField(index, size, src.Struct)
	case ObjectList:
		s.CopyListField(index, src.List)
	default:
		s.ClearPointer(index)
	}
}
