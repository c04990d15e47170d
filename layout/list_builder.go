package layout

import (
	"encoding/binary"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wirerr"
)

// ListBuilder is a writable view of one list value.
type ListBuilder struct {
	a           *arena.Builder
	seg         *segment.Builder
	addr        word.Size
	elementSize wireptr.ElementSize
	structSize  word.ObjectSize
	length      word.ElementCount
}

func checkElementCount(count word.ElementCount) {
	if count < 0 || count > word.MaxElementCount {
		wirerr.Fail(wirerr.ErrTooManyElements, "")
	}
}

func initListAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, size wireptr.ElementSize, count word.ElementCount) ListBuilder {
	checkElementCount(count)
	zeroPointer(a, seg, slotAddr)
	bodyWords := word.BitCount(int64(count) * int64(size.BitsPerElement())).Words()
	target, addr, far, padAddr := allocate(a, seg, bodyWords)
	writePointerTo(seg, slotAddr, target, addr, far, padAddr, wireptr.NewList(0, size, count))
	return ListBuilder{a: a, seg: target, addr: addr, elementSize: size, length: count}
}

func initStructListAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, structSize word.ObjectSize, count word.ElementCount) ListBuilder {
	checkElementCount(count)
	zeroPointer(a, seg, slotAddr)
	elemWords := word.Size(count) * structSize.Total()
	target, addr, far, padAddr := allocate(a, seg, 1+elemWords)
	wireptr.Raw(target.Word(addr)).Set(wireptr.NewStruct(int32(count), structSize))
	writePointerTo(seg, slotAddr, target, addr, far, padAddr, wireptr.NewList(0, wireptr.InlineComposite, word.ElementCount(elemWords)))
	return ListBuilder{a: a, seg: target, addr: addr + 1, elementSize: wireptr.InlineComposite, structSize: structSize, length: count}
}

// getWritableListAt returns the fixed-width (non-struct) list at slotAddr for a
// caller that expects elements of size expected, creating one of count elements if
// the pointer is null, returning it in place if it is already encoded the way
// expected wants, or widening it if an older schema wrote it narrower. Non-struct
// lists never grow their element size beyond this kind of widen: the schema forbids a
// field's element type from narrowing across versions, only from being read by a
// newer, wider one.
func getWritableListAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, expected wireptr.ElementSize, count word.ElementCount) ListBuilder {
	raw := wireptr.Raw(seg.Word(slotAddr)).Get()
	if raw.IsNull() {
		return initListAt(a, seg, slotAddr, expected, count)
	}
	t := followFarsBuilder(a, seg, slotAddr, raw)
	if t.tag.Kind() != wireptr.List {
		wirerr.Fail(wirerr.ErrMalformed, "existing pointer is not a list")
	}
	size, existingCount := t.tag.ListTag()

	switch {
	case size == wireptr.Void:
		return initListAt(a, seg, slotAddr, expected, count)
	case size == expected:
		return ListBuilder{a: a, seg: t.seg, addr: t.addr, elementSize: size, length: existingCount}
	case size == wireptr.Bit && isPrimitiveSize(expected):
		return upgradeListFromBit(a, seg, slotAddr, t, existingCount, expected)
	case isPrimitiveSize(size) && isPrimitiveSize(expected) && size.BitsPerElement() < expected.BitsPerElement():
		return upgradeListPrimitive(a, seg, slotAddr, t, size, expected, existingCount)
	default:
		wirerr.Fail(wirerr.ErrMalformed, "existing list cannot be upgraded to the requested element size")
		return ListBuilder{}
	}
}

// getWritableStructListAt returns the list-of-struct at slotAddr for a caller that
// expects elements at least expectedStructSize, upgrading it in place as needed. See
// spec's list write & upgrade rules: VOID allocates fresh, an existing inline-composite
// that already fits returns in place, and a narrower inline-composite, a POINTER list,
// or a fixed-width primitive list are all promoted by copying or transferring each
// element into a fresh, wider inline-composite body.
func getWritableStructListAt(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, expectedStructSize word.ObjectSize, count word.ElementCount) ListBuilder {
	raw := wireptr.Raw(seg.Word(slotAddr)).Get()
	if raw.IsNull() {
		return initStructListAt(a, seg, slotAddr, expectedStructSize, count)
	}
	t := followFarsBuilder(a, seg, slotAddr, raw)
	if t.tag.Kind() != wireptr.List {
		wirerr.Fail(wirerr.ErrMalformed, "existing pointer is not a list")
	}
	size, encodedCount := t.tag.ListTag()

	switch {
	case size == wireptr.Void:
		return initStructListAt(a, seg, slotAddr, expectedStructSize, count)
	case size == wireptr.InlineComposite:
		tagWord := wireptr.Raw(t.seg.Word(t.addr)).Get()
		existingStructSize := tagWord.StructSize()
		elemCount := word.ElementCount(tagWord.Offset())
		if existingStructSize.FitsIn(expectedStructSize) {
			return ListBuilder{
				a: a, seg: t.seg, addr: t.addr + 1, elementSize: wireptr.InlineComposite,
				structSize: existingStructSize, length: elemCount,
			}
		}
		return upgradeStructList(a, seg, slotAddr, t, existingStructSize, expectedStructSize.Max(existingStructSize), elemCount)
	case size == wireptr.PointerSize:
		return promotePointerListToComposite(a, seg, slotAddr, t, encodedCount, expectedStructSize)
	case isPrimitiveSize(size):
		return promotePrimitiveListToComposite(a, seg, slotAddr, t, size, encodedCount, expectedStructSize)
	default:
		wirerr.Fail(wirerr.ErrMalformed, "existing list cannot be upgraded to the requested struct shape")
		return ListBuilder{}
	}
}

// upgradeListPrimitive allocates a new fixed-width list of newSize (wider than
// oldSize) and copies each of count elements from the old body, zero-extending into
// the wider width, then zeros the old storage.
func upgradeListPrimitive(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, t btarget, oldSize, newSize wireptr.ElementSize, count word.ElementCount) ListBuilder {
	checkElementCount(count)
	bodyWords := word.BitCount(int64(count) * int64(newSize.BitsPerElement())).Words()
	newTarget, newAddr, far, padAddr := allocate(a, seg, bodyWords)
	oldList := ListBuilder{a: a, seg: t.seg, addr: t.addr, elementSize: oldSize, length: count}
	newList := ListBuilder{a: a, seg: newTarget, addr: newAddr, elementSize: newSize, length: count}
	for i := word.ElementCount(0); i < count; i++ {
		copyPrimitiveElement(newList, oldList, i, oldSize)
	}
	oldBodyWords := word.BitCount(int64(count) * int64(oldSize.BitsPerElement())).Words()
	zeroWords(t.seg, t.addr, t.addr+oldBodyWords)
	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewList(0, newSize, count))
	if a.Metrics != nil {
		a.Metrics.RecordListUpgrade()
	}
	return newList
}

// upgradeListFromBit allocates a new fixed-width list of newSize and widens count BIT
// elements into it one bit at a time, then zeros the old storage.
func upgradeListFromBit(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, t btarget, count word.ElementCount, newSize wireptr.ElementSize) ListBuilder {
	checkElementCount(count)
	bodyWords := word.BitCount(int64(count) * int64(newSize.BitsPerElement())).Words()
	newTarget, newAddr, far, padAddr := allocate(a, seg, bodyWords)
	oldList := ListBuilder{a: a, seg: t.seg, addr: t.addr, elementSize: wireptr.Bit, length: count}
	newList := ListBuilder{a: a, seg: newTarget, addr: newAddr, elementSize: newSize, length: count}
	for i := word.ElementCount(0); i < count; i++ {
		var v uint64
		if oldList.Bool(i) {
			v = 1
		}
		setPrimitiveElement(newList, i, newSize, v)
	}
	oldBodyWords := word.BitCount(int64(count)).Words()
	zeroWords(t.seg, t.addr, t.addr+oldBodyWords)
	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewList(0, newSize, count))
	if a.Metrics != nil {
		a.Metrics.RecordListUpgrade()
	}
	return newList
}

// upgradeStructList allocates a fresh inline-composite body of newSize (the element-
// wise max of the two schemas) and copies each of count elements' data bytes and
// transfers each element's pointers from the old (narrower) inline-composite body,
// then zeros the old storage.
func upgradeStructList(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, t btarget, oldSize, newSize word.ObjectSize, count word.ElementCount) ListBuilder {
	elemWords := word.Size(count) * newSize.Total()
	newTarget, newAddr, far, padAddr := allocate(a, seg, 1+elemWords)
	wireptr.Raw(newTarget.Word(newAddr)).Set(wireptr.NewStruct(int32(count), newSize))
	oldBase := t.addr + 1
	newBase := newAddr + 1
	for i := word.ElementCount(0); i < count; i++ {
		oldElemAddr := oldBase + word.Size(i)*oldSize.Total()
		newElemAddr := newBase + word.Size(i)*newSize.Total()
		copy(newTarget.Words(newElemAddr, newElemAddr+word.Size(oldSize.Data)), t.seg.Words(oldElemAddr, oldElemAddr+word.Size(oldSize.Data)))
		oldPtrs := oldElemAddr + word.Size(oldSize.Data)
		newPtrs := newElemAddr + word.Size(newSize.Data)
		for p := word.PointerCount(0); p < oldSize.Pointers; p++ {
			transferPointer(a, newTarget, newPtrs+word.Size(p), t.seg, oldPtrs+word.Size(p))
		}
	}
	zeroWords(t.seg, t.addr, t.addr+1+word.Size(count)*oldSize.Total())
	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewList(0, wireptr.InlineComposite, word.ElementCount(elemWords)))
	if a.Metrics != nil {
		a.Metrics.RecordListUpgrade()
	}
	return ListBuilder{a: a, seg: newTarget, addr: newBase, elementSize: wireptr.InlineComposite, structSize: newSize, length: count}
}

// promotePointerListToComposite allocates a fresh inline-composite body (with at
// least one pointer slot) and transfers each of count elements of an existing
// PointerSize list into element i's first pointer slot, then zeros the old storage.
func promotePointerListToComposite(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, t btarget, count word.ElementCount, expectedStructSize word.ObjectSize) ListBuilder {
	structSize := expectedStructSize
	if structSize.Pointers < 1 {
		structSize.Pointers = 1
	}
	elemWords := word.Size(count) * structSize.Total()
	newTarget, newAddr, far, padAddr := allocate(a, seg, 1+elemWords)
	wireptr.Raw(newTarget.Word(newAddr)).Set(wireptr.NewStruct(int32(count), structSize))
	newBase := newAddr + 1
	for i := word.ElementCount(0); i < count; i++ {
		oldElemAddr := t.addr + word.Size(i)
		newElemAddr := newBase + word.Size(i)*structSize.Total()
		newPtrs := newElemAddr + word.Size(structSize.Data)
		transferPointer(a, newTarget, newPtrs, t.seg, oldElemAddr)
	}
	zeroWords(t.seg, t.addr, t.addr+word.Size(count))
	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewList(0, wireptr.InlineComposite, word.ElementCount(elemWords)))
	if a.Metrics != nil {
		a.Metrics.RecordListUpgrade()
	}
	return ListBuilder{a: a, seg: newTarget, addr: newBase, elementSize: wireptr.InlineComposite, structSize: structSize, length: count}
}

// promotePrimitiveListToComposite allocates a fresh inline-composite body whose data
// section is at least wide enough to hold oldSize's element and copies each of count
// elements of an existing fixed-width primitive list into element i's data section,
// then zeros the old storage.
func promotePrimitiveListToComposite(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, t btarget, oldSize wireptr.ElementSize, count word.ElementCount, expectedStructSize word.ObjectSize) ListBuilder {
	minData := word.DataSize(word.BitCount(oldSize.BitsPerElement()).Words())
	structSize := expectedStructSize
	if structSize.Data < minData {
		structSize.Data = minData
	}
	elemWords := word.Size(count) * structSize.Total()
	newTarget, newAddr, far, padAddr := allocate(a, seg, 1+elemWords)
	wireptr.Raw(newTarget.Word(newAddr)).Set(wireptr.NewStruct(int32(count), structSize))
	oldList := ListBuilder{a: a, seg: t.seg, addr: t.addr, elementSize: oldSize, length: count}
	newBase := newAddr + 1
	for i := word.ElementCount(0); i < count; i++ {
		newElemAddr := newBase + word.Size(i)*structSize.Total()
		newElemStruct := StructBuilder{
			a: a, seg: newTarget, data: newElemAddr, dataWords: word.Size(structSize.Data),
			ptrs: newElemAddr + word.Size(structSize.Data), ptrCount: structSize.Pointers,
		}
		copyPrimitiveElementIntoStruct(newElemStruct, oldList, i, oldSize)
	}
	oldBodyWords := word.BitCount(int64(count) * int64(oldSize.BitsPerElement())).Words()
	zeroWords(t.seg, t.addr, t.addr+oldBodyWords)
	writePointerTo(seg, slotAddr, newTarget, newAddr, far, padAddr, wireptr.NewList(0, wireptr.InlineComposite, word.ElementCount(elemWords)))
	if a.Metrics != nil {
		a.Metrics.RecordListUpgrade()
	}
	return ListBuilder{a: a, seg: newTarget, addr: newBase, elementSize: wireptr.InlineComposite, structSize: structSize, length: count}
}

func copyPrimitiveElement(dst, src ListBuilder, i word.ElementCount, oldSize wireptr.ElementSize) {
	var v uint64
	switch oldSize {
	case wireptr.Byte:
		v = uint64(src.Uint8(i))
	case wireptr.TwoBytes:
		v = uint64(src.Uint16(i))
	case wireptr.FourBytes:
		v = uint64(src.Uint32(i))
	case wireptr.EightBytes:
		v = src.Uint64(i)
	}
	setPrimitiveElement(dst, i, dst.elementSize, v)
}

func setPrimitiveElement(dst ListBuilder, i word.ElementCount, size wireptr.ElementSize, v uint64) {
	switch size {
	case wireptr.Byte:
		dst.SetUint8(i, uint8(v))
	case wireptr.TwoBytes:
		dst.SetUint16(i, uint16(v))
	case wireptr.FourBytes:
		dst.SetUint32(i, uint32(v))
	case wireptr.EightBytes:
		dst.SetUint64(i, v)
	}
}

func copyPrimitiveElementIntoStruct(dst StructBuilder, src ListBuilder, i word.ElementCount, oldSize wireptr.ElementSize) {
	switch oldSize {
	case wireptr.Byte:
		dst.SetUint8(0, src.Uint8(i))
	case wireptr.TwoBytes:
		dst.SetUint16(0, src.Uint16(i))
	case wireptr.FourBytes:
		dst.SetUint32(0, src.Uint32(i))
	case wireptr.EightBytes:
		dst.SetUint64(0, src.Uint64(i))
	}
}

// allocateListLike allocates a fresh list at slotAddr shaped like src (same element
// size, and for inline-composite, the same per-element struct size), ready for
// CopyList to fill in. It never reuses src's own storage even when src is itself a
// builder-owned list (e.g. copying a field onto itself), since the old value is
// discarded by zeroPointer first.
func allocateListLike(a *arena.Builder, seg *segment.Builder, slotAddr word.Size, src ListReader) ListBuilder {
	if src.elementSize == wireptr.InlineComposite {
		return initStructListAt(a, seg, slotAddr, src.structSize, src.length)
	}
	return initListAt(a, seg, slotAddr, src.elementSize, src.length)
}

// Len returns the number of elements.
func (l ListBuilder) Len() word.ElementCount { return l.length }

func (l ListBuilder) elementWordBase(i word.ElementCount) word.Size {
	return l.addr + word.Size(i)*l.structSize.Total()
}

func (l ListBuilder) checkIndex(i word.ElementCount) {
	if i < 0 || i >= l.length {
		wirerr.Fail(wirerr.ErrOutOfBounds, "list index out of range")
	}
}

// Struct returns element i viewed as a struct, mirroring ListReader.Struct's
// PointerSize/Bit/primitive coercions on the write side.
func (l ListBuilder) Struct(i word.ElementCount) StructBuilder {
	l.checkIndex(i)
	switch l.elementSize {
	case wireptr.InlineComposite:
		base := l.elementWordBase(i)
		return StructBuilder{
			a: l.a, seg: l.seg, data: base, dataWords: word.Size(l.structSize.Data),
			ptrs: base + word.Size(l.structSize.Data), ptrCount: l.structSize.Pointers,
		}
	case wireptr.PointerSize:
		return StructBuilder{a: l.a, seg: l.seg, data: 0, dataWords: 0, ptrs: l.addr + word.Size(i), ptrCount: 1}
	case wireptr.Bit:
		wordIdx := l.addr + word.Size(int64(i)/64)
		return StructBuilder{a: l.a, seg: l.seg, data: wordIdx, dataWords: 1, ptrs: wordIdx + 1, ptrCount: 0, bit0: word.BitCount(int64(i) % 64)}
	default:
		byteOff := int64(i) * int64(l.elementSize.BitsPerElement()) / 8
		wordIdx := l.addr + word.Size(byteOff/8)
		return StructBuilder{a: l.a, seg: l.seg, data: wordIdx, dataWords: 1, ptrs: wordIdx + 1, ptrCount: 0}
	}
}

func (l ListBuilder) Bool(i word.ElementCount) bool {
	l.checkIndex(i)
	byteOff := int64(i) / 8
	return l.byteAt(byteOff)&(1<<uint(int64(i)%8)) != 0
}

func (l ListBuilder) byteAt(byteOff int64) byte {
	wordIdx := l.addr + word.Size(byteOff/8)
	return l.seg.Words(wordIdx, wordIdx+1)[byteOff%8]
}

func (l ListBuilder) SetBool(i word.ElementCount, v bool) {
	l.checkIndex(i)
	byteOff := int64(i) / 8
	wordIdx := l.addr + word.Size(byteOff/8)
	b := l.seg.Words(wordIdx, wordIdx+1)
	mask := byte(1) << uint(int64(i)%8)
	if v {
		b[byteOff%8] |= mask
	} else {
		b[byteOff%8] &^= mask
	}
}

func (l ListBuilder) primitiveBytes(byteOff, widthBytes int64) []byte {
	wordIdx := l.addr + word.Size(byteOff/8)
	sub := byteOff % 8
	return l.seg.Words(wordIdx, wordIdx+1)[sub : sub+widthBytes]
}

func (l ListBuilder) Uint8(i word.ElementCount) uint8 {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		return l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1)[0]
	}
	return l.primitiveBytes(int64(i), 1)[0]
}

func (l ListBuilder) SetUint8(i word.ElementCount, v uint8) {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1)[0] = v
		return
	}
	l.primitiveBytes(int64(i), 1)[0] = v
}

func (l ListBuilder) Uint16(i word.ElementCount) uint16 {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint16(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint16(l.primitiveBytes(int64(i)*2, 2))
}

func (l ListBuilder) SetUint16(i word.ElementCount, v uint16) {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		binary.LittleEndian.PutUint16(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1), v)
		return
	}
	binary.LittleEndian.PutUint16(l.primitiveBytes(int64(i)*2, 2), v)
}

func (l ListBuilder) Uint32(i word.ElementCount) uint32 {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint32(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint32(l.primitiveBytes(int64(i)*4, 4))
}

func (l ListBuilder) SetUint32(i word.ElementCount, v uint32) {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		binary.LittleEndian.PutUint32(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1), v)
		return
	}
	binary.LittleEndian.PutUint32(l.primitiveBytes(int64(i)*4, 4), v)
}

func (l ListBuilder) Uint64(i word.ElementCount) uint64 {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint64(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint64(l.primitiveBytes(int64(i)*8, 8))
}

func (l ListBuilder) SetUint64(i word.ElementCount, v uint64) {
	l.checkIndex(i)
	if l.elementSize == wireptr.InlineComposite {
		binary.LittleEndian.PutUint64(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1), v)
		return
	}
	binary.LittleEndian.PutUint64(l.primitiveBytes(int64(i)*8, 8), v)
}

func (l ListBuilder) Int8(i word.ElementCount) int8   { return int8(l.Uint8(i)) }
func (l ListBuilder) Int16(i word.ElementCount) int16 { return int16(l.Uint16(i)) }
func (l ListBuilder) Int32(i word.ElementCount) int32 { return int32(l.Uint32(i)) }
func (l ListBuilder) Int64(i word.ElementCount) int64 { return int64(l.Uint64(i)) }
func (l ListBuilder) SetInt8(i word.ElementCount, v int8)   { l.SetUint8(i, uint8(v)) }
func (l ListBuilder) SetInt16(i word.ElementCount, v int16) { l.SetUint16(i, uint16(v)) }
func (l ListBuilder) SetInt32(i word.ElementCount, v int32) { l.SetUint32(i, uint32(v)) }
func (l ListBuilder) SetInt64(i word.ElementCount, v int64) { l.SetUint64(i, uint64(v)) }
