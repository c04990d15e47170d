package layout

import (
	"encoding/binary"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wirerr"
)

// ListReader is a read-only view of one list value. elementSize records the list's
// actual on-wire shape; for InlineComposite, structSize gives each element's layout
// and length is decoded from the tag word's own offset field rather than the list
// pointer's count field, which for that encoding holds the body's word count instead.
type ListReader struct {
	seg         *segment.Reader
	addr        word.Size // word address of element 0 (past any inline-composite tag)
	elementSize wireptr.ElementSize
	structSize  word.ObjectSize
	length      word.ElementCount

	a            *arena.Reader
	nestingLimit int
}

func readListField(a *arena.Reader, seg *segment.Reader, ptrAddr word.Size, raw wireptr.Pointer, expected wireptr.ElementSize, expectedStructSize word.ObjectSize, def ListReader, nestingLimit int) ListReader {
	if nestingLimit <= 0 {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrNestingLimit, "", ""))
		return def
	}
	t, ok := resolveReader(a, seg, ptrAddr, raw)
	if !ok {
		return def
	}
	if t.tag.Kind() != wireptr.List {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "expected list pointer", ""))
		return def
	}
	size, count := t.tag.ListTag()

	if size == wireptr.InlineComposite {
		bodyWords := word.Size(count)
		if !t.seg.ContainsInterval(t.addr, t.addr+1) {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "inline-composite tag", ""))
			return def
		}
		tag := wireptr.Raw(t.seg.Word(t.addr)).Get()
		if tag.Kind() != wireptr.Struct {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "inline-composite tag is not a struct pointer", ""))
			return def
		}
		structSize := tag.StructSize()
		elemCount := word.ElementCount(tag.Offset())
		if elemCount < 0 || int64(elemCount)*int64(structSize.Total()) > int64(bodyWords) {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "inline-composite element count overflows body", ""))
			return def
		}
		bodyAddr := t.addr + 1
		if !t.seg.ContainsInterval(bodyAddr, bodyAddr+word.Size(elemCount)*structSize.Total()) {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "inline-composite body", ""))
			return def
		}
		if expected == wireptr.PointerSize && structSize.Pointers < expectedStructSize.Pointers {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "inline-composite elements too narrow for expected pointer", ""))
			return def
		}
		if isPrimitiveSize(expected) && structSize.Data < 1 {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "inline-composite elements have no data section", ""))
			return def
		}
		return ListReader{
			seg: t.seg, addr: bodyAddr, elementSize: wireptr.InlineComposite,
			structSize: structSize, length: elemCount, a: a, nestingLimit: nestingLimit - 1,
		}
	}

	width := size.BitsPerElement()
	totalBits := int64(count) * int64(width)
	totalWords := word.BitCount(totalBits).Words()
	if !t.seg.ContainsInterval(t.addr, t.addr+totalWords) {
		a.ReportError(wirerr.NewValidationError(wirerr.ErrOutOfBounds, "list body", ""))
		return def
	}
	return ListReader{
		seg: t.seg, addr: t.addr, elementSize: size, length: count, a: a, nestingLimit: nestingLimit - 1,
	}
}

func isPrimitiveSize(e wireptr.ElementSize) bool {
	switch e {
	case wireptr.Byte, wireptr.TwoBytes, wireptr.FourBytes, wireptr.EightBytes:
		return true
	}
	return false
}

// Len returns the number of elements.
func (l ListReader) Len() word.ElementCount { return l.length }

// IsValid reports whether l resolved to real data (as opposed to a default/zero value).
func (l ListReader) IsValid() bool { return l.seg != nil }

func (l ListReader) checkIndex(i word.ElementCount) bool {
	return l.seg != nil && i >= 0 && i < l.length
}

// elementWordBase returns the word address of element i's own section, valid for
// InlineComposite lists only.
func (l ListReader) elementWordBase(i word.ElementCount) word.Size {
	return l.addr + word.Size(i)*l.structSize.Total()
}

// Struct returns element i viewed as a struct, for a list-of-struct (InlineComposite)
// or a list-of-pointer coerced to a degenerate 0-data/1-pointer struct view, the
// mechanism that lets an AnyPointer-typed list element be read generically.
func (l ListReader) Struct(i word.ElementCount, def StructReader) StructReader {
	if !l.checkIndex(i) {
		return def
	}
	switch l.elementSize {
	case wireptr.InlineComposite:
		base := l.elementWordBase(i)
		return StructReader{
			seg: l.seg, data: base, dataWords: word.Size(l.structSize.Data),
			ptrs: base + word.Size(l.structSize.Data), ptrCount: l.structSize.Pointers,
			a: l.a, nestingLimit: l.nestingLimit,
		}
	case wireptr.PointerSize:
		return StructReader{
			seg: l.seg, data: 0, dataWords: 0,
			ptrs: l.addr + word.Size(i), ptrCount: 1,
			a: l.a, nestingLimit: l.nestingLimit,
		}
	case wireptr.Bit:
		wordIdx := l.addr + word.Size(int64(i)/64)
		return StructReader{
			seg: l.seg, data: wordIdx, dataWords: 1, ptrs: wordIdx + 1, ptrCount: 0,
			bit0: word.BitCount(int64(i) % 64), a: l.a, nestingLimit: l.nestingLimit,
		}
	default:
		// Byte/TwoBytes/FourBytes/EightBytes coerced to a struct view: the whole
		// element is the data section, no pointers.
		byteOff := int64(i) * int64(l.elementSize.BitsPerElement()) / 8
		wordIdx := l.addr + word.Size(byteOff/8)
		return StructReader{
			seg: l.seg, data: wordIdx, dataWords: 1, ptrs: wordIdx + 1, ptrCount: 0,
			a: l.a, nestingLimit: l.nestingLimit,
		}
	}
}

// pointerRaw returns the raw pointer view for element i of a PointerSize list, or an
// InlineComposite list coerced to pointer access (its element's first pointer slot).
func (l ListReader) pointerRaw(i word.ElementCount) (wireptr.Raw, word.Size) {
	switch l.elementSize {
	case wireptr.PointerSize:
		addr := l.addr + word.Size(i)
		return l.seg.Word(addr), addr
	case wireptr.InlineComposite:
		addr := l.elementWordBase(i) + word.Size(l.structSize.Data)
		return l.seg.Word(addr), addr
	default:
		return nil, 0
	}
}

// StructField reads element i's pointer field at ptrIndex when the list is a
// list-of-struct, the access path a generated list-of-struct accessor uses.
func (l ListReader) StructField(i word.ElementCount, ptrIndex word.PointerCount, def StructReader) StructReader {
	s := l.Struct(i, StructReader{})
	return s.ReadStructField(ptrIndex, def)
}

// PointerElement reads element i of a list-of-pointer (or a struct list coerced to
// pointer access) without assuming its kind, for AnyPointer-typed list elements.
func (l ListReader) PointerElement(i word.ElementCount) Object {
	if !l.checkIndex(i) {
		return Object{}
	}
	raw, addr := l.pointerRaw(i)
	if raw == nil {
		return Object{}
	}
	p := raw.Get()
	if p.IsNull() {
		return Object{}
	}
	t, ok := resolveReader(l.a, l.seg, addr, p)
	if !ok {
		return Object{}
	}
	switch t.tag.Kind() {
	case wireptr.Struct:
		return Object{Kind: ObjectStruct, Struct: readStructField(l.a, l.seg, addr, p, StructReader{}, l.nestingLimit)}
	case wireptr.List:
		return Object{Kind: ObjectList, List: readListField(l.a, l.seg, addr, p, wireptr.Void, word.ObjectSize{}, ListReader{}, l.nestingLimit)}
	default:
		l.a.ReportError(wirerr.NewValidationError(wirerr.ErrMalformed, "object pointer resolved to neither struct nor list", ""))
		return Object{}
	}
}

// Bool returns element i of a Bit list.
func (l ListReader) Bool(i word.ElementCount) bool {
	if !l.checkIndex(i) || l.elementSize != wireptr.Bit {
		return false
	}
	byteOff := int64(i) / 8
	bit := uint(int64(i) % 8)
	return l.byteAt(byteOff)&(1<<bit) != 0
}

func (l ListReader) byteAt(byteOff int64) byte {
	return l.primitiveBytes(byteOff, 1)[0]
}

// primitiveBytes returns a slice of at least widthBytes starting at the given absolute
// byte offset from l.addr, sliced out of whichever word it falls in.
func (l ListReader) primitiveBytes(byteOff, widthBytes int64) []byte {
	wordIdx := l.addr + word.Size(byteOff/8)
	sub := byteOff % 8
	word8 := l.seg.Words(wordIdx, wordIdx+1)
	return word8[sub : sub+widthBytes]
}

func (l ListReader) Uint8(i word.ElementCount) uint8 {
	if !l.checkIndex(i) {
		return 0
	}
	if l.elementSize == wireptr.InlineComposite {
		return l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1)[0]
	}
	return l.primitiveBytes(int64(i), 1)[0]
}

func (l ListReader) Uint16(i word.ElementCount) uint16 {
	if !l.checkIndex(i) {
		return 0
	}
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint16(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint16(l.primitiveBytes(int64(i)*2, 2))
}

func (l ListReader) Uint32(i word.ElementCount) uint32 {
	if !l.checkIndex(i) {
		return 0
	}
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint32(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint32(l.primitiveBytes(int64(i)*4, 4))
}

func (l ListReader) Uint64(i word.ElementCount) uint64 {
	if !l.checkIndex(i) {
		return 0
	}
	if l.elementSize == wireptr.InlineComposite {
		return binary.LittleEndian.Uint64(l.seg.Words(l.elementWordBase(i), l.elementWordBase(i)+1))
	}
	return binary.LittleEndian.Uint64(l.primitiveBytes(int64(i)*8, 8))
}

func (l ListReader) Int8(i word.ElementCount) int8   { return int8(l.Uint8(i)) }
func (l ListReader) Int16(i word.ElementCount) int16 { return int16(l.Uint16(i)) }
func (l ListReader) Int32(i word.ElementCount) int32 { return int32(l.Uint32(i)) }
func (l ListReader) Int64(i word.ElementCount) int64 { return int64(l.Uint64(i)) }
