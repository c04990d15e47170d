package layout

import (
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
)

// CopyStruct deep-copies src's data bits and every reachable pointer into dst. dst is
// assumed freshly allocated (its data section zeroed, its pointer section null), the
// shape InitStructField/InitStructListField hand back.
func CopyStruct(dst StructBuilder, src StructReader) {
	if src.seg == nil {
		return
	}
	srcBytes := src.dataBytes()
	dstBytes := dst.dataBytes()
	n := len(srcBytes)
	if len(dstBytes) < n {
		n = len(dstBytes)
	}
	copy(dstBytes[:n], srcBytes[:n])

	count := src.ptrCount
	if dst.ptrCount < count {
		count = dst.ptrCount
	}
	for i := word.PointerCount(0); i < count; i++ {
		obj := src.ReadObjectField(i)
		dst.CopyObjectField(i, obj)
	}
}

// CopyList deep-copies src's elements into dst, which must already have matching
// shape (see allocateListLike).
func CopyList(dst ListBuilder, src ListReader) {
	if src.seg == nil {
		return
	}
	if src.elementSize == wireptr.InlineComposite {
		n := src.length
		if dst.length < n {
			n = dst.length
		}
		for i := word.ElementCount(0); i < n; i++ {
			CopyStruct(dst.Struct(i), src.Struct(i, StructReader{}))
		}
		return
	}

	n := src.length
	if dst.length < n {
		n = dst.length
	}
	switch src.elementSize {
	case wireptr.PointerSize:
		for i := word.ElementCount(0); i < n; i++ {
			copyAsStructField(dst, i, src.PointerElement(i))
		}
	case wireptr.Bit:
		for i := word.ElementCount(0); i < n; i++ {
			dst.SetBool(i, src.Bool(i))
		}
	default:
		for i := word.ElementCount(0); i < n; i++ {
			switch src.elementSize.BitsPerElement() {
			case 8:
				dst.SetUint8(i, src.Uint8(i))
			case 16:
				dst.SetUint16(i, src.Uint16(i))
			case 32:
				dst.SetUint32(i, src.Uint32(i))
			case 64:
				dst.SetUint64(i, src.Uint64(i))
			}
		}
	}
}

// copyAsStructField copies obj into element i of a PointerSize list, which has no
// independent struct allocation of its own -- the element IS the pointer slot, so
// writing it is exactly CopyObjectField would do for a single-pointer struct.
func copyAsStructField(dst ListBuilder, i word.ElementCount, obj Object) {
	s := dst.Struct(i)
	s.CopyObjectField(0, obj)
}
