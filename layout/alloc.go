package layout

import (
	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
)

// allocate reserves n words for a new object referenced from a pointer word that
// lives in preferred. It first tries to bump-allocate directly in preferred, keeping
// the object adjacent to its pointer the way freshly-built messages usually end up.
// When preferred has no room left, it opens (or reuses) another segment with one
// extra word reserved for a landing pad and reports far=true so the caller writes a
// far pointer into the original slot instead of a direct one.
func allocate(a *arena.Builder, preferred *segment.Builder, n word.Size) (target *segment.Builder, addr word.Size, far bool, padAddr word.Size) {
	if off, ok := preferred.Allocate(n); ok {
		return preferred, off, false, 0
	}
	target = a.GetSegmentWithAvailable(n + 1)
	pad, ok := target.Allocate(1)
	if !ok {
		panic("arena returned a segment without room for a landing pad")
	}
	off, ok := target.Allocate(n)
	if !ok {
		panic("arena returned a segment without room for the requested allocation")
	}
	return target, off, true, pad
}

// writePointerTo writes a pointer to an object of size n just allocated at
// (target, addr), into the slot at (seg, slotAddr), chasing through a far pointer and
// landing pad if the object ended up in a different segment. tag carries the
// kind-specific upper bits (struct size or list element size/count); its offset field
// is overwritten here.
func writePointerTo(seg *segment.Builder, slotAddr word.Size, target *segment.Builder, addr word.Size, far bool, padAddr word.Size, tag wireptr.Pointer) {
	if !far {
		offset := int32(addr) - int32(slotAddr+1)
		wireptr.Raw(seg.Word(slotAddr)).Set(withOffset(tag, offset))
		return
	}
	padOffset := int32(addr) - int32(padAddr+1)
	wireptr.Raw(target.Word(padAddr)).Set(withOffset(tag, padOffset))
	wireptr.Raw(seg.Word(slotAddr)).Set(wireptr.NewFar(false, target.ID, padAddr))
}

// withOffset overwrites tag's offset field while keeping its kind and size bits,
// mirroring Pointer.WithOffset but taking the already-combined struct/list tag.
func withOffset(tag wireptr.Pointer, offset int32) wireptr.Pointer {
	return tag.WithOffset(offset)
}

// zeroPointer erases everything reachable from the pointer word at slotAddr in seg:
// the objects it (possibly through a far pointer) refers to, and finally the word
// itself. Builders call this before overwriting a field that already holds a value,
// since the bump allocator never reclaims space any other way.
func zeroPointer(a *arena.Builder, seg *segment.Builder, slotAddr word.Size) {
	raw := wireptr.Raw(seg.Word(slotAddr))
	p := raw.Get()
	if p.IsNull() {
		return
	}
	switch p.Kind() {
	case wireptr.Struct:
		addr := slotAddr + 1 + word.Size(p.Offset())
		zeroStructBody(a, seg, addr, p.StructSize())
	case wireptr.List:
		addr := slotAddr + 1 + word.Size(p.Offset())
		zeroListBody(a, seg, addr, p)
	case wireptr.Far:
		farSeg := a.GetSegment(p.FarSegmentID())
		padAddr := p.FarOffset()
		if p.IsDoubleFar() {
			pad0 := wireptr.Raw(farSeg.Word(padAddr)).Get()
			pad1 := wireptr.Raw(farSeg.Word(padAddr + 1)).Get()
			finalSeg := a.GetSegment(pad0.FarSegmentID())
			zeroResolved(a, finalSeg, pad0.FarOffset(), pad1)
			zeroWords(farSeg, padAddr, padAddr+2)
		} else {
			pad := wireptr.Raw(farSeg.Word(padAddr)).Get()
			zeroResolved(a, farSeg, padAddr+1+word.Size(pad.Offset()), pad)
			zeroWords(farSeg, padAddr, padAddr+1)
		}
	}
	raw.Zero()
}

func zeroResolved(a *arena.Builder, seg *segment.Builder, addr word.Size, tag wireptr.Pointer) {
	switch tag.Kind() {
	case wireptr.Struct:
		zeroStructBody(a, seg, addr, tag.StructSize())
	case wireptr.List:
		zeroListBody(a, seg, addr, tag)
	}
}

func zeroStructBody(a *arena.Builder, seg *segment.Builder, addr word.Size, size word.ObjectSize) {
	ptrs := addr + word.Size(size.Data)
	for i := word.PointerCount(0); i < size.Pointers; i++ {
		zeroPointer(a, seg, ptrs+word.Size(i))
	}
	zeroWords(seg, addr, addr+size.Total())
}

func zeroListBody(a *arena.Builder, seg *segment.Builder, addr word.Size, tag wireptr.Pointer) {
	size, count := tag.ListTag()
	switch size {
	case wireptr.InlineComposite:
		structTag := wireptr.Raw(seg.Word(addr)).Get()
		structSize := structTag.StructSize()
		elemCount := word.ElementCount(structTag.Offset())
		base := addr + 1
		for i := word.ElementCount(0); i < elemCount; i++ {
			elemAddr := base + word.Size(i)*structSize.Total()
			ptrs := elemAddr + word.Size(structSize.Data)
			for j := word.PointerCount(0); j < structSize.Pointers; j++ {
				zeroPointer(a, seg, ptrs+word.Size(j))
			}
		}
		zeroWords(seg, addr, base+word.Size(elemCount)*structSize.Total())
	case wireptr.PointerSize:
		for i := word.ElementCount(0); i < count; i++ {
			zeroPointer(a, seg, addr+word.Size(i))
		}
		zeroWords(seg, addr, addr+word.Size(count))
	default:
		totalWords := word.BitCount(int64(count) * int64(size.BitsPerElement())).Words()
		zeroWords(seg, addr, addr+totalWords)
	}
}

func zeroWords(seg *segment.Builder, from, to word.Size) {
	b := seg.Words(from, to)
	for i := range b {
		b[i] = 0
	}
}
