package layout

import (
	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
)

// transferPointer relinks the pointer slot at (dstSeg, dstAddr) to refer to whatever
// the pointer at (srcSeg, srcAddr) currently refers to, without moving the referenced
// object. Used when a struct upgrades to a larger size in place: its pointer section
// moves, but the objects it points to don't need to.
//
// When the target and the new slot share a segment, the relink is a plain direct
// pointer. Otherwise it goes through a double-far landing pad, which can be allocated
// in any segment with room -- unlike a single far's landing pad, it never depends on
// there being space next to the object itself.
func transferPointer(a *arena.Builder, dstSeg *segment.Builder, dstAddr word.Size, srcSeg *segment.Builder, srcAddr word.Size) {
	raw := wireptr.Raw(srcSeg.Word(srcAddr)).Get()
	dst := wireptr.Raw(dstSeg.Word(dstAddr))
	if raw.IsNull() {
		dst.Zero()
		return
	}
	t := followFarsBuilder(a, srcSeg, srcAddr, raw)
	if t.seg.ID == dstSeg.ID {
		offset := int32(t.addr) - int32(dstAddr+1)
		dst.Set(t.tag.WithOffset(offset))
		return
	}
	padSeg := a.GetSegmentWithAvailable(2)
	padAddr, ok := padSeg.Allocate(2)
	if !ok {
		panic("arena returned a segment without room for a double-far landing pad")
	}
	wireptr.Raw(padSeg.Word(padAddr)).Set(wireptr.NewFar(false, t.seg.ID, t.addr))
	wireptr.Raw(padSeg.Word(padAddr + 1)).Set(t.tag.WithOffset(0))
	dst.Set(wireptr.NewFar(true, padSeg.ID, padAddr))
}
