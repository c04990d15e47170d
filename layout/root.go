package layout

import (
	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/word"
)

// rootSegment returns segment 0 of a, creating it and reserving its first word (the
// root pointer slot) if this is the first call on a freshly-built message.
func rootSegment(a *arena.Builder) (*segment.Builder, word.Size) {
	var seg *segment.Builder
	if a.NumSegments() == 0 {
		seg = a.GetSegmentWithAvailable(1)
	} else {
		seg = a.GetSegment(0)
	}
	if seg.Allocated() == 0 {
		if _, ok := seg.Allocate(1); !ok {
			panic("segment 0 has no room for the root pointer")
		}
	}
	return seg, 0
}

// InitRootStruct allocates a fresh root struct of size, discarding whatever the root
// pointer currently refers to.
func InitRootStruct(a *arena.Builder, size word.ObjectSize) StructBuilder {
	seg, slot := rootSegment(a)
	return initStructAt(a, seg, slot, size, StructReader{})
}

// GetRootStruct returns the existing root struct, upgrading it in place to size if
// it's narrower, or initializing a fresh one from def if the root pointer is still
// null.
func GetRootStruct(a *arena.Builder, size word.ObjectSize, def StructReader) StructBuilder {
	seg, slot := rootSegment(a)
	return getWritableStructAt(a, seg, slot, size, def)
}

// ReadRootStruct reads the root struct of a reader arena built over segment ids in
// ascending order, falling back to def if the root pointer is null or malformed.
func ReadRootStruct(a *arena.Reader, def StructReader) StructReader {
	seg := a.TryGetSegment(0)
	if seg == nil {
		return def
	}
	return RootStruct(a, seg, def)
}
