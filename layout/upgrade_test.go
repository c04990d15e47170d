package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/layout"
	"github.com/segmentwire/segmentwire/word"
)

// TestStructUpgradeInPlacePreservesOldFields exercises spec scenario 6: a struct
// written with 1 data word, then widened to 2, must still read its original field.
func TestStructUpgradeInPlacePreservesOldFields(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 1})
	root.SetUint32(0, 42)

	widened := layout.GetRootStruct(b, word.ObjectSize{Data: 2}, layout.StructReader{})
	assert.Equal(t, uint32(42), widened.Uint32(0), "original field must survive the widening")
	assert.Equal(t, uint32(0), widened.Uint32(4), "the new word reads as its default")
	widened.SetUint32(4, 7)

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.Equal(t, uint32(42), got.Uint32(0))
	assert.Equal(t, uint32(7), got.Uint32(4))
}

// TestStructUpgradeDoesNotShrink ensures requesting a smaller size than what's
// already there is a no-op: the struct keeps its existing (larger) footprint.
func TestStructUpgradeDoesNotShrink(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 2})
	root.SetUint32(4, 99)

	same := layout.GetRootStruct(b, word.ObjectSize{Data: 1}, layout.StructReader{})
	assert.Equal(t, uint32(99), same.Uint32(4), "existing wider struct must not be truncated")
}

// TestStructUpgradeRelocatesPointerAcrossSegments exercises spec scenario 4: forcing
// tiny fixed-size segments so the root struct's pointer field initially targets an
// object in a different segment (via a single-far), then upgrading the root struct
// forces it into yet another new segment, which must relink that field (via a
// double-far, since the pointed-to object has no room of its own to host a pad)
// without losing the value underneath it.
func TestStructUpgradeRelocatesPointerAcrossSegments(t *testing.T) {
	b := arena.NewBuilder(&arena.FixedSizePolicy{Size: 2})
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	child := root.InitStructField(0, word.ObjectSize{Data: 1})
	child.SetUint64(0, 0xC0FFEE)

	widened := layout.GetRootStruct(b, word.ObjectSize{Data: 1, Pointers: 1}, layout.StructReader{})
	assert.True(t, widened.HasPointer(0))

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	gotChild := got.ReadStructField(0, layout.StructReader{})
	assert.Equal(t, uint64(0xC0FFEE), gotChild.Uint64(0), "child struct must still resolve after the root relocated")
	assert.Nil(t, r.Err())
}
