package wireptr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wireptr"
)

func TestNullPointer(t *testing.T) {
	var p wireptr.Pointer
	assert.True(t, p.IsNull())
}

func TestStructPointerRoundTrip(t *testing.T) {
	size := word.ObjectSize{Data: 2, Pointers: 3}
	p := wireptr.NewStruct(5, size)
	require.False(t, p.IsNull())
	assert.Equal(t, wireptr.Struct, p.Kind())
	assert.Equal(t, int32(5), p.Offset())
	assert.Equal(t, size, p.StructSize())
}

func TestStructPointerNegativeOffset(t *testing.T) {
	p := wireptr.NewStruct(-3, word.ObjectSize{Data: 1})
	assert.Equal(t, int32(-3), p.Offset())
}

func TestWithOffsetPreservesKindAndSize(t *testing.T) {
	size := word.ObjectSize{Data: 4, Pointers: 1}
	p := wireptr.NewStruct(0, size)
	p2 := p.WithOffset(12)
	assert.Equal(t, int32(12), p2.Offset())
	assert.Equal(t, wireptr.Struct, p2.Kind())
	assert.Equal(t, size, p2.StructSize())
}

func TestListPointerRoundTrip(t *testing.T) {
	p := wireptr.NewList(7, wireptr.TwoBytes, word.ElementCount(100))
	assert.Equal(t, wireptr.List, p.Kind())
	assert.Equal(t, int32(7), p.Offset())
	size, count := p.ListTag()
	assert.Equal(t, wireptr.TwoBytes, size)
	assert.Equal(t, word.ElementCount(100), count)
}

func TestFarPointerRoundTrip(t *testing.T) {
	p := wireptr.NewFar(false, word.SegmentID(3), word.Size(42))
	assert.Equal(t, wireptr.Far, p.Kind())
	assert.False(t, p.IsDoubleFar())
	assert.Equal(t, word.SegmentID(3), p.FarSegmentID())
	assert.Equal(t, word.Size(42), p.FarOffset())
}

func TestDoubleFarPointer(t *testing.T) {
	p := wireptr.NewFar(true, word.SegmentID(9), word.Size(1))
	assert.True(t, p.IsDoubleFar())
	assert.Equal(t, word.SegmentID(9), p.FarSegmentID())
}

func TestRawGetSetZero(t *testing.T) {
	buf := make([]byte, 8)
	raw := wireptr.Raw(buf)
	raw.Set(wireptr.NewStruct(1, word.ObjectSize{Data: 1}))
	assert.False(t, raw.Get().IsNull())
	raw.Zero()
	assert.True(t, raw.Get().IsNull())
}

func TestBitsPerElement(t *testing.T) {
	assert.Equal(t, word.BitCount(0), wireptr.Void.BitsPerElement())
	assert.Equal(t, word.BitCount(1), wireptr.Bit.BitsPerElement())
	assert.Equal(t, word.BitCount(8), wireptr.Byte.BitsPerElement())
	assert.Equal(t, word.BitCount(64), wireptr.PointerSize.BitsPerElement())
}
