package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/layout"
	"github.com/segmentwire/segmentwire/wireptr"
	"github.com/segmentwire/segmentwire/word"
)

func toReader(t *testing.T, a *arena.Builder, opts arena.ReaderOptions) *arena.Reader {
	t.Helper()
	return arena.NewReader(a.GetSegmentsForOutput(), opts)
}

func TestStructFieldRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	size := word.ObjectSize{Data: 2, Pointers: 2}
	root := layout.InitRootStruct(b, size)
	root.SetUint32(0, 0xDEADBEEF)
	root.SetTextField(0, "hello")

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.Equal(t, uint32(0xDEADBEEF), got.Uint32(0))
	assert.Equal(t, "hello", got.ReadTextField(0, ""))
	assert.Nil(t, r.Err())
}

func TestListOfPrimitivesRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	lb := root.InitListField(0, wireptr.TwoBytes, 3)
	lb.SetUint16(0, 1)
	lb.SetUint16(1, 2)
	lb.SetUint16(2, 3)

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	list := got.ReadListField(0, wireptr.TwoBytes, word.ObjectSize{}, layout.ListReader{})
	require.Equal(t, word.ElementCount(3), list.Len())
	assert.Equal(t, uint16(1), list.Uint16(0))
	assert.Equal(t, uint16(2), list.Uint16(1))
	assert.Equal(t, uint16(3), list.Uint16(2))
}

func TestDataFieldRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	root.SetDataField(0, []byte{1, 2, 3, 4, 5})

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got.ReadDataField(0, nil))
}

func TestNestedStructFieldRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	child := root.InitStructField(0, word.ObjectSize{Data: 1})
	child.SetUint64(0, 99)

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.True(t, got.HasPointer(0))
	gotChild := got.ReadStructField(0, layout.StructReader{})
	assert.Equal(t, uint64(99), gotChild.Uint64(0))
}

func TestNullFieldReturnsDefault(t *testing.T) {
	b := arena.NewBuilder(nil)
	_ = layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.False(t, got.HasPointer(0))
	assert.Equal(t, "fallback", got.ReadTextField(0, "fallback"))
}

func TestInitZeroesFieldsToSchemaDefault(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 1, Pointers: 1})
	assert.Equal(t, uint32(0), root.Uint32(0))
	assert.False(t, root.HasPointer(0))
}

func TestSetImmediatelyFollowedByGet(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 1})
	root.SetInt32(0, -42)
	assert.Equal(t, int32(-42), root.Int32(0))
}
