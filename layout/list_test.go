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

func TestListOfStructRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	elemSize := word.ObjectSize{Data: 1, Pointers: 0}
	lb := root.InitStructListField(0, elemSize, 3)
	for i := word.ElementCount(0); i < 3; i++ {
		lb.Struct(i).SetInt64(0, int64(i)*10)
	}

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	list := got.ReadListField(0, wireptr.PointerSize, elemSize, layout.ListReader{})
	require.Equal(t, word.ElementCount(3), list.Len())
	for i := word.ElementCount(0); i < 3; i++ {
		assert.Equal(t, int64(i)*10, list.Struct(i, layout.StructReader{}).Int64(0))
	}
}

func TestListOfTextRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	elemSize := word.ObjectSize{Data: 0, Pointers: 1}
	lb := root.InitStructListField(0, elemSize, 2)
	strs := []string{"alpha", "beta"}
	for i, s := range strs {
		lb.Struct(word.ElementCount(i)).SetTextField(0, s)
	}

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	list := got.ReadListField(0, wireptr.PointerSize, elemSize, layout.ListReader{})
	for i, want := range strs {
		assert.Equal(t, want, list.Struct(word.ElementCount(i), layout.StructReader{}).ReadTextField(0, ""))
	}
}

func TestListOfBoolRoundTrip(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	lb := root.InitListField(0, wireptr.Bit, 10)
	want := []bool{true, false, true, true, false, false, true, false, true, true}
	for i, v := range want {
		lb.SetBool(word.ElementCount(i), v)
	}

	r := toReader(t, b, arena.ReaderOptions{})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	list := got.ReadListField(0, wireptr.Bit, word.ObjectSize{}, layout.ListReader{})
	require.Equal(t, word.ElementCount(len(want)), list.Len())
	for i, v := range want {
		assert.Equal(t, v, list.Bool(word.ElementCount(i)))
	}
}

func TestEmptyListInitializesToNoElements(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	lb := root.InitListField(0, wireptr.FourBytes, 0)
	assert.Equal(t, word.ElementCount(0), lb.Len())
}
