package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/layout"
	"github.com/segmentwire/segmentwire/wirerr"
	"github.com/segmentwire/segmentwire/word"
)

// TestTraversalLimitDegradesToDefault exercises spec scenario 5: a tight traversal
// budget must cause reads beyond it to return defaults and record a validation error,
// rather than returning the struct's real (but over-budget) content.
func TestTraversalLimitDegradesToDefault(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 1, Pointers: 1})
	root.SetUint64(0, 123)
	child := root.InitStructField(0, word.ObjectSize{Data: 8})
	for i := word.ByteCount(0); i < 8; i++ {
		child.SetUint64(i*8, uint64(i)+1)
	}

	r := arena.NewReader(b.GetSegmentsForOutput(), arena.ReaderOptions{TraversalLimitWords: 4, Strict: true})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	_ = got.ReadStructField(0, layout.StructReader{})

	require.Error(t, r.Err())
	var verr wirerr.ValidationError
	assert.ErrorAs(t, r.Err(), &verr)
	assert.ErrorIs(t, verr, wirerr.ErrTraversalLimit)
}

func TestTraversalLimitDoesNotAffectReadsWithinBudget(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Data: 1})
	root.SetUint64(0, 0xFEED)

	r := arena.NewReader(b.GetSegmentsForOutput(), arena.ReaderOptions{TraversalLimitWords: 64, Strict: true})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.Equal(t, uint64(0xFEED), got.Uint64(0))
	assert.NoError(t, r.Err())
}

// TestNestingLimitDegradesToDefault exercises a reader configured with a nesting
// limit too shallow for a chain of nested structs: the deepest read must come back
// as the default rather than panicking or returning stale data.
func TestNestingLimitDegradesToDefault(t *testing.T) {
	b := arena.NewBuilder(nil)
	root := layout.InitRootStruct(b, word.ObjectSize{Pointers: 1})
	level1 := root.InitStructField(0, word.ObjectSize{Pointers: 1})
	level2 := level1.InitStructField(0, word.ObjectSize{Data: 1})
	level2.SetUint32(0, 7)

	r := arena.NewReader(b.GetSegmentsForOutput(), arena.ReaderOptions{NestingLimit: 2})
	got := layout.ReadRootStruct(r, layout.StructReader{})
	gotLevel1 := got.ReadStructField(0, layout.StructReader{})
	gotLevel2 := gotLevel1.ReadStructField(0, layout.StructReader{})
	assert.Equal(t, uint32(0), gotLevel2.Uint32(0), "descent past the nesting limit must degrade to default")
}
