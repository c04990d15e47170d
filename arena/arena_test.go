package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/word"
)

func TestBuilderLazySegmentZero(t *testing.T) {
	a := arena.NewBuilder(&arena.FixedSizePolicy{Size: 4})
	assert.Equal(t, 0, a.NumSegments())
	seg := a.GetSegmentWithAvailable(2)
	require.Equal(t, 1, a.NumSegments())
	assert.Equal(t, word.SegmentID(0), seg.ID)
}

func TestBuilderOpensNewSegmentWhenFull(t *testing.T) {
	a := arena.NewBuilder(&arena.FixedSizePolicy{Size: 2})
	first := a.GetSegmentWithAvailable(2)
	first.Allocate(2)

	second := a.GetSegmentWithAvailable(1)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, a.NumSegments())
}

func TestBuilderReusesSegmentWithRoom(t *testing.T) {
	a := arena.NewBuilder(&arena.FixedSizePolicy{Size: 4})
	first := a.GetSegmentWithAvailable(2)
	first.Allocate(1)

	second := a.GetSegmentWithAvailable(2)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetSegmentsForOutput(t *testing.T) {
	a := arena.NewBuilder(&arena.FixedSizePolicy{Size: 2})
	seg := a.GetSegmentWithAvailable(2)
	off, ok := seg.Allocate(1)
	require.True(t, ok)
	seg.Word(off)[0] = 0xAB

	out := a.GetSegmentsForOutput()
	require.Len(t, out, 1)
	assert.Equal(t, 8, len(out[0]))
	assert.Equal(t, byte(0xAB), out[0][0])
}

func TestReaderTryGetSegmentOutOfRange(t *testing.T) {
	r := arena.NewReader([][]byte{make([]byte, 8)}, arena.ReaderOptions{})
	assert.NotNil(t, r.TryGetSegment(0))
	assert.Nil(t, r.TryGetSegment(1))
}

func TestReaderReportErrorKeepsFirst(t *testing.T) {
	r := arena.NewReader([][]byte{make([]byte, 8)}, arena.ReaderOptions{Strict: true})
	assert.Nil(t, r.Err())
	first := assertErr("first")
	r.ReportError(first)
	r.ReportError(assertErr("second"))
	assert.Equal(t, first, r.Err())
	assert.True(t, r.Strict())
}

func assertErr(msg string) error { return &stubErr{msg} }

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }
