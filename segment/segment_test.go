package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/word"
)

func TestBuilderAllocate(t *testing.T) {
	b := segment.NewBuilder(0, 4)
	off, ok := b.Allocate(2)
	require.True(t, ok)
	assert.Equal(t, word.Size(0), off)
	assert.Equal(t, word.Size(2), b.Allocated())
	assert.Equal(t, word.Size(2), b.Available())

	off2, ok := b.Allocate(2)
	require.True(t, ok)
	assert.Equal(t, word.Size(2), off2)
	assert.Equal(t, word.Size(0), b.Available())

	_, ok = b.Allocate(1)
	assert.False(t, ok, "segment has no more room")
}

func TestBuilderReset(t *testing.T) {
	b := segment.NewBuilder(0, 2)
	b.Allocate(2)
	copy(b.Word(0), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.Reset()
	assert.Equal(t, word.Size(0), b.Allocated())
	assert.Equal(t, word.Size(2), b.Available())

	off, ok := b.Allocate(1)
	require.True(t, ok)
	assert.Equal(t, [8]byte{}, [8]byte(b.Word(off)), "reset must zero the reused buffer")
}

func TestReaderContainsInterval(t *testing.T) {
	data := make([]byte, 8*4)
	r := segment.NewReader(0, data, nil)
	assert.True(t, r.ContainsInterval(0, 4))
	assert.False(t, r.ContainsInterval(0, 5), "past the end of the segment")
	assert.False(t, r.ContainsInterval(-1, 1), "negative start")
}

func TestReaderContainsIntervalRespectsLimiter(t *testing.T) {
	limiter := segment.NewLimiter(3)
	data := make([]byte, 8*4)
	hit := false
	r := segment.NewReader(0, data, limiter)
	r.OnLimitReached = func() { hit = true }

	assert.True(t, r.ContainsInterval(0, 2))
	assert.True(t, r.ContainsInterval(2, 3))
	assert.False(t, r.ContainsInterval(3, 4), "limiter is exhausted")
	assert.True(t, hit)
}

func TestLimiterUnreadSaturates(t *testing.T) {
	l := segment.NewLimiter(5)
	l.Take(5)
	assert.Equal(t, word.Size(0), l.Remaining())
	l.Unread(100)
	assert.Equal(t, word.Size(5), l.Remaining(), "unread must not exceed the original budget")
}

func TestNilLimiterIsUnlimited(t *testing.T) {
	var l *segment.Limiter
	assert.True(t, l.Take(1<<40))
	assert.NotPanics(t, func() { l.Unread(1) })
}
