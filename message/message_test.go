package message_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/layout"
	"github.com/segmentwire/segmentwire/message"
	"github.com/segmentwire/segmentwire/word"
)

func buildSample(t *testing.T, policy arena.SizePolicy) *message.Builder {
	t.Helper()
	b := message.NewBuilder(policy)
	root := layout.InitRootStruct(b.Arena, word.ObjectSize{Data: 1, Pointers: 1})
	root.SetUint64(0, 0x1122334455667788)
	root.SetTextField(0, "framed message")
	return b
}

func assertSampleRead(t *testing.T, r *arena.Reader) {
	t.Helper()
	got := layout.ReadRootStruct(r, layout.StructReader{})
	assert.Equal(t, uint64(0x1122334455667788), got.Uint64(0))
	assert.Equal(t, "framed message", got.ReadTextField(0, ""))
	assert.NoError(t, r.Err())
}

func TestWriteToReadFromRoundTrip(t *testing.T) {
	b := buildSample(t, nil)
	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	r, err := message.ReadFrom(&buf, arena.ReaderOptions{}, 0)
	require.NoError(t, err)
	assertSampleRead(t, r)
}

func TestWriteToReadFromMultiSegment(t *testing.T) {
	b := buildSample(t, &arena.FixedSizePolicy{Size: 2})
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	r, err := message.ReadFrom(&buf, arena.ReaderOptions{}, 0)
	require.NoError(t, err)
	assertSampleRead(t, r)
}

func TestFromFlatArrayRoundTrip(t *testing.T) {
	b := buildSample(t, nil)
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	r, err := message.FromFlatArray(buf.Bytes(), arena.ReaderOptions{}, 0)
	require.NoError(t, err)
	assertSampleRead(t, r)
}

func TestWriteSnappyToReadSnappyFromRoundTrip(t *testing.T) {
	b := buildSample(t, nil)
	var buf bytes.Buffer
	_, err := b.WriteSnappyTo(&buf)
	require.NoError(t, err)

	r, err := message.ReadSnappyFrom(&buf, arena.ReaderOptions{}, 0)
	require.NoError(t, err)
	assertSampleRead(t, r)
}

func TestWriteZstdToReadZstdFromRoundTrip(t *testing.T) {
	b := buildSample(t, nil)
	var buf bytes.Buffer
	_, err := b.WriteZstdTo(&buf)
	require.NoError(t, err)

	r, err := message.ReadZstdFrom(&buf, arena.ReaderOptions{}, 0)
	require.NoError(t, err)
	assertSampleRead(t, r)
}

func TestWriteToRejectsZeroSegments(t *testing.T) {
	var buf bytes.Buffer
	_, err := message.WriteTo(&buf, nil)
	assert.Error(t, err)
}

func TestReadFromAcceptsSegmentCountAtMax(t *testing.T) {
	b := buildSample(t, nil)
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	_, err = message.ReadFrom(&buf, arena.ReaderOptions{}, 1)
	assert.NoError(t, err, "single-segment message is within a max of 1")
}

func TestReadFromRejectsSegmentCountOverMax(t *testing.T) {
	b := buildSample(t, &arena.FixedSizePolicy{Size: 2})
	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)
	require.Greater(t, buf.Len(), 0)

	_, err = message.ReadFrom(bytes.NewReader(buf.Bytes()), arena.ReaderOptions{}, 1)
	assert.Error(t, err, "message spans more than one segment, over a max of 1")
}

func TestFromFlatArrayRejectsTruncatedHeader(t *testing.T) {
	_, err := message.FromFlatArray([]byte{1, 2, 3}, arena.ReaderOptions{}, 0)
	assert.Error(t, err)
}
