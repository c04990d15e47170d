package packed_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentwire/segmentwire/packed"
)

// decodeExactly reads exactly len(words) bytes from a packed.Reader, the way
// message.ReadFrom does with a known total size -- packed.Reader never produces a
// clean io.EOF of its own, it only ever decodes as much as it's asked for.
func decodeExactly(t *testing.T, r io.Reader, want int) []byte {
	t.Helper()
	buf := make([]byte, want)
	n, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, want, n)
	return buf
}

func roundTrip(t *testing.T, words []byte) []byte {
	t.Helper()
	var encoded bytes.Buffer
	require.NoError(t, packed.Encode(&encoded, words))
	return decodeExactly(t, packed.NewReader(&encoded), len(words))
}

func TestEncodeDecodeRoundTripAllZero(t *testing.T) {
	words := make([]byte, 8*20)
	assert.Equal(t, words, roundTrip(t, words))
}

func TestEncodeDecodeRoundTripAllDense(t *testing.T) {
	words := bytes.Repeat([]byte{0xff}, 8*20)
	assert.Equal(t, words, roundTrip(t, words))
}

func TestEncodeDecodeRoundTripMixedSparse(t *testing.T) {
	words := make([]byte, 0, 8*40)
	for i := 0; i < 10; i++ {
		words = append(words, make([]byte, 8)...)
	}
	for i := 0; i < 5; i++ {
		words = append(words, []byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x03, 0x00, 0x04}...)
	}
	for i := 0; i < 10; i++ {
		words = append(words, bytes.Repeat([]byte{0xab}, 8)...)
	}
	words = append(words, []byte{0, 0, 0, 0, 0, 0, 0, 0}...)
	assert.Equal(t, words, roundTrip(t, words))
}

func TestEncodeDecodeRoundTripSingleWord(t *testing.T) {
	words := []byte{0, 0x11, 0, 0x22, 0, 0, 0, 0}
	assert.Equal(t, words, roundTrip(t, words))
}

// TestEncodeSpecScenarioThree exercises the documented worst-case-friendly shape: a
// large run of zero words, then a run of fully-dense words, then one ordinary mixed
// word, and checks the encoded byte stream matches the expected tag/run-count form
// rather than just round-tripping.
func TestEncodeSpecScenarioThree(t *testing.T) {
	words := make([]byte, 0, 8*311)
	for i := 0; i < 300; i++ {
		words = append(words, make([]byte, 8)...)
	}
	for i := 0; i < 10; i++ {
		words = append(words, bytes.Repeat([]byte{0xff}, 8)...)
	}
	words = append(words, []byte{0x00, 0x11, 0x00, 0x22, 0x00, 0x00, 0x00, 0x00}...)

	var encoded bytes.Buffer
	require.NoError(t, packed.Encode(&encoded, words))
	out := encoded.Bytes()

	// first run: tag 0x00 (the word itself is all zero) then a count of 255 further
	// zero words, covering words [0, 256).
	require.GreaterOrEqual(t, len(out), 2)
	assert.Equal(t, byte(0x00), out[0])
	assert.Equal(t, byte(255), out[1])

	// second run: the next word (256) is also all zero, with 43 more zero words
	// following it, covering words [256, 300).
	require.GreaterOrEqual(t, len(out), 4)
	assert.Equal(t, byte(0x00), out[2])
	assert.Equal(t, byte(43), out[3])

	// third run: word 300 is fully dense, tag 0xff followed by that word's own 8
	// literal bytes, then a count of 9 further fully-dense words and their 9*8 raw
	// bytes verbatim.
	require.GreaterOrEqual(t, len(out), 14)
	assert.Equal(t, byte(0xff), out[4])
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 8), out[5:13])
	assert.Equal(t, byte(9), out[13])
	denseRaw := out[14 : 14+9*8]
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 9*8), denseRaw)

	// final word: mixed, tag has bits 1 and 3 set for its two nonzero bytes, no count
	// byte, just the nonzero bytes themselves.
	tail := out[14+9*8:]
	require.Len(t, tail, 3)
	assert.Equal(t, byte(0x0A), tail[0])
	assert.Equal(t, byte(0x11), tail[1])
	assert.Equal(t, byte(0x22), tail[2])

	decoded := decodeExactly(t, packed.NewReader(bytes.NewReader(out)), len(words))
	assert.Equal(t, words, decoded)
}

// TestReaderToleratesAwkwardBufferBoundaries feeds the decoded stream through reads
// of 1, 3, and 7 bytes at a time, none of which line up with word or tag boundaries,
// to confirm the reader refills pending output rather than assuming a caller always
// asks for a whole word. A packed.Reader is meant to be read for exactly as many
// bytes as the caller already knows it holds, so the loop stops by length rather
// than by EOF.
func TestReaderToleratesAwkwardBufferBoundaries(t *testing.T) {
	words := make([]byte, 0, 8*8)
	words = append(words, bytes.Repeat([]byte{0xff}, 8)...)
	words = append(words, make([]byte, 8)...)
	words = append(words, make([]byte, 8)...)
	words = append(words, []byte{1, 0, 0, 2, 0, 0, 0, 3}...)

	var encoded bytes.Buffer
	require.NoError(t, packed.Encode(&encoded, words))

	for _, chunkSize := range []int{1, 3, 7} {
		pr := packed.NewReader(bytes.NewReader(encoded.Bytes()))
		var got []byte
		buf := make([]byte, chunkSize)
		for len(got) < len(words) {
			want := chunkSize
			if remaining := len(words) - len(got); remaining < want {
				want = remaining
			}
			n, err := pr.Read(buf[:want])
			require.NoError(t, err)
			got = append(got, buf[:n]...)
		}
		assert.Equal(t, words, got, "chunk size %d", chunkSize)
	}
}

func TestWriterEncodesAcrossMultipleWrites(t *testing.T) {
	words := make([]byte, 0, 8*4)
	words = append(words, bytes.Repeat([]byte{0x01}, 8)...)
	words = append(words, make([]byte, 8)...)
	words = append(words, bytes.Repeat([]byte{0xff}, 8)...)
	words = append(words, []byte{0, 9, 0, 0, 0, 0, 0, 0}...)

	var out bytes.Buffer
	pw := packed.NewWriter(&out)
	for i := 0; i < len(words); i += 3 {
		end := i + 3
		if end > len(words) {
			end = len(words)
		}
		_, err := pw.Write(words[i:end])
		require.NoError(t, err)
	}
	require.NoError(t, pw.Close())

	decoded := decodeExactly(t, packed.NewReader(&out), len(words))
	assert.Equal(t, words, decoded)
}

func TestWriterCloseRejectsPartialTrailingWord(t *testing.T) {
	var out bytes.Buffer
	pw := packed.NewWriter(&out)
	_, err := pw.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Error(t, pw.Close())
}
