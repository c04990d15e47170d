// Package message frames a built arena's segments onto the wire and parses them back:
// a little-endian segment-count-minus-one word, one word-count word per segment,
// padding to keep the header itself word-aligned, then every segment's bytes
// concatenated in order. This is the only place segment boundaries are serialized --
// arena and layout never see the framing, only ever a [][]byte of already-split
// segments.
package message

import (
	"encoding/binary"
	"io"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/wirerr"
)

// DefaultMaxSegments bounds how many segments a header may declare, defending against
// a malicious or corrupt length field demanding an enormous allocation before any
// segment data has even been read.
const DefaultMaxSegments = 512

// WriteTo writes segments (each already a whole number of words) to w in the standard
// framing, returning the total bytes written.
func WriteTo(w io.Writer, segments [][]byte) (int64, error) {
	if len(segments) == 0 {
		return 0, wirerr.NewPreconditionError(wirerr.ErrMalformed, "message has no segments", "")
	}
	headerWords := (len(segments)/2 + 1)
	header := make([]byte, headerWords*8)
	binary.LittleEndian.PutUint32(header, uint32(len(segments)-1))
	for i, seg := range segments {
		binary.LittleEndian.PutUint32(header[4+4*i:], uint32(len(seg)/8))
	}
	// the trailing word is left zeroed as padding when len(segments) is even.

	n, err := w.Write(header)
	total := int64(n)
	if err != nil {
		return total, err
	}
	for _, seg := range segments {
		n, err := w.Write(seg)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadFrom reads one framed message from r into freshly-allocated segment buffers and
// returns a reader arena over them. maxSegments bounds the declared segment count,
// rejecting a header before it can force an unbounded number of allocations; zero
// selects DefaultMaxSegments.
func ReadFrom(r io.Reader, opts arena.ReaderOptions, maxSegments int) (*arena.Reader, error) {
	if maxSegments == 0 {
		maxSegments = DefaultMaxSegments
	}
	var countWord [4]byte
	if err := wirerr.ReadFull(countWord[:], r); err != nil {
		return nil, err
	}
	count := int(binary.LittleEndian.Uint32(countWord[:])) + 1
	if count <= 0 || count > maxSegments {
		return nil, wirerr.NewValidationError(wirerr.ErrMalformed, "segment count out of range", "")
	}

	sizes := make([]uint32, count)
	sizeBytes := make([]byte, count*4)
	if err := wirerr.ReadFull(sizeBytes, r); err != nil {
		return nil, err
	}
	for i := range sizes {
		sizes[i] = binary.LittleEndian.Uint32(sizeBytes[i*4:])
	}
	if count%2 == 0 {
		var pad [4]byte
		if err := wirerr.ReadFull(pad[:], r); err != nil {
			return nil, err
		}
	}

	segments := make([][]byte, count)
	for i, words := range sizes {
		buf := make([]byte, int(words)*8)
		if err := wirerr.ReadFull(buf, r); err != nil {
			return nil, err
		}
		segments[i] = buf
	}
	return arena.NewReader(segments, opts), nil
}

// FromFlatArray parses an already-in-memory framed message (e.g. a memory-mapped
// file) without copying segment bytes: each segment's slice is a window into data
// itself. data must outlive the returned reader.
func FromFlatArray(data []byte, opts arena.ReaderOptions, maxSegments int) (*arena.Reader, error) {
	if maxSegments == 0 {
		maxSegments = DefaultMaxSegments
	}
	if len(data) < 4 {
		return nil, wirerr.NewValidationError(wirerr.ErrOutOfBounds, "message shorter than its header", "")
	}
	count := int(binary.LittleEndian.Uint32(data)) + 1
	if count <= 0 || count > maxSegments {
		return nil, wirerr.NewValidationError(wirerr.ErrMalformed, "segment count out of range", "")
	}
	headerWords := count/2 + 1
	headerBytes := headerWords * 8
	if len(data) < headerBytes {
		return nil, wirerr.NewValidationError(wirerr.ErrOutOfBounds, "message shorter than its header", "")
	}

	segments := make([][]byte, count)
	offset := headerBytes
	for i := 0; i < count; i++ {
		words := int(binary.LittleEndian.Uint32(data[4+4*i:]))
		size := words * 8
		if offset+size > len(data) {
			return nil, wirerr.NewValidationError(wirerr.ErrOutOfBounds, "segment extends past end of message", "")
		}
		segments[i] = data[offset : offset+size]
		offset += size
	}
	return arena.NewReader(segments, opts), nil
}
