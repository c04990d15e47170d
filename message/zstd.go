package message

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/wirerr"
)

// zstd encoders/decoders are expensive to set up and are safe for reuse, so the
// package keeps one of each around rather than building one per call.
var (
	zstdEncoder     *zstd.Encoder
	zstdEncoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderOnce sync.Once
)

func getZstdEncoder() *zstd.Encoder {
	zstdEncoderOnce.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil)
	})
	return zstdEncoder
}

func getZstdDecoder() *zstd.Decoder {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, _ = zstd.NewReader(nil)
	})
	return zstdDecoder
}

// WriteZstdTo frames segments the normal way and zstd-compresses the whole frame as a
// single block, same trade-off as WriteSnappyTo: higher ratio at the cost of more CPU,
// worth it for messages that are built once and shipped over a slow link or archived.
func WriteZstdTo(w io.Writer, segments [][]byte) (int64, error) {
	var raw bytes.Buffer
	if _, err := WriteTo(&raw, segments); err != nil {
		return 0, err
	}
	compressed := getZstdEncoder().EncodeAll(raw.Bytes(), nil)

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

// ReadZstdFrom reverses WriteZstdTo.
func ReadZstdFrom(r io.Reader, opts arena.ReaderOptions, maxSegments int) (*arena.Reader, error) {
	var lenHeader [4]byte
	if err := wirerr.ReadFull(lenHeader[:], r); err != nil {
		return nil, err
	}
	compressed := make([]byte, binary.LittleEndian.Uint32(lenHeader[:]))
	if err := wirerr.ReadFull(compressed, r); err != nil {
		return nil, err
	}
	raw, err := getZstdDecoder().DecodeAll(compressed, nil)
	if err != nil {
		return nil, wirerr.NewValidationError(wirerr.ErrMalformed, "zstd decompression failed: "+err.Error(), "")
	}
	return FromFlatArray(raw, opts, maxSegments)
}
