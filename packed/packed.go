// Package packed implements the wire format's run-length compression: each 8-byte
// word is replaced by a tag byte (one bit per byte of the word, set if that byte is
// nonzero) followed by only its nonzero bytes. An all-zero word's tag byte (0x00) is
// followed by a count of how many further all-zero words immediately follow, up to
// 255, letting large zeroed regions (common in sparse messages) collapse to two
// bytes. A fully-dense word's tag byte (0xff) is followed by a count of how many
// further fully-dense words follow verbatim, avoiding per-word tag overhead on data
// that doesn't benefit from it.
package packed

import (
	"io"

	"github.com/segmentwire/segmentwire/wiremetrics"
	"github.com/segmentwire/segmentwire/wirerr"
)

var zeroWord [8]byte

// Encode packs words (which must be a whole number of 8-byte words) and writes the
// packed bytes to dst.
func Encode(dst io.Writer, words []byte) error {
	return encode(dst, words, nil)
}

func encode(dst io.Writer, words []byte, m *wiremetrics.Metrics) error {
	buf := make([]byte, 0, len(words)/4+16)
	for i := 0; i < len(words); i += 8 {
		word := words[i : i+8]
		var tag byte
		for b, v := range word {
			if v != 0 {
				tag |= 1 << uint(b)
			}
		}
		buf = append(buf, tag)
		for _, v := range word {
			if v != 0 {
				buf = append(buf, v)
			}
		}

		switch tag {
		case 0x00:
			j := i + 8
			count := 0
			for count < 255 && j < len(words) && isZeroWord(words[j:j+8]) {
				count++
				j += 8
			}
			buf = append(buf, byte(count))
			i = j - 8
		case 0xff:
			j := i + 8
			count := 0
			for count < 255 && j < len(words) && isFullyDense(words[j:j+8]) {
				count++
				j += 8
			}
			buf = append(buf, byte(count))
			buf = append(buf, words[i+8:j]...)
			i = j - 8
		}
	}
	if m != nil {
		m.RecordPackedBytes(len(buf), len(words))
	}
	return wirerr.WriteFull(buf, dst)
}

func isZeroWord(word []byte) bool {
	for _, v := range word {
		if v != 0 {
			return false
		}
	}
	return true
}

func isFullyDense(word []byte) bool {
	for _, v := range word {
		if v == 0 {
			return false
		}
	}
	return true
}

// Reader unpacks a packed byte stream on demand as an io.Reader, so it can be handed
// directly to message.ReadFrom in place of the underlying framed stream.
type Reader struct {
	r       io.Reader
	pending []byte
	one     [1]byte

	// Metrics, if set, is notified of packed/unpacked byte counts as each tag is
	// decoded. Nil is the common case.
	Metrics *wiremetrics.Metrics
}

// NewReader wraps r, which must yield a packed stream starting on a tag byte.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

func (pr *Reader) readByte() (byte, error) {
	if err := wirerr.ReadFull(pr.one[:], pr.r); err != nil {
		return 0, err
	}
	return pr.one[0], nil
}

// fill decodes exactly one tag's worth of output (one word, plus any run it starts)
// into pending.
func (pr *Reader) fill() error {
	tag, err := pr.readByte()
	if err != nil {
		return err
	}
	consumed := 1
	var word [8]byte
	for b := 0; b < 8; b++ {
		if tag&(1<<uint(b)) != 0 {
			v, err := pr.readByte()
			if err != nil {
				return err
			}
			word[b] = v
			consumed++
		}
	}

	produced := 8
	switch tag {
	case 0x00:
		count, err := pr.readByte()
		if err != nil {
			return err
		}
		consumed++
		pr.pending = append(pr.pending, word[:]...)
		for i := 0; i < int(count); i++ {
			pr.pending = append(pr.pending, zeroWord[:]...)
		}
		produced += int(count) * 8
	case 0xff:
		count, err := pr.readByte()
		if err != nil {
			return err
		}
		consumed++
		pr.pending = append(pr.pending, word[:]...)
		raw := make([]byte, int(count)*8)
		if err := wirerr.ReadFull(raw, pr.r); err != nil {
			return err
		}
		consumed += len(raw)
		pr.pending = append(pr.pending, raw...)
		produced += len(raw)
	default:
		pr.pending = append(pr.pending, word[:]...)
	}
	if pr.Metrics != nil {
		pr.Metrics.RecordPackedBytes(consumed, produced)
	}
	return nil
}

// Read implements io.Reader, decoding as many further tags as needed to satisfy the
// caller with at least one byte, tolerating a destination shorter than one word.
func (pr *Reader) Read(p []byte) (int, error) {
	for len(pr.pending) == 0 {
		if err := pr.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, pr.pending)
	pr.pending = pr.pending[n:]
	return n, nil
}

// Writer packs a byte stream on demand as an io.Writer, accumulating until it has a
// whole word to encode. Callers must write a multiple of 8 bytes overall; Close
// reports an incomplete trailing word as an error rather than silently dropping it.
type Writer struct {
	w   io.Writer
	buf []byte

	// Metrics, if set, is notified of packed/unpacked byte counts for each batch of
	// whole words encoded. Nil is the common case.
	Metrics *wiremetrics.Metrics
}

// NewWriter wraps w, emitting packed bytes for each whole word written to it.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (pw *Writer) Write(p []byte) (int, error) {
	pw.buf = append(pw.buf, p...)
	whole := len(pw.buf) - len(pw.buf)%8
	if whole > 0 {
		if err := encode(pw.w, pw.buf[:whole], pw.Metrics); err != nil {
			return 0, err
		}
		pw.buf = pw.buf[whole:]
	}
	return len(p), nil
}

// Close reports an error if bytes remain that don't form a whole word.
func (pw *Writer) Close() error {
	if len(pw.buf) != 0 {
		return wirerr.NewPreconditionError(wirerr.ErrMalformed, "packed writer closed with a partial trailing word", "")
	}
	return nil
}
