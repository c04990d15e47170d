package message

import (
	"io"

	"github.com/segmentwire/segmentwire/arena"
)

// Builder is a message under construction: an arena plus the framing operations that
// turn its segments into bytes. Reset lets one Builder be reused across many
// messages, avoiding repeated segment allocation in a hot serialization path.
type Builder struct {
	Arena *arena.Builder
}

// NewBuilder returns an empty message builder using policy for segment sizing. A nil
// policy falls back to arena.NewBuilder's default.
func NewBuilder(policy arena.SizePolicy) *Builder {
	return &Builder{Arena: arena.NewBuilder(policy)}
}

// Reset clears the message for reuse, returning its segments' backing arrays to the
// shared segment buffer pool for later segments to draw from.
func (b *Builder) Reset() { b.Arena.Reset() }

// WriteTo frames the message's current segments onto w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	return WriteTo(w, b.Arena.GetSegmentsForOutput())
}

// WriteSnappyTo frames and snappy-compresses the message's current segments onto w.
func (b *Builder) WriteSnappyTo(w io.Writer) (int64, error) {
	return WriteSnappyTo(w, b.Arena.GetSegmentsForOutput())
}

// WriteZstdTo frames and zstd-compresses the message's current segments onto w.
func (b *Builder) WriteZstdTo(w io.Writer) (int64, error) {
	return WriteZstdTo(w, b.Arena.GetSegmentsForOutput())
}
