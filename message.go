package segmentwire

import (
	"io"
	"time"

	"github.com/segmentwire/segmentwire/arena"
	"github.com/segmentwire/segmentwire/layout"
	"github.com/segmentwire/segmentwire/message"
	"github.com/segmentwire/segmentwire/word"
)

// Message is either a builder under construction or a reader over bytes already
// received; exactly one of builder or reader is set. ID correlates this message
// across log lines and metric labels; it is never part of the wire bytes.
type Message struct {
	ID MessageID

	cfg     Config
	builder *message.Builder
	reader  *arena.Reader
}

// NewMessage returns an empty message ready to have its root struct initialized and
// fields filled in.
func NewMessage(cfg Config) *Message {
	b := message.NewBuilder(cfg.SegmentPolicy)
	b.Arena.Metrics = cfg.Metrics
	return &Message{
		ID:      NewMessageID(),
		cfg:     cfg,
		builder: b,
	}
}

// NewReusableMessage is NewMessage for a caller that intends to call Reset between
// uses instead of allocating a fresh Message per outbound message.
func NewReusableMessage(cfg Config) *Message { return NewMessage(cfg) }

// Reset clears a builder-backed Message for reuse, including assigning it a new ID.
// Calling Reset on a reader-backed Message panics; readers are not reusable.
func (m *Message) Reset() {
	if m.builder == nil {
		panic("segmentwire: Reset called on a reader-backed Message")
	}
	m.builder.Reset()
	m.ID = NewMessageID()
}

// InitRootStruct discards whatever the root pointer currently refers to and
// allocates a fresh root struct of size.
func (m *Message) InitRootStruct(size word.ObjectSize) layout.StructBuilder {
	return layout.InitRootStruct(m.builder.Arena, size)
}

// GetRootStruct returns the message's root struct, upgrading it in place if it is
// narrower than size, or creating it from def if the root pointer is still null.
func (m *Message) GetRootStruct(size word.ObjectSize, def layout.StructReader) layout.StructBuilder {
	return layout.GetRootStruct(m.builder.Arena, size, def)
}

// ReadRootStruct returns the root struct of a reader-backed Message, or def if the
// root pointer is null or could not be resolved. Calling it on a builder-backed
// Message panics.
func (m *Message) ReadRootStruct(def layout.StructReader) layout.StructReader {
	if m.reader == nil {
		panic("segmentwire: ReadRootStruct called on a builder-backed Message")
	}
	return layout.ReadRootStruct(m.reader, def)
}

// Err returns the first validation error recorded while reading, or nil. Only
// meaningful once ReaderOptions.Strict is set; non-strict readers recover from
// malformed data with defaults instead of surfacing an error here.
func (m *Message) Err() error {
	if m.reader == nil || !m.reader.Strict() {
		return nil
	}
	return m.reader.Err()
}

// WriteTo frames the message onto w using the standard (uncompressed) encoding.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	return m.timeWrite(func() (int64, error) { return m.builder.WriteTo(w) })
}

// WriteSnappyTo frames and snappy-compresses the message onto w.
func (m *Message) WriteSnappyTo(w io.Writer) (int64, error) {
	return m.timeWrite(func() (int64, error) { return m.builder.WriteSnappyTo(w) })
}

// WriteZstdTo frames and zstd-compresses the message onto w.
func (m *Message) WriteZstdTo(w io.Writer) (int64, error) {
	return m.timeWrite(func() (int64, error) { return m.builder.WriteZstdTo(w) })
}

func (m *Message) timeWrite(fn func() (int64, error)) (int64, error) {
	if m.cfg.Metrics == nil {
		return fn()
	}
	start := time.Now()
	n, err := fn()
	m.cfg.Metrics.ObserveMessageWrite(time.Since(start))
	return n, err
}

// ReadMessage reads one standard-framed message from r.
func ReadMessage(r io.Reader, cfg Config) (*Message, error) {
	return newReaderMessage(cfg, func() (*arena.Reader, error) {
		return message.ReadFrom(r, cfg.ReaderOptions, message.DefaultMaxSegments)
	})
}

// ReadSnappyMessage reads one snappy-compressed message from r.
func ReadSnappyMessage(r io.Reader, cfg Config) (*Message, error) {
	return newReaderMessage(cfg, func() (*arena.Reader, error) {
		return message.ReadSnappyFrom(r, cfg.ReaderOptions, message.DefaultMaxSegments)
	})
}

// ReadZstdMessage reads one zstd-compressed message from r.
func ReadZstdMessage(r io.Reader, cfg Config) (*Message, error) {
	return newReaderMessage(cfg, func() (*arena.Reader, error) {
		return message.ReadZstdFrom(r, cfg.ReaderOptions, message.DefaultMaxSegments)
	})
}

// ReadMessageFromFlatArray parses an already-in-memory framed message (e.g. a
// memory-mapped file) without copying segment bytes; data must outlive the Message.
func ReadMessageFromFlatArray(data []byte, cfg Config) (*Message, error) {
	return newReaderMessage(cfg, func() (*arena.Reader, error) {
		return message.FromFlatArray(data, cfg.ReaderOptions, message.DefaultMaxSegments)
	})
}

func newReaderMessage(cfg Config, parse func() (*arena.Reader, error)) (*Message, error) {
	start := time.Now()
	reader, err := parse()
	if cfg.Metrics != nil {
		cfg.Metrics.ObserveMessageRead(time.Since(start))
	}
	if err != nil {
		cfg.logger().Error("segmentwire: failed to read message", "error", err)
		return nil, err
	}
	reader.Metrics = cfg.Metrics
	return &Message{ID: NewMessageID(), cfg: cfg, reader: reader}, nil
}
