// Package arena owns the segments that make up one message: a reader arena maps
// segment ids to immutable byte views, a builder arena allocates fresh segments on
// demand as a message grows.
package arena

import (
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wiremetrics"
	"github.com/segmentwire/segmentwire/word"
	"github.com/segmentwire/segmentwire/wirerr"
)

// ReaderOptions configures the defensive limits a reader arena enforces.
type ReaderOptions struct {
	// TraversalLimitWords bounds the cumulative words dereferenced from this message.
	// Zero means use segment.DefaultTraversalLimitWords; negative means unlimited.
	TraversalLimitWords int64

	// NestingLimit bounds struct/list descent depth. Zero means use DefaultNestingLimit.
	NestingLimit int

	// Strict makes segmentwire.Message.Err return the first recorded validation error;
	// without it that method returns nil and reads simply continue with defaults.
	// Reader.Err itself returns the first recorded error either way.
	Strict bool
}

// DefaultNestingLimit matches the C++ runtime's default.
const DefaultNestingLimit = 64

func (o ReaderOptions) limiter() *segment.Limiter {
	n := o.TraversalLimitWords
	switch {
	case n < 0:
		return nil
	case n == 0:
		n = segment.DefaultTraversalLimitWords
	}
	return segment.NewLimiter(n)
}

func (o ReaderOptions) nestingLimit() int {
	if o.NestingLimit == 0 {
		return DefaultNestingLimit
	}
	return o.NestingLimit
}

// Reader owns the segments of a message being read. It resolves far pointers'
// segment ids and is the single place validation errors get recorded.
type Reader struct {
	segments     []*segment.Reader
	limiter      *segment.Limiter
	nestingLimit int
	strict       bool
	firstErr     error

	// Metrics, if set, is notified of every validation error and far-pointer follow.
	// Nil is the common case: metrics are opt-in and never affect correctness.
	Metrics *wiremetrics.Metrics
}

// NewReader builds a reader arena over already-split segment byte slices, each
// assumed word-aligned, in ascending id order.
func NewReader(segments [][]byte, opts ReaderOptions) *Reader {
	a := &Reader{
		limiter:      opts.limiter(),
		nestingLimit: opts.nestingLimit(),
		strict:       opts.Strict,
	}
	a.segments = make([]*segment.Reader, len(segments))
	for i, data := range segments {
		s := segment.NewReader(word.SegmentID(i), data, a.limiter)
		s.OnLimitReached = func() {
			a.ReportError(wirerr.NewValidationError(wirerr.ErrTraversalLimit, "", ""))
		}
		a.segments[i] = s
	}
	return a
}

// TryGetSegment returns the segment with the given id, or nil if out of range.
func (a *Reader) TryGetSegment(id word.SegmentID) *segment.Reader {
	if int(id) >= len(a.segments) {
		return nil
	}
	return a.segments[id]
}

// NestingLimit returns the configured struct/list descent budget.
func (a *Reader) NestingLimit() int { return a.nestingLimit }

// ReportError records the first validation error seen on this message. Readers call
// this instead of propagating the error from primitive accessors; they continue with
// a safe default. Err returns it afterwards.
func (a *Reader) ReportError(err error) {
	if a.firstErr == nil {
		a.firstErr = err
	}
	if a.Metrics != nil {
		a.Metrics.RecordValidationError(wirerr.Cause(err))
	}
}

// Err returns the first recorded validation error, or nil. Non-strict callers may
// ignore it; Strict-mode callers check it after finishing a traversal.
func (a *Reader) Err() error { return a.firstErr }

// Strict reports whether this arena was configured to surface the first error.
func (a *Reader) Strict() bool { return a.strict }
