package arena

import (
	"github.com/segmentwire/segmentwire/segment"
	"github.com/segmentwire/segmentwire/wiremetrics"
	"github.com/segmentwire/segmentwire/word"
)

// Builder owns the segments of a message under construction. Segment 0 is created
// lazily on first allocation; additional segments are appended with ascending ids as
// earlier ones fill up. Ids stay dense: the arena is the only thing that creates
// segments, so there is never a gap.
type Builder struct {
	policy   SizePolicy
	segments []*segment.Builder

	// Metrics, if set, is notified of segment allocations and in-place upgrades. Nil
	// is the common case: metrics are opt-in and never affect correctness.
	Metrics *wiremetrics.Metrics
}

// NewBuilder returns an empty builder arena using policy for segment sizing. A nil
// policy uses GrowingPolicy with default sizing.
func NewBuilder(policy SizePolicy) *Builder {
	if policy == nil {
		policy = &GrowingPolicy{}
	}
	return &Builder{policy: policy}
}

// GetSegment returns the segment with the given id. The caller must already know it
// exists; this is an arena-internal invariant, not a validated lookup.
func (a *Builder) GetSegment(id word.SegmentID) *segment.Builder {
	return a.segments[id]
}

// NumSegments reports how many segments currently exist.
func (a *Builder) NumSegments() int { return len(a.segments) }

// GetSegmentWithAvailable returns a segment (creating one if necessary) with at least
// n words free. It prefers the most recently created segment to keep related
// allocations close together, matching the C++ arena's bump-forward bias.
func (a *Builder) GetSegmentWithAvailable(n word.Size) *segment.Builder {
	if len(a.segments) == 0 {
		return a.newSegment(maxSize(a.policy.FirstSegmentSize(), n))
	}
	last := a.segments[len(a.segments)-1]
	if last.Available() >= n {
		return last
	}
	return a.newSegment(a.policy.NextSegmentSize(n))
}

func (a *Builder) newSegment(capacity word.Size) *segment.Builder {
	id := word.SegmentID(len(a.segments))
	s := segment.NewBuilder(id, capacity)
	a.segments = append(a.segments, s)
	if a.Metrics != nil {
		a.Metrics.RecordSegmentAllocated()
	}
	return s
}

// GetSegmentsForOutput returns the currently-allocated prefix of every segment, in id
// order, ready for message framing to concatenate onto the wire.
func (a *Builder) GetSegmentsForOutput() [][]byte {
	out := make([][]byte, len(a.segments))
	for i, s := range a.segments {
		out[i] = s.CurrentlyAllocated()
	}
	return out
}

// Reset releases every segment's backing array back to the shared buffer pool and
// forgets them, so the next allocation draws fresh (possibly recycled) segments
// through newSegment rather than reusing this builder's own arrays indefinitely.
func (a *Builder) Reset() {
	for _, s := range a.segments {
		s.Release()
	}
	a.segments = a.segments[:0]
}

func maxSize(a, b word.Size) word.Size {
	if a > b {
		return a
	}
	return b
}
