package arena

import "github.com/segmentwire/segmentwire/word"

// SizePolicy decides how large a freshly-allocated segment should be. It is pluggable
// so tests can force small, deterministic segments to exercise multi-segment and
// far-pointer paths without building multi-megabyte messages.
type SizePolicy interface {
	// FirstSegmentSize returns the capacity of segment 0, created lazily on first
	// allocation.
	FirstSegmentSize() word.Size

	// NextSegmentSize returns the capacity of a new segment able to satisfy an
	// allocation of at least need words.
	NextSegmentSize(need word.Size) word.Size
}

// SuggestedFirstSegmentWords is the default size for segment 0 absent other guidance.
const SuggestedFirstSegmentWords = word.Size(1024)

// GrowingPolicy sizes each new segment to the larger of the caller's requested size
// and a geometrically increasing suggestion, so long messages open progressively
// larger segments instead of many small ones.
type GrowingPolicy struct {
	// FirstSize overrides SuggestedFirstSegmentWords when non-zero.
	FirstSize word.Size
	next      word.Size
}

func (p *GrowingPolicy) FirstSegmentSize() word.Size {
	if p.FirstSize != 0 {
		p.next = p.FirstSize * 2
		return p.FirstSize
	}
	p.next = SuggestedFirstSegmentWords * 2
	return SuggestedFirstSegmentWords
}

func (p *GrowingPolicy) NextSegmentSize(need word.Size) word.Size {
	size := p.next
	if size < need {
		size = need
	}
	p.next = size * 2
	return size
}

// FixedSizePolicy always returns the same segment size, used by tests that need to
// force a particular segment count.
type FixedSizePolicy struct {
	Size word.Size
}

func (p FixedSizePolicy) FirstSegmentSize() word.Size { return p.Size }
func (p FixedSizePolicy) NextSegmentSize(need word.Size) word.Size {
	if need > p.Size {
		return need
	}
	return p.Size
}
