package segment

import "github.com/segmentwire/segmentwire/word"

// Reader is an immutable view of one segment's words. It carries no allocator --
// only a slice of bytes, the segment's id, and a shared traversal limiter.
type Reader struct {
	ID      word.SegmentID
	Data    []byte // always a whole number of words
	Limiter *Limiter

	// OnLimitReached is invoked each time the limiter refuses an interval on this
	// segment, so the owning arena can record the validation error. May be nil.
	OnLimitReached func()
}

// NewReader wraps data (assumed word-aligned) as a reader segment.
func NewReader(id word.SegmentID, data []byte, limiter *Limiter) *Reader {
	return &Reader{ID: id, Data: data, Limiter: limiter}
}

// Size returns the segment length in words.
func (r *Reader) Size() word.Size { return word.Size(len(r.Data) / 8) }

// ContainsInterval reports whether the word range [from, to) lies entirely within the
// segment and the traversal limiter still has (to-from) words of budget. Both
// conditions must hold for the interval to be dereferenced; on failure it reports the
// limit reached (if that's why) and the caller must treat the target as null.
func (r *Reader) ContainsInterval(from, to word.Size) bool {
	if from < 0 || to < from {
		return false
	}
	if int64(to)*8 > int64(len(r.Data)) {
		return false
	}
	if !r.Limiter.Take(int64(to - from)) {
		if r.OnLimitReached != nil {
			r.OnLimitReached()
		}
		return false
	}
	return true
}

// Word returns the byte slice for word offset n. Callers must have already validated
// the offset with ContainsInterval.
func (r *Reader) Word(n word.Size) []byte {
	return r.Data[n*8 : n*8+8]
}

// Words returns the byte slice spanning [from, to) words.
func (r *Reader) Words(from, to word.Size) []byte {
	return r.Data[from*8 : to*8]
}
