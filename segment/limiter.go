package segment

import "github.com/segmentwire/segmentwire/word"

// Limiter bounds the cumulative number of words a reader may dereference from one
// message. It is the traversal-limit defense: without it, a handful of cleverly
// nested far pointers could force unbounded work out of a small message. It is
// intentionally not safe for concurrent use -- it is a soft defense, not a
// correctness device, and over- or under-counting under a race is acceptable.
type Limiter struct {
	max       int64
	remaining int64
}

// DefaultTraversalLimitWords is applied when a reader's options don't override it.
const DefaultTraversalLimitWords = 8 * 1000 * 1000

// NewLimiter returns a Limiter with the given word budget.
func NewLimiter(words int64) *Limiter {
	return &Limiter{max: words, remaining: words}
}

// Take decrements the budget by n and reports whether it was available.
func (l *Limiter) Take(n int64) bool {
	if l == nil {
		return true
	}
	if l.remaining < n {
		l.remaining = 0
		return false
	}
	l.remaining -= n
	return true
}

// Unread gives back n words, saturating at the limiter's original budget. This
// defends against a subtly wrong accounting path over-crediting the limiter past
// where it started.
func (l *Limiter) Unread(n int64) {
	if l == nil {
		return
	}
	l.remaining += n
	if l.remaining > l.max {
		l.remaining = l.max
	}
}

// Remaining reports the current budget, for tests and diagnostics.
func (l *Limiter) Remaining() word.Size {
	if l == nil {
		return word.Size(1<<31 - 1)
	}
	return word.Size(l.remaining)
}
