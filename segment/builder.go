package segment

import "github.com/segmentwire/segmentwire/word"

// Builder is a bump-allocated segment: a backing buffer with a write cursor. Capacity
// is fixed at construction (the arena decides segment sizing policy); Allocate simply
// reports failure once it runs out, leaving the caller (the arena) to open a new
// segment rather than growing this one -- unlike gram's reallocating buffers, wire
// segments must not move underneath pointers that already reference them.
type Builder struct {
	ID   word.SegmentID
	Data []byte // cap(Data)/8 words of backing storage; len(Data) tracks pos*8
}

// NewBuilder returns a builder over a zeroed buffer of capacity words words, drawn
// from the shared buffer pool rather than allocated fresh.
func NewBuilder(id word.SegmentID, capacity word.Size) *Builder {
	return &Builder{ID: id, Data: GetBuffer(int(capacity) * 8)}
}

// Capacity returns the total word capacity of the segment's backing buffer.
func (b *Builder) Capacity() word.Size { return word.Size(cap(b.Data) / 8) }

// Allocated returns the number of words allocated so far.
func (b *Builder) Allocated() word.Size { return word.Size(len(b.Data) / 8) }

// Available returns the number of words that can still be allocated without growing.
func (b *Builder) Available() word.Size { return b.Capacity() - b.Allocated() }

// Allocate reserves n words at the end of the segment, zeroed, and returns the word
// offset of the first one. It returns ok=false if the segment doesn't have n words free.
func (b *Builder) Allocate(n word.Size) (offset word.Size, ok bool) {
	if b.Available() < n {
		return 0, false
	}
	offset = b.Allocated()
	b.Data = b.Data[:len(b.Data)+int(n)*8]
	return offset, true
}

// CurrentlyAllocated returns the in-use prefix of the segment's buffer, ready for
// output by the framing layer.
func (b *Builder) CurrentlyAllocated() []byte { return b.Data }

// Reset zeroes the allocated prefix and rewinds the write cursor to the start,
// keeping the underlying array for reuse by a pooled/reusable message builder.
func (b *Builder) Reset() {
	for i := range b.Data {
		b.Data[i] = 0
	}
	b.Data = b.Data[:0]
}

// Release zeroes this segment's entire backing array and returns it to the shared
// buffer pool. The Builder must not be used again afterward; a pool buffer's capacity
// can outlive any one segment's identity, so the whole array is wiped, not just the
// allocated prefix Reset would clear.
func (b *Builder) Release() {
	full := b.Data[:cap(b.Data)]
	for i := range full {
		full[i] = 0
	}
	PutBuffer(full[:0])
	b.Data = nil
}

// Word returns the byte slice for word offset n. Callers must have already
// allocated through n.
func (b *Builder) Word(n word.Size) []byte {
	return b.Data[n*8 : n*8+8]
}

// Words returns the byte slice spanning [from, to) words.
func (b *Builder) Words(from, to word.Size) []byte {
	return b.Data[from*8 : to*8]
}

// AsReader returns an immutable Reader view of this builder's current contents, with
// no traversal limiter.
func (b *Builder) AsReader() *Reader {
	return &Reader{ID: b.ID, Data: b.Data, Limiter: nil}
}
