package segment

import (
	"math/bits"
	"sync"
)

// bufferPool buckets byte slices by their power-of-two capacity, the same scheme
// gram.Buffer used for its sync.Pool of reusable wire buffers. Builder segments draw
// their storage from here (NewBuilder) and return it on Release, so reused message
// builders avoid allocating fresh arrays on every message.
var bufferPool [32]sync.Pool

func init() {
	for i := range bufferPool {
		size := 1 << uint(i)
		bufferPool[i].New = func() interface{} {
			return make([]byte, 0, size)
		}
	}
}

// GetBuffer returns a zero-length buffer with capacity at least n, drawn from the pool.
func GetBuffer(n int) []byte {
	if n <= 0 {
		n = 1
	}
	i := bits.Len(uint(n - 1))
	return bufferPool[i].Get().([]byte)[:0]
}

// PutBuffer returns buff to the pool bucket matching its capacity. Buffers with an
// odd (non power-of-two) capacity are dropped rather than pooled under the wrong bucket.
func PutBuffer(buff []byte) {
	c := cap(buff)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	i := bits.Len(uint(c - 1))
	bufferPool[i].Put(buff) //nolint:staticcheck // capacity, not length, is what matters to the pool
}
