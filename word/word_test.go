package word_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentwire/segmentwire/word"
)

func TestByteCountWords(t *testing.T) {
	assert.Equal(t, word.Size(0), word.ByteCount(0).Words())
	assert.Equal(t, word.Size(1), word.ByteCount(1).Words())
	assert.Equal(t, word.Size(1), word.ByteCount(8).Words())
	assert.Equal(t, word.Size(2), word.ByteCount(9).Words())
}

func TestBitCountWords(t *testing.T) {
	assert.Equal(t, word.Size(1), word.BitCount(1).Words())
	assert.Equal(t, word.Size(1), word.BitCount(64).Words())
	assert.Equal(t, word.Size(2), word.BitCount(65).Words())
}

func TestObjectSizeMaxAndFitsIn(t *testing.T) {
	a := word.ObjectSize{Data: 1, Pointers: 2}
	b := word.ObjectSize{Data: 3, Pointers: 1}
	m := a.Max(b)
	assert.Equal(t, word.ObjectSize{Data: 3, Pointers: 2}, m)

	assert.True(t, m.FitsIn(a))
	assert.True(t, m.FitsIn(b))
	assert.False(t, a.FitsIn(b))
}

func TestObjectSizeTotal(t *testing.T) {
	assert.Equal(t, word.Size(5), word.ObjectSize{Data: 2, Pointers: 3}.Total())
}
