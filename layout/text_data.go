package layout

import "github.com/segmentwire/segmentwire/word"

// textFromList converts a Byte list's contents to a string, dropping the trailing NUL
// every text value is required to carry on the wire.
func textFromList(l ListReader) string {
	n := int(l.Len())
	if n == 0 {
		return ""
	}
	b := make([]byte, n-1)
	for i := 0; i < n-1; i++ {
		b[i] = l.Uint8(word.ElementCount(i))
	}
	return string(b)
}

// bytesFromList converts a Byte list's contents to a []byte, with no NUL convention.
func bytesFromList(l ListReader) []byte {
	n := int(l.Len())
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = l.Uint8(word.ElementCount(i))
	}
	return b
}
