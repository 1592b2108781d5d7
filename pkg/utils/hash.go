package utils

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
)

// HashContent computes a digest over a sequence of byte parts. Each part is
// length-prefixed so ("ab","c") and ("a","bc") hash differently. Used as
// the memoization key over the uploaded files' names and bytes.
func HashContent(parts ...[]byte) string {
	h := md5.New()
	var lenBuf [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
