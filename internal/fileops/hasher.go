// Package fileops provides streaming helpers shared by the verifier and the cache store.
package fileops

import (
	"hash"
	"io"
)

// ChunkSize is the fixed buffer size used when streaming content through a hash.
const ChunkSize = 32 * 1024

// HashingReader wraps an io.Reader and computes a hash of all data read.
type HashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

// NewHashingReader creates a reader that computes a hash while reading.
func NewHashingReader(r io.Reader, h hash.Hash) *HashingReader {
	return &HashingReader{r: r, h: h}
}

// Read implements io.Reader.
func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		_, _ = hr.h.Write(p[:n]) //nolint:errcheck // hash writes never fail
		hr.n += int64(n)
	}
	return n, err
}

// Sum returns the hash sum computed so far.
func (hr *HashingReader) Sum() []byte {
	return hr.h.Sum(nil)
}

// BytesRead returns the number of bytes read through the reader.
func (hr *HashingReader) BytesRead() int64 {
	return hr.n
}

// HashStream reads r to EOF in ChunkSize chunks and returns the digest.
func HashStream(r io.Reader, h hash.Hash) ([]byte, error) {
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
