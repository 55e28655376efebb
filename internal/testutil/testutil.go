// Package testutil provides upstream fakes and fixture builders for tests.
package testutil

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // matches the upstream digest algorithm
	"encoding/hex"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/mapresolve/internal/errs"
)

// MockFetcher serves in-memory bodies keyed by URL and counts requests.
// It is safe for concurrent use.
type MockFetcher struct {
	mu     sync.RWMutex
	bodies map[string][]byte
	hits   map[string]int
}

// NewMockFetcher returns a fetcher serving the given URL to body pairs.
func NewMockFetcher(bodies map[string]string) *MockFetcher {
	f := &MockFetcher{
		bodies: make(map[string][]byte, len(bodies)),
		hits:   make(map[string]int),
	}
	for url, body := range bodies {
		f.bodies[url] = []byte(body)
	}
	return f
}

// Fetch returns the body for url, or a 404 TransportError if none is set.
func (f *MockFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.hits[url]++
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if !ok {
		return nil, &errs.TransportError{
			URL:        url,
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
		}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// Set replaces the body served for url.
func (f *MockFetcher) Set(url string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = body
}

// Remove makes url answer with 404.
func (f *MockFetcher) Remove(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bodies, url)
}

// Hits returns how many times url was fetched.
func (f *MockFetcher) Hits(url string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hits[url]
}

// Total returns the number of fetches across all URLs.
func (f *MockFetcher) Total() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

// SHA1Hex returns the lowercase hex SHA-1 of data.
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // matches the upstream digest algorithm
	return hex.EncodeToString(sum[:])
}

// ZipArchive builds a zip archive holding the given entries.
func ZipArchive(tb testing.TB, entries map[string]string) []byte {
	tb.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			tb.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
