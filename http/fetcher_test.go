package http_test

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	maphttp "github.com/meigma/mapresolve/http"
	"github.com/meigma/mapresolve/internal/errs"
)

func TestFetchPlain(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	t.Cleanup(server.Close)

	got, err := maphttp.NewFetcher().FetchBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestFetchGzipBody(t *testing.T) {
	t.Parallel()

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte("compressed mappings"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	acceptEncoding := make(chan string, 1)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		acceptEncoding <- r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressed.Bytes())
	}))
	t.Cleanup(server.Close)

	rc, err := maphttp.NewFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "compressed mappings", string(got))
	assert.Equal(t, "gzip", <-acceptEncoding)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "gone", nethttp.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := maphttp.NewFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTransport)

	var te *errs.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, nethttp.StatusNotFound, te.StatusCode)
	assert.Equal(t, server.URL, te.URL)
}

func TestFetchConnectionFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := maphttp.NewFetcher().Fetch(context.Background(), url)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTransport)
}

func TestFetchHeaders(t *testing.T) {
	t.Parallel()

	headers := make(chan nethttp.Header, 1)
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		headers <- r.Header.Clone()
	}))
	t.Cleanup(server.Close)

	f := maphttp.NewFetcher(
		maphttp.WithHeaders(nethttp.Header{"X-Trace": []string{"abc"}}),
		maphttp.WithUserAgent("mapresolve-test/1"),
		maphttp.WithClient(server.Client()),
	)
	_, err := f.FetchBytes(context.Background(), server.URL)
	require.NoError(t, err)

	got := <-headers
	assert.Equal(t, "abc", got.Get("X-Trace"))
	assert.Equal(t, "mapresolve-test/1", got.Get("User-Agent"))
}
