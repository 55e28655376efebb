// Package http fetches upstream mapping content over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/meigma/mapresolve/internal/errs"
)

// Fetcher performs GET requests and returns the decoded response body.
// It keeps no cache of its own and never retries.
type Fetcher struct {
	client  *nethttp.Client
	headers nethttp.Header
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client used for requests.
// Connect and read timeouts come from this client.
func WithClient(client *nethttp.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(f *Fetcher) {
		if headers == nil {
			return
		}
		f.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		if f.headers == nil {
			f.headers = make(nethttp.Header)
		}
		f.headers.Set(key, value)
	}
}

// WithUserAgent sets the User-Agent header on each request.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{client: nethttp.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = nethttp.DefaultClient
	}
	return f
}

// Fetch issues a GET for url and returns the response body.
//
// A body declared as gzip content-encoding is decoded transparently.
// Non-2xx responses and transport failures are returned as *errs.TransportError.
// The caller must close the returned reader.
func (f *Fetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := f.newRequest(ctx, url)
	if err != nil {
		return nil, &errs.TransportError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.TransportError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &errs.TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}

	if !isGzip(resp) {
		return resp.Body, nil
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, &errs.TransportError{URL: url, Err: fmt.Errorf("open gzip body: %w", err)}
	}
	return &gzipReadCloser{zr: zr, body: resp.Body}, nil
}

// FetchBytes fetches url and reads the whole body.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	rc, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &errs.TransportError{URL: url, Err: err}
	}
	return data, nil
}

func (f *Fetcher) newRequest(ctx context.Context, url string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range f.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	// Setting Accept-Encoding ourselves disables the transport's implicit
	// decoding, so the gzip path below is the only decoder.
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip")
	}
	return req, nil
}

func isGzip(resp *nethttp.Response) bool {
	for _, enc := range strings.Split(resp.Header.Get("Content-Encoding"), ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type gzipReadCloser struct {
	zr   *gzip.Reader
	body io.ReadCloser
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	_, _ = io.Copy(io.Discard, g.body)
	berr := g.body.Close()
	return errors.Join(zerr, berr)
}
