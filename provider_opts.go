package mapresolve

import (
	"errors"
	"log/slog"
	nethttp "net/http"
	"strings"

	"github.com/meigma/mapresolve/cache"
	maphttp "github.com/meigma/mapresolve/http"
	"github.com/meigma/mapresolve/verify"
)

// Option configures a Provider.
type Option func(*Provider) error

// --- Logging Options ---

// WithLogger sets the logger for pipeline operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) error {
		p.logger = logger
		return nil
	}
}

// --- Transport Options ---

// WithFetcher sets a custom upstream fetcher.
// When set, WithHTTPClient and WithUserAgent are ignored.
func WithFetcher(f Fetcher) Option {
	return func(p *Provider) error {
		if f == nil {
			return errors.New("fetcher is nil")
		}
		p.fetcher = f
		return nil
	}
}

// WithHTTPClient sets the HTTP client of the default fetcher.
// Timeouts of the pipeline come from this client.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(p *Provider) error {
		p.httpOpts = append(p.httpOpts, maphttp.WithClient(client))
		return nil
	}
}

// WithUserAgent sets the User-Agent header of the default fetcher.
func WithUserAgent(ua string) Option {
	return func(p *Provider) error {
		p.httpOpts = append(p.httpOpts, maphttp.WithUserAgent(ua))
		return nil
	}
}

// WithManifestURL overrides the version manifest endpoint.
func WithManifestURL(url string) Option {
	return func(p *Provider) error {
		if url == "" {
			return errors.New("manifest URL is empty")
		}
		p.manifestURL = url
		return nil
	}
}

// WithArchiveURLTemplate overrides the intermediate archive URL template.
// The template must contain a {version} placeholder and may contain {build}.
func WithArchiveURLTemplate(template string) Option {
	return func(p *Provider) error {
		if !strings.Contains(template, "{version}") {
			return errors.New("archive URL template must contain {version}")
		}
		p.archiveTemplate = template
		return nil
	}
}

// --- Cache Options ---

// WithStore sets the artifact store. Environment.DataRoot is ignored when set.
func WithStore(store cache.Store) Option {
	return func(p *Provider) error {
		if store == nil {
			return errors.New("store is nil")
		}
		p.store = store
		return nil
	}
}

// WithVerifier sets the digest verifier.
func WithVerifier(v *verify.Verifier) Option {
	return func(p *Provider) error {
		if v == nil {
			return errors.New("verifier is nil")
		}
		p.verifier = v
		return nil
	}
}
