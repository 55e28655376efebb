package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/mapresolve/internal/errs"
)

const (
	// DefaultManifestURL is the upstream version manifest.
	DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

	// DefaultArchiveURLTemplate locates the intermediate mapping archive for
	// a runtime version and build identifier.
	DefaultArchiveURLTemplate = "https://maven.minecraftforge.net/de/oceanlabs/mcp/mcp_config/{version}-{build}/mcp_config-{version}-{build}.zip"
)

// Fetcher retrieves upstream content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Resolver locates the running version in the upstream manifest and
// resolves its descriptor.
type Resolver struct {
	fetcher     Fetcher
	manifestURL string
	version     string
	dist        Distribution
	logger      *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithManifestURL overrides the version manifest endpoint.
func WithManifestURL(url string) ResolverOption {
	return func(r *Resolver) {
		if url != "" {
			r.manifestURL = url
		}
	}
}

// WithLogger sets the logger for resolver operations.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver for one runtime version and distribution.
func NewResolver(f Fetcher, version string, dist Distribution, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher:     f,
		manifestURL: DefaultManifestURL,
		version:     version,
		dist:        dist,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Distribution returns the distribution the resolver selects.
func (r *Resolver) Distribution() Distribution {
	return r.dist
}

// FetchManifest downloads and parses the version manifest.
func (r *Resolver) FetchManifest(ctx context.Context) (*Manifest, error) {
	r.log().Debug("fetching version manifest", "url", r.manifestURL)
	data, err := r.fetch(ctx, r.manifestURL)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	r.log().Debug("parsed version manifest", "versions", len(m.Versions))
	return m, nil
}

// Locate returns the manifest entry for the running version.
func (r *Resolver) Locate(ctx context.Context) (Version, error) {
	m, err := r.FetchManifest(ctx)
	if err != nil {
		return Version{}, err
	}
	v, ok := m.Find(r.version)
	if !ok {
		return Version{}, &errs.UnknownVersionError{Version: r.version}
	}
	return v, nil
}

// ResolveDescriptor locates the running version and downloads its descriptor.
func (r *Resolver) ResolveDescriptor(ctx context.Context) (*Descriptor, error) {
	v, err := r.Locate(ctx)
	if err != nil {
		return nil, err
	}
	data, err := r.fetch(ctx, v.URL)
	if err != nil {
		return nil, err
	}
	d, err := ParseDescriptor(data, r.dist)
	if err != nil {
		return nil, err
	}
	if d.ID != r.version {
		return nil, errs.Formatf("descriptor", "id %q does not match runtime version %q", d.ID, r.version)
	}
	return d, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	rc, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &errs.TransportError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}
