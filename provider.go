package mapresolve

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/meigma/mapresolve/cache"
	"github.com/meigma/mapresolve/cache/disk"
	maphttp "github.com/meigma/mapresolve/http"
	"github.com/meigma/mapresolve/internal/errs"
	"github.com/meigma/mapresolve/internal/fileops"
	"github.com/meigma/mapresolve/manifest"
	"github.com/meigma/mapresolve/mapping"
	"github.com/meigma/mapresolve/verify"
)

// Environment holds the host-supplied inputs of a pipeline run.
type Environment struct {
	// RuntimeVersion is the exact release of the host binary. It selects the
	// manifest entry and the cache directory.
	RuntimeVersion string

	// Build is the secondary build identifier used in the archive URL.
	Build string

	// Distribution selects client or server mappings. Defaults to client.
	Distribution manifest.Distribution

	// DataRoot is the directory holding per-version cache directories.
	// Not required when a custom store is supplied with WithStore.
	DataRoot string
}

// Fetcher retrieves upstream content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Provider runs the mapping pipeline once and publishes its outcome.
// It is safe for concurrent use.
type Provider struct {
	env             Environment
	fetcher         Fetcher
	httpOpts        []maphttp.Option
	store           cache.Store
	verifier        *verify.Verifier
	resolver        *manifest.Resolver
	manifestURL     string
	archiveTemplate string
	logger          *slog.Logger

	mu      sync.Mutex
	started bool
	state   atomic.Int32
	outcome *Outcome
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Provider) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// New creates a Provider for env. Nothing is fetched until Start.
func New(env Environment, opts ...Option) (*Provider, error) {
	if env.RuntimeVersion == "" {
		return nil, errors.New("runtime version is empty")
	}
	if env.Distribution == "" {
		env.Distribution = manifest.Client
	}
	if env.Distribution != manifest.Client && env.Distribution != manifest.Server {
		return nil, fmt.Errorf("unknown distribution %q", env.Distribution)
	}

	p := &Provider{
		env:             env,
		manifestURL:     manifest.DefaultManifestURL,
		archiveTemplate: manifest.DefaultArchiveURLTemplate,
		outcome:         newOutcome(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.verifier == nil {
		p.verifier = verify.New()
	}
	if p.fetcher == nil {
		p.fetcher = maphttp.NewFetcher(p.httpOpts...)
	}
	if p.store == nil {
		if env.DataRoot == "" {
			return nil, errors.New("data root is empty")
		}
		store, err := disk.New(env.DataRoot, env.RuntimeVersion, disk.WithVerifier(p.verifier))
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		p.store = store
	}
	p.resolver = manifest.NewResolver(p.fetcher, env.RuntimeVersion, env.Distribution,
		manifest.WithManifestURL(p.manifestURL),
		manifest.WithLogger(p.logger),
	)
	return p, nil
}

// Environment returns the inputs the provider was built with.
func (p *Provider) Environment() Environment {
	return p.env
}

// State returns the current pipeline state.
func (p *Provider) State() State {
	return State(p.state.Load())
}

// Outcome returns the provider's outcome. It is never published unless
// Start has been called.
func (p *Provider) Outcome() *Outcome {
	return p.outcome
}

// Start launches the pipeline on a background goroutine and returns its
// outcome. Only the first call does any work; later calls return the same
// Outcome. Failures are published, never returned here.
func (p *Provider) Start() *Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return p.outcome
	}
	p.started = true
	go p.run()
	return p.outcome
}

// Table starts the pipeline if needed and waits for its table.
func (p *Provider) Table(ctx context.Context) (*mapping.Table, error) {
	return p.Start().Wait(ctx)
}

func (p *Provider) run() {
	var (
		table *mapping.Table
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			table, err = nil, fmt.Errorf("mapping pipeline panicked: %v", r)
		}
		if err != nil {
			p.setState(StateFailed)
			p.log().Warn("mapping pipeline failed", "version", p.env.RuntimeVersion, "error", err)
		} else {
			p.setState(StateSucceeded)
			stats := table.Stats()
			p.log().Info("mapping table published",
				"version", p.env.RuntimeVersion,
				"classes", stats.Classes,
				"methods", stats.Methods,
				"fields", stats.Fields,
			)
		}
		p.outcome.publish(table, err)
	}()

	// The pipeline is not cancellable once started.
	table, err = p.execute(context.Background())
}

func (p *Provider) execute(ctx context.Context) (*mapping.Table, error) {
	p.setState(StateChecking)
	complete, err := p.store.IsComplete(p.env.Distribution)
	if err != nil {
		return nil, fmt.Errorf("check cache: %w", err)
	}

	if complete {
		p.log().Debug("mapping cache complete, skipping fetch", "version", p.env.RuntimeVersion)
	} else {
		p.log().Debug("mapping cache incomplete", "version", p.env.RuntimeVersion)
		p.setState(StateFetching)
		if err := p.fetchArtifacts(ctx); err != nil {
			return nil, err
		}
	}

	p.setState(StateComposing)
	table, err := mapping.Load(ctx, p.store.Path(cache.SlotOfficial), p.store.Path(cache.SlotArchive))
	if err != nil {
		return nil, fmt.Errorf("compose mappings: %w", err)
	}
	return table, nil
}

// fetchArtifacts refreshes the three artifacts strictly in order.
func (p *Provider) fetchArtifacts(ctx context.Context) error {
	entry, err := p.resolver.Locate(ctx)
	if err != nil {
		return fmt.Errorf("resolve manifest: %w", err)
	}
	if err := p.refresh(ctx, cache.SlotDescriptor, entry.URL, entry.SHA1); err != nil {
		return err
	}

	desc, err := p.store.Descriptor(p.env.Distribution)
	if err != nil {
		return fmt.Errorf("read cached descriptor: %w", err)
	}
	if desc.ID != p.env.RuntimeVersion {
		return errs.Formatf(p.store.Path(cache.SlotDescriptor),
			"id %q does not match runtime version %q", desc.ID, p.env.RuntimeVersion)
	}
	dl, err := desc.Mappings(p.env.Distribution)
	if err != nil {
		return err
	}
	if err := p.refresh(ctx, cache.SlotOfficial, dl.URL, dl.SHA1); err != nil {
		return err
	}

	// The archive has no upstream digest; presence is enough.
	if p.store.Has(cache.SlotArchive) {
		p.log().Debug("archive cached", "path", p.store.Path(cache.SlotArchive))
		return nil
	}
	if p.env.Build == "" {
		return errors.New("download archive: build identifier is empty")
	}
	url := manifest.ArchiveURL(p.archiveTemplate, p.env.RuntimeVersion, p.env.Build)
	return p.download(ctx, cache.SlotArchive, url, "")
}

// refresh downloads slot unless the cached artifact already matches expected.
func (p *Provider) refresh(ctx context.Context, slot cache.Slot, url, expected string) error {
	ok, err := p.verifier.Matches(p.store.Path(slot), expected)
	if err != nil {
		return fmt.Errorf("verify %s: %w", slot, err)
	}
	if ok {
		p.log().Debug("artifact cache hit", "artifact", slot.String())
		return nil
	}
	p.log().Debug("artifact cache miss", "artifact", slot.String())
	return p.download(ctx, slot, url, expected)
}

// download streams url into slot. With a non-empty expected digest the
// content is verified before it replaces the cached artifact.
func (p *Provider) download(ctx context.Context, slot cache.Slot, url, expected string) error {
	p.log().Info("downloading artifact", "artifact", slot.String(), "url", url)

	rc, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("download %s: %w", slot, err)
	}
	defer rc.Close()

	w, err := p.store.Writer(slot)
	if err != nil {
		return fmt.Errorf("cache %s: %w", slot, err)
	}

	hr := fileops.NewHashingReader(rc, p.verifier.NewHash())
	if _, err := io.Copy(w, hr); err != nil {
		_ = w.Discard()
		return fmt.Errorf("download %s: %w", slot, &errs.TransportError{URL: url, Err: err})
	}

	if expected != "" {
		match, err := p.verifier.Equal(hr.Sum(), expected)
		if err != nil {
			_ = w.Discard()
			return fmt.Errorf("verify %s: %w", slot, err)
		}
		if !match {
			_ = w.Discard()
			return &errs.IntegrityError{
				Path:     p.store.Path(slot),
				Expected: expected,
				Actual:   hex.EncodeToString(hr.Sum()),
			}
		}
	}

	if err := w.Commit(); err != nil {
		return fmt.Errorf("cache %s: %w", slot, err)
	}
	p.log().Debug("artifact cached", "artifact", slot.String(), "bytes", hr.BytesRead())
	return nil
}

func (p *Provider) setState(s State) {
	p.state.Store(int32(s))
}
