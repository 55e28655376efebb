// Package disk provides the filesystem-backed artifact cache.
package disk

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/mapresolve/cache"
	"github.com/meigma/mapresolve/internal/errs"
	"github.com/meigma/mapresolve/manifest"
	"github.com/meigma/mapresolve/verify"
)

const (
	defaultDirPerm = 0o700
	readmeName     = "README"
)

const readmeText = `This directory caches symbol mapping artifacts for one runtime version.

  version.json   per-version descriptor from the upstream version manifest
  official.txt   official symbol table (public <-> obfuscated names)
  srg.zip        intermediate mapping archive (obfuscated -> stable names)

Files are replaced when their digest no longer matches upstream. It is safe
to delete this directory; it is rebuilt on the next start.
`

// Store keeps the artifacts of one runtime version under <root>/<version>/.
//
// Writes go to a temporary file in the version directory and are renamed
// into place on commit. No file locking is done: one process per version
// directory is assumed.
type Store struct {
	dir      string
	version  string
	dirPerm  os.FileMode
	verifier *verify.Verifier
}

// Interface compliance.
var _ cache.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithDirPerm sets the permissions used for the version directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithVerifier sets the verifier used for digest checks.
func WithVerifier(v *verify.Verifier) Option {
	return func(s *Store) {
		s.verifier = v
	}
}

// New opens the cache for version under root, creating the directory and
// its README on first use.
func New(root, version string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, errors.New("cache root is empty")
	}
	if err := validateVersion(version); err != nil {
		return nil, err
	}
	s := &Store{
		dir:     filepath.Join(root, version),
		version: version,
		dirPerm: defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.verifier == nil {
		s.verifier = verify.New()
	}
	if err := os.MkdirAll(s.dir, s.dirPerm); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if err := s.writeReadme(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the version directory.
func (s *Store) Dir() string {
	return s.dir
}

// Version returns the runtime version the store is keyed by.
func (s *Store) Version() string {
	return s.version
}

// Path returns the filesystem path of the slot's artifact.
func (s *Store) Path(slot cache.Slot) string {
	return filepath.Join(s.dir, slot.FileName())
}

// Has reports whether the slot's artifact exists as a regular file.
func (s *Store) Has(slot cache.Slot) bool {
	info, err := os.Stat(s.Path(slot))
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the slot's artifact. Removing a missing artifact is not an error.
func (s *Store) Remove(slot cache.Slot) error {
	if err := os.Remove(s.Path(slot)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Descriptor parses the cached version.json for dist.
func (s *Store) Descriptor(dist manifest.Distribution) (*manifest.Descriptor, error) {
	data, err := os.ReadFile(s.Path(cache.SlotDescriptor))
	if err != nil {
		return nil, err
	}
	return manifest.ParseDescriptor(data, dist)
}

// IsComplete reports whether all three artifacts are present and the
// official table matches the digest the cached descriptor declares for dist.
//
// A missing or unparseable descriptor is reported as incomplete, not as an
// error. The archive is checked for presence only.
func (s *Store) IsComplete(dist manifest.Distribution) (bool, error) {
	desc, err := s.Descriptor(dist)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errs.ErrFormat) {
			return false, nil
		}
		return false, err
	}
	dl, err := desc.Mappings(dist)
	if err != nil {
		return false, nil
	}
	ok, err := s.verifier.Matches(s.Path(cache.SlotOfficial), dl.SHA1)
	if err != nil || !ok {
		return false, err
	}
	return s.Has(cache.SlotArchive), nil
}

// Writer returns a Writer for the slot.
func (s *Store) Writer(slot cache.Slot) (cache.Writer, error) {
	name := slot.FileName()
	if name == "" {
		return nil, fmt.Errorf("unknown cache slot %d", slot)
	}
	root, err := os.OpenRoot(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open cache root: %w", err)
	}
	tmp, tmpPath, err := createTemp(root, name+"-*.tmp")
	if err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("create temp cache file: %w", err)
	}
	return &writer{
		root:    root,
		tmp:     tmp,
		tmpPath: tmpPath,
		final:   name,
	}, nil
}

func (s *Store) writeReadme() error {
	path := filepath.Join(s.dir, readmeName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat readme: %w", err)
	}
	if err := os.WriteFile(path, []byte(readmeText), 0o600); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	return nil
}

type writer struct {
	root    *os.Root
	tmp     *os.File
	tmpPath string
	final   string
	done    bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, errors.New("cache writer already closed")
	}
	return w.tmp.Write(p)
}

func (w *writer) Commit() error {
	if w.done {
		return errors.New("cache writer already closed")
	}
	w.done = true
	defer w.root.Close()

	if err := w.tmp.Sync(); err != nil {
		_ = w.tmp.Close()
		_ = w.root.Remove(w.tmpPath)
		return fmt.Errorf("sync cache file: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		_ = w.root.Remove(w.tmpPath)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := w.root.Rename(w.tmpPath, w.final); err != nil {
		_ = w.root.Remove(w.tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (w *writer) Discard() error {
	if w.done {
		return nil
	}
	w.done = true
	defer w.root.Close()

	_ = w.tmp.Close()
	if err := w.root.Remove(w.tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func validateVersion(version string) error {
	switch {
	case version == "":
		return errors.New("runtime version is empty")
	case version == "." || version == "..":
		return fmt.Errorf("invalid runtime version %q", version)
	case strings.ContainsAny(version, `/\`) || strings.ContainsRune(version, 0):
		return fmt.Errorf("invalid runtime version %q: contains a path separator", version)
	}
	return nil
}

func createTemp(root *os.Root, pattern string) (*os.File, string, error) {
	for tries := 0; tries < 10000; tries++ {
		var randBytes [8]byte
		if _, err := rand.Read(randBytes[:]); err != nil {
			return nil, "", err
		}
		name := strings.Replace(pattern, "*", hex.EncodeToString(randBytes[:]), 1)
		f, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, name, nil
	}

	return nil, "", errors.New("failed to create temp file")
}
