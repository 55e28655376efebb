// Package verify computes content digests and gates re-downloads on them.
//
// Upstream descriptors publish bare hex SHA-1 digests; expectations may also
// be given in the algorithm:hex form understood by go-digest.
package verify

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // the upstream manifest publishes SHA-1
	_ "crypto/sha256" // registers sha256 for go-digest
	_ "crypto/sha512" // registers sha384 and sha512 for go-digest
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"strings"

	digest "github.com/opencontainers/go-digest"

	"github.com/meigma/mapresolve/internal/errs"
	"github.com/meigma/mapresolve/internal/fileops"
)

// Verifier hashes files and compares them against expected digests.
// It is safe for concurrent use.
type Verifier struct {
	newHash func() hash.Hash
	name    string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHash sets the hash used for bare hex expectations. Defaults to SHA-1.
func WithHash(name string, newHash func() hash.Hash) Option {
	return func(v *Verifier) {
		v.name = name
		v.newHash = newHash
	}
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{name: "sha1", newHash: sha1.New}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Algorithm returns the name of the default hash.
func (v *Verifier) Algorithm() string {
	return v.name
}

// NewHash returns a fresh instance of the default hash.
func (v *Verifier) NewHash() hash.Hash {
	return v.newHash()
}

// Digest returns the raw digest of the file at path using the default hash.
func (v *Verifier) Digest(path string) ([]byte, error) {
	return digestFile(path, v.newHash())
}

// DecodeHex decodes a hex digest string.
// Odd-length input or a non-hex character yields *errs.FormatError.
func DecodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errs.Formatf("hex digest", "odd length %d", len(s))
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, &errs.FormatError{Source: "hex digest", Err: err}
	}
	return out, nil
}

// Matches reports whether the file at path has the expected digest.
// A missing file is reported as false with no error.
func (v *Verifier) Matches(path, expected string) (bool, error) {
	want, h, err := v.expectation(expected)
	if err != nil {
		return false, err
	}
	got, err := digestFile(path, h)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(got, want), nil
}

// Verify returns *errs.IntegrityError when the file at path does not have
// the expected digest.
func (v *Verifier) Verify(path, expected string) error {
	want, h, err := v.expectation(expected)
	if err != nil {
		return err
	}
	got, err := digestFile(path, h)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return &errs.IntegrityError{
			Path:     path,
			Expected: hex.EncodeToString(want),
			Actual:   hex.EncodeToString(got),
		}
	}
	return nil
}

// Equal reports whether a raw digest produced by NewHash matches expected.
func (v *Verifier) Equal(sum []byte, expected string) (bool, error) {
	want, _, err := v.expectation(expected)
	if err != nil {
		return false, err
	}
	return bytes.Equal(sum, want), nil
}

// expectation decodes expected and picks the hash that produces comparable bytes.
func (v *Verifier) expectation(expected string) ([]byte, hash.Hash, error) {
	if !strings.Contains(expected, ":") {
		want, err := DecodeHex(expected)
		if err != nil {
			return nil, nil, err
		}
		return want, v.newHash(), nil
	}

	parsed, err := digest.Parse(expected)
	if err != nil {
		return nil, nil, &errs.FormatError{Source: "digest " + expected, Err: err}
	}
	algo := parsed.Algorithm()
	if !algo.Available() {
		return nil, nil, errs.Formatf("digest "+expected, "algorithm %q unavailable", algo)
	}
	want, err := DecodeHex(parsed.Encoded())
	if err != nil {
		return nil, nil, err
	}
	return want, algo.Hash(), nil
}

func digestFile(path string, h hash.Hash) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the cache store
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sum, err := fileops.HashStream(f, h)
	if err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}
