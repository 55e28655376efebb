// Package errs defines the error taxonomy shared by the mapping pipeline.
//
// Every typed error matches its sentinel through errors.Is, so callers can
// branch on the category without caring which stage produced the failure.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline failures.
var (
	// ErrTransport is returned when an upstream request fails or answers with a non-2xx status.
	ErrTransport = errors.New("mapresolve: transport failure")

	// ErrFormat is returned when upstream or cached content cannot be parsed.
	ErrFormat = errors.New("mapresolve: malformed content")

	// ErrUnknownVersion is returned when the version manifest does not list the runtime version.
	ErrUnknownVersion = errors.New("mapresolve: unknown runtime version")

	// ErrIntegrity is returned when downloaded content does not match its expected digest.
	ErrIntegrity = errors.New("mapresolve: digest mismatch")
)

// TransportError describes a failed upstream request.
type TransportError struct {
	URL        string
	StatusCode int // zero when no response was received
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %s", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// FormatError describes content that could not be parsed.
type FormatError struct {
	// Source names what was being parsed (a file path, URL or field).
	Source string
	Err    error
}

// Formatf builds a FormatError with a formatted cause.
func Formatf(source, format string, args ...any) *FormatError {
	return &FormatError{Source: source, Err: fmt.Errorf(format, args...)}
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed content: %v", e.Err)
	}
	return fmt.Sprintf("malformed %s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// UnknownVersionError is returned when a runtime version is missing from the manifest.
type UnknownVersionError struct {
	Version string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("runtime version %q not present in version manifest", e.Version)
}

// Is reports whether target is ErrUnknownVersion.
func (e *UnknownVersionError) Is(target error) bool { return target == ErrUnknownVersion }

// IntegrityError is a FormatError specialization for digest mismatches
// detected after a download.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: digest mismatch: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// Is reports whether target is ErrIntegrity or ErrFormat.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity || target == ErrFormat
}
