package mapresolve

import "github.com/meigma/mapresolve/internal/errs"

// Errors re-exported from the pipeline stages.
var (
	// ErrTransport is returned when an upstream request fails or answers with a non-2xx status.
	ErrTransport = errs.ErrTransport

	// ErrFormat is returned when upstream or cached content cannot be parsed.
	ErrFormat = errs.ErrFormat

	// ErrUnknownVersion is returned when the version manifest does not list the runtime version.
	ErrUnknownVersion = errs.ErrUnknownVersion

	// ErrIntegrity is returned when downloaded content does not match its expected digest.
	ErrIntegrity = errs.ErrIntegrity
)

// Typed errors re-exported from the pipeline stages.
type (
	// TransportError describes a failed upstream request.
	TransportError = errs.TransportError

	// FormatError describes content that could not be parsed.
	FormatError = errs.FormatError

	// UnknownVersionError is returned when the runtime version is missing from the manifest.
	UnknownVersionError = errs.UnknownVersionError

	// IntegrityError is returned when a download does not match its expected digest.
	IntegrityError = errs.IntegrityError
)
