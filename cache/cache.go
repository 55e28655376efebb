// Package cache defines the version-scoped artifact slots used by the
// mapping pipeline.
//
// Each runtime version owns one directory holding three artifacts: the
// descriptor snapshot, the official symbol table and the intermediate
// mapping archive. Artifacts are written through a [Writer] and only become
// visible once committed, so a partially written file is never read back as
// a valid artifact.
package cache

import (
	"io"

	"github.com/meigma/mapresolve/manifest"
)

// Slot identifies one cached artifact.
type Slot int

const (
	// SlotDescriptor holds the per-version descriptor (version.json).
	SlotDescriptor Slot = iota
	// SlotOfficial holds the official symbol table (official.txt).
	SlotOfficial
	// SlotArchive holds the intermediate mapping archive (srg.zip).
	SlotArchive
)

// Slots lists every slot in pipeline order.
func Slots() []Slot {
	return []Slot{SlotDescriptor, SlotOfficial, SlotArchive}
}

// FileName returns the on-disk name of the slot's artifact.
func (s Slot) FileName() string {
	switch s {
	case SlotDescriptor:
		return "version.json"
	case SlotOfficial:
		return "official.txt"
	case SlotArchive:
		return "srg.zip"
	default:
		return ""
	}
}

func (s Slot) String() string {
	switch s {
	case SlotDescriptor:
		return "descriptor"
	case SlotOfficial:
		return "official"
	case SlotArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Store is a version-scoped artifact cache.
//
// Implementations must not treat an uncommitted write as present.
type Store interface {
	// Path returns the filesystem path of the slot's artifact.
	Path(slot Slot) string

	// Has reports whether the slot's artifact exists.
	Has(slot Slot) bool

	// Writer returns a Writer that replaces the slot's artifact on Commit.
	Writer(slot Slot) (Writer, error)

	// Descriptor parses the cached descriptor for dist.
	Descriptor(dist manifest.Distribution) (*manifest.Descriptor, error)

	// IsComplete reports whether every artifact is present and the official
	// table still matches the digest the cached descriptor declares.
	IsComplete(dist manifest.Distribution) (bool, error)
}

// Writer streams content into a slot.
//
// Content is written via Write calls. After all content is written:
//   - Call Commit if the content digest was verified successfully
//   - Call Discard if verification failed or an error occurred
type Writer interface {
	io.Writer

	// Commit atomically replaces the slot's artifact with the written content.
	Commit() error

	// Discard aborts the write and removes temporary data.
	Discard() error
}
