package mapping

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/meigma/mapresolve/internal/errs"
)

// ArchiveEntry is the archive entry holding the joined intermediate table.
const ArchiveEntry = "config/joined.tsrg"

// OpenArchive reads the intermediate table from the archive at path.
// A missing entry or unreadable archive yields *errs.FormatError.
func OpenArchive(path string) (*Intermediate, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &errs.FormatError{Source: path, Err: err}
	}
	defer zr.Close()

	return readArchive(&zr.Reader, path)
}

// ReadArchive reads the intermediate table from an archive held in r.
func ReadArchive(r io.ReaderAt, size int64) (*Intermediate, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &errs.FormatError{Source: "intermediate archive", Err: err}
	}
	return readArchive(zr, "intermediate archive")
}

func readArchive(zr *zip.Reader, source string) (*Intermediate, error) {
	for _, f := range zr.File {
		if f.Name != ArchiveEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &errs.FormatError{Source: source, Err: fmt.Errorf("open %s: %w", ArchiveEntry, err)}
		}
		defer rc.Close()
		return ParseIntermediate(rc)
	}
	return nil, errs.Formatf(source, "entry %q not found", ArchiveEntry)
}
