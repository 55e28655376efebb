package manifest

import (
	"encoding/json"
	"strings"

	"github.com/meigma/mapresolve/internal/errs"
)

// ParseManifest decodes and validates a version manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &errs.FormatError{Source: "version manifest", Err: err}
	}
	if m.Versions == nil {
		return nil, errs.Formatf("version manifest", "missing versions list")
	}
	for i, v := range m.Versions {
		switch {
		case v.ID == "":
			return nil, errs.Formatf("version manifest", "versions[%d]: missing id", i)
		case v.URL == "":
			return nil, errs.Formatf("version manifest", "versions[%d] %s: missing url", i, v.ID)
		case !isSHA1(v.SHA1):
			return nil, errs.Formatf("version manifest", "versions[%d] %s: sha1 %q is not a SHA-1 digest", i, v.ID, v.SHA1)
		}
	}
	return &m, nil
}

// ParseDescriptor decodes a version descriptor and validates the mappings
// download for dist.
func ParseDescriptor(data []byte, dist Distribution) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, &errs.FormatError{Source: "descriptor", Err: err}
	}
	if d.ID == "" {
		return nil, errs.Formatf("descriptor", "missing id")
	}
	if _, err := d.Mappings(dist); err != nil {
		return nil, err
	}
	return &d, nil
}

// ArchiveURL expands the {version} and {build} placeholders of template.
func ArchiveURL(template, version, build string) string {
	return strings.NewReplacer("{version}", version, "{build}", build).Replace(template)
}
