package manifest

import (
	"fmt"
	"strings"

	"github.com/meigma/mapresolve/internal/errs"
)

// Distribution selects which binary's mappings are used.
type Distribution string

const (
	// Client selects the client binary mappings.
	Client Distribution = "client"
	// Server selects the dedicated server binary mappings.
	Server Distribution = "server"
)

// ParseDistribution parses "client" or "server" (case-insensitive).
// An empty string yields Client.
func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Client):
		return Client, nil
	case string(Server):
		return Server, nil
	default:
		return "", fmt.Errorf("unknown distribution %q (want client or server)", s)
	}
}

// Manifest is the upstream list of known runtime versions.
type Manifest struct {
	Latest   Latest    `json:"latest"`
	Versions []Version `json:"versions"`
}

// Latest names the newest release and snapshot.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// Version is one manifest entry.
type Version struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	SHA1        string `json:"sha1"`
	Time        string `json:"time,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
}

// Find returns the entry for id.
func (m *Manifest) Find(id string) (Version, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

// Download is a single downloadable file in a descriptor.
type Download struct {
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
}

// Downloads lists the files a descriptor publishes.
type Downloads struct {
	Client         *Download `json:"client,omitempty"`
	ClientMappings *Download `json:"client_mappings,omitempty"`
	Server         *Download `json:"server,omitempty"`
	ServerMappings *Download `json:"server_mappings,omitempty"`
}

// Descriptor is the per-version document cached as version.json.
type Descriptor struct {
	ID        string    `json:"id"`
	Type      string    `json:"type,omitempty"`
	Downloads Downloads `json:"downloads"`
}

// Mappings returns the official mappings download for dist.
func (d *Descriptor) Mappings(dist Distribution) (Download, error) {
	var dl *Download
	field := "downloads.client_mappings"
	switch dist {
	case Client:
		dl = d.Downloads.ClientMappings
	case Server:
		dl = d.Downloads.ServerMappings
		field = "downloads.server_mappings"
	default:
		return Download{}, errs.Formatf("descriptor", "unknown distribution %q", dist)
	}
	if dl == nil {
		return Download{}, errs.Formatf("descriptor", "missing %s", field)
	}
	if dl.URL == "" {
		return Download{}, errs.Formatf("descriptor", "%s.url is empty", field)
	}
	if !isSHA1(dl.SHA1) {
		return Download{}, errs.Formatf("descriptor", "%s.sha1 %q is not a SHA-1 digest", field, dl.SHA1)
	}
	return *dl, nil
}

func isSHA1(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}
