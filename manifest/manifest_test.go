package manifest

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	maphttp "github.com/meigma/mapresolve/http"
	"github.com/meigma/mapresolve/internal/errs"
	"github.com/meigma/mapresolve/internal/testutil"
)

const (
	descSHA1   = "1111111111111111111111111111111111111111"
	clientSHA1 = "2222222222222222222222222222222222222222"
	serverSHA1 = "3333333333333333333333333333333333333333"
)

func manifestJSON(url string) string {
	return `{"latest":{"release":"1.20.1","snapshot":"23w31a"},"versions":[
		{"id":"1.20.1","type":"release","url":"` + url + `","sha1":"` + descSHA1 + `"},
		{"id":"1.19.4","type":"release","url":"https://example.invalid/old.json","sha1":"` + descSHA1 + `"}
	]}`
}

func descriptorJSON(id string) string {
	return `{"id":"` + id + `","type":"release","downloads":{
		"client":{"url":"https://example.invalid/client.jar","sha1":"` + clientSHA1 + `","size":10},
		"client_mappings":{"url":"https://example.invalid/client.txt","sha1":"` + clientSHA1 + `","size":5},
		"server_mappings":{"url":"https://example.invalid/server.txt","sha1":"` + serverSHA1 + `","size":6}
	}}`
}

func TestParseDistribution(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Distribution{"": Client, "client": Client, "SERVER": Server} {
		got, err := ParseDistribution(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseDistribution("both")
	assert.Error(t, err)
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest([]byte(manifestJSON("https://example.invalid/1.20.1.json")))
	require.NoError(t, err)
	require.Len(t, m.Versions, 2)
	assert.Equal(t, "1.20.1", m.Latest.Release)

	v, ok := m.Find("1.20.1")
	require.True(t, ok)
	assert.Equal(t, descSHA1, v.SHA1)

	_, ok = m.Find("0.0.1")
	assert.False(t, ok)
}

func TestParseManifestInvalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":      `{"versions":`,
		"no versions":   `{"latest":{}}`,
		"missing id":    `{"versions":[{"url":"u","sha1":"` + descSHA1 + `"}]}`,
		"missing url":   `{"versions":[{"id":"1","sha1":"` + descSHA1 + `"}]}`,
		"bad sha1":      `{"versions":[{"id":"1","url":"u","sha1":"abc"}]}`,
		"wrong type id": `{"versions":[{"id":5,"url":"u","sha1":"` + descSHA1 + `"}]}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseManifest([]byte(input))
			assert.ErrorIs(t, err, errs.ErrFormat)
		})
	}
}

func TestParseDescriptorSelectsDistribution(t *testing.T) {
	t.Parallel()

	data := []byte(descriptorJSON("1.20.1"))

	d, err := ParseDescriptor(data, Client)
	require.NoError(t, err)
	dl, err := d.Mappings(Client)
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/client.txt", dl.URL)
	assert.Equal(t, clientSHA1, dl.SHA1)

	dl, err = d.Mappings(Server)
	require.NoError(t, err)
	assert.Equal(t, "https://example.invalid/server.txt", dl.URL)
	assert.Equal(t, serverSHA1, dl.SHA1)
}

func TestParseDescriptorMissingBranch(t *testing.T) {
	t.Parallel()

	data := []byte(`{"id":"1.20.1","downloads":{"client_mappings":{"url":"u","sha1":"` + clientSHA1 + `"}}}`)

	_, err := ParseDescriptor(data, Client)
	require.NoError(t, err)

	_, err = ParseDescriptor(data, Server)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrFormat)
	assert.Contains(t, err.Error(), "server_mappings")
}

func TestParseDescriptorInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		`[]`,
		`{"downloads":{}}`,
		`{"id":"1","downloads":{"client_mappings":{"url":"","sha1":"` + clientSHA1 + `"}}}`,
		`{"id":"1","downloads":{"client_mappings":{"url":"u","sha1":"zz"}}}`,
	} {
		_, err := ParseDescriptor([]byte(input), Client)
		assert.ErrorIs(t, err, errs.ErrFormat, input)
	}
}

func TestArchiveURL(t *testing.T) {
	t.Parallel()

	got := ArchiveURL(DefaultArchiveURLTemplate, "1.20.1", "20230612.114412")
	assert.Equal(t,
		"https://maven.minecraftforge.net/de/oceanlabs/mcp/mcp_config/1.20.1-20230612.114412/mcp_config-1.20.1-20230612.114412.zip",
		got)
}

func TestLocateUnknownVersion(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher(map[string]string{"https://meta.invalid/manifest.json": manifestJSON("https://meta.invalid/1.20.1.json")})
	r := NewResolver(f, "9.9.9", Client, WithManifestURL("https://meta.invalid/manifest.json"))

	_, err := r.Locate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnknownVersion)

	var uve *errs.UnknownVersionError
	require.ErrorAs(t, err, &uve)
	assert.Equal(t, "9.9.9", uve.Version)
}

func TestResolveDescriptorPropagatesTransport(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher(map[string]string{"https://meta.invalid/manifest.json": manifestJSON("https://meta.invalid/missing.json")})
	r := NewResolver(f, "1.20.1", Client, WithManifestURL("https://meta.invalid/manifest.json"))

	_, err := r.ResolveDescriptor(context.Background())
	assert.ErrorIs(t, err, errs.ErrTransport)
	assert.Equal(t, 1, f.Hits("https://meta.invalid/missing.json"))
}

func TestResolveDescriptorIDMismatch(t *testing.T) {
	t.Parallel()

	f := testutil.NewMockFetcher(map[string]string{
		"https://meta.invalid/manifest.json": manifestJSON("https://meta.invalid/1.20.1.json"),
		"https://meta.invalid/1.20.1.json":   descriptorJSON("1.19.4"),
	})
	r := NewResolver(f, "1.20.1", Client, WithManifestURL("https://meta.invalid/manifest.json"))

	_, err := r.ResolveDescriptor(context.Background())
	assert.ErrorIs(t, err, errs.ErrFormat)
}

func TestResolveDescriptorOverHTTP(t *testing.T) {
	t.Parallel()

	mux := nethttp.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/manifest.json", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.Copy(w, strings.NewReader(manifestJSON(server.URL+"/1.20.1.json")))
	})
	mux.HandleFunc("/1.20.1.json", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		_, _ = io.Copy(w, strings.NewReader(descriptorJSON("1.20.1")))
	})

	r := NewResolver(maphttp.NewFetcher(), "1.20.1", Server, WithManifestURL(server.URL+"/manifest.json"))
	assert.Equal(t, Server, r.Distribution())

	d, err := r.ResolveDescriptor(context.Background())
	require.NoError(t, err)
	dl, err := d.Mappings(r.Distribution())
	require.NoError(t, err)
	assert.Equal(t, serverSHA1, dl.SHA1)
}
