package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mapresolve/manifest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "mapresolve.yaml", `
data_root: /var/cache/mapresolve
runtime_version: "1.20.1"
build: "20230612.114412"
distribution: server
manifest_url: https://example.invalid/manifest.json
user_agent: host/1.0
http_timeout: 45s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/var/cache/mapresolve", cfg.DataRoot)
	assert.Equal(t, "1.20.1", cfg.RuntimeVersion)
	assert.Equal(t, "20230612.114412", cfg.Build)
	assert.Equal(t, "https://example.invalid/manifest.json", cfg.ManifestURL)
	assert.Equal(t, "host/1.0", cfg.UserAgent)
	assert.Equal(t, Duration(45*time.Second), cfg.HTTPTimeout)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, manifest.Server, env.Distribution)
	assert.Equal(t, "1.20.1", env.RuntimeVersion)
	assert.Len(t, cfg.Options(), 3)
}

func TestLoadJSONC(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "mapresolve.jsonc", `{
	// cache location
	"data_root": "/tmp/maps",
	"runtime_version": "1.20.1",
	/* archive override */
	"archive_url_template": "https://mirror.invalid/{version}-{build}.zip",
	"http_timeout": "2m",
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/tmp/maps", cfg.DataRoot)
	assert.Equal(t, "https://mirror.invalid/{version}-{build}.zip", cfg.ArchiveURLTemplate)
	assert.Equal(t, Duration(2*time.Minute), cfg.HTTPTimeout)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, manifest.Client, env.Distribution)
}

func TestParseUnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("data_root = 'x'"), ".toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestParseInvalidDuration(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("http_timeout: soon\n"), ".yml")
	assert.Error(t, err)

	_, err = Parse([]byte(`{"http_timeout": "soon"}`), ".json")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name:    "empty",
			cfg:     Config{},
			wantErr: []string{"runtime_version is required", "data_root is required"},
		},
		{
			name:    "bad distribution",
			cfg:     Config{RuntimeVersion: "1", DataRoot: "x", Distribution: "desktop"},
			wantErr: []string{"unknown distribution"},
		},
		{
			name:    "bad template",
			cfg:     Config{RuntimeVersion: "1", DataRoot: "x", ArchiveURLTemplate: "https://x/a.zip"},
			wantErr: []string{"{version}"},
		},
		{
			name:    "negative timeout",
			cfg:     Config{RuntimeVersion: "1", DataRoot: "x", HTTPTimeout: Duration(-time.Second)},
			wantErr: []string{"http_timeout"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	cfg := Config{RuntimeVersion: "1.20.1", DataRoot: t.TempDir(), HTTPTimeout: Duration(time.Second)}
	p, err := cfg.NewProvider()
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", p.Environment().RuntimeVersion)

	_, err = (&Config{}).NewProvider()
	assert.Error(t, err)
}
