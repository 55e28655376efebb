// Package config loads pipeline settings from a YAML or JSONC file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/meigma/mapresolve"
	"github.com/meigma/mapresolve/manifest"
)

// Config holds the settings of one pipeline run.
type Config struct {
	DataRoot           string   `yaml:"data_root" json:"data_root"`
	RuntimeVersion     string   `yaml:"runtime_version" json:"runtime_version"`
	Build              string   `yaml:"build" json:"build"`
	Distribution       string   `yaml:"distribution" json:"distribution"`
	ManifestURL        string   `yaml:"manifest_url" json:"manifest_url"`
	ArchiveURLTemplate string   `yaml:"archive_url_template" json:"archive_url_template"`
	UserAgent          string   `yaml:"user_agent" json:"user_agent"`
	HTTPTimeout        Duration `yaml:"http_timeout" json:"http_timeout"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.set(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	*d = Duration(n)
	return nil
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.set(node.Value)
}

func (d *Duration) set(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Load reads the config file at path. The format is chosen by extension:
// .yaml and .yml are YAML, .json and .jsonc are JSON with comments.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &cfg, nil
}

// Validate reports missing or invalid settings.
func (c *Config) Validate() error {
	var problems []error
	if c.RuntimeVersion == "" {
		problems = append(problems, errors.New("runtime_version is required"))
	}
	if c.DataRoot == "" {
		problems = append(problems, errors.New("data_root is required"))
	}
	if _, err := manifest.ParseDistribution(c.Distribution); err != nil {
		problems = append(problems, err)
	}
	if c.ArchiveURLTemplate != "" && !strings.Contains(c.ArchiveURLTemplate, "{version}") {
		problems = append(problems, errors.New("archive_url_template must contain {version}"))
	}
	if c.HTTPTimeout < 0 {
		problems = append(problems, errors.New("http_timeout must not be negative"))
	}
	return errors.Join(problems...)
}

// Environment returns the pipeline inputs described by c.
func (c *Config) Environment() (mapresolve.Environment, error) {
	dist, err := manifest.ParseDistribution(c.Distribution)
	if err != nil {
		return mapresolve.Environment{}, err
	}
	return mapresolve.Environment{
		RuntimeVersion: c.RuntimeVersion,
		Build:          c.Build,
		Distribution:   dist,
		DataRoot:       c.DataRoot,
	}, nil
}

// Options returns the provider options described by c. Unset fields keep
// the provider defaults.
func (c *Config) Options() []mapresolve.Option {
	var opts []mapresolve.Option
	if c.ManifestURL != "" {
		opts = append(opts, mapresolve.WithManifestURL(c.ManifestURL))
	}
	if c.ArchiveURLTemplate != "" {
		opts = append(opts, mapresolve.WithArchiveURLTemplate(c.ArchiveURLTemplate))
	}
	if c.UserAgent != "" {
		opts = append(opts, mapresolve.WithUserAgent(c.UserAgent))
	}
	if c.HTTPTimeout > 0 {
		opts = append(opts, mapresolve.WithHTTPClient(&nethttp.Client{Timeout: time.Duration(c.HTTPTimeout)}))
	}
	return opts
}

// NewProvider validates c and builds a Provider from it. extra options are
// applied after the ones derived from c.
func (c *Config) NewProvider(extra ...mapresolve.Option) (*mapresolve.Provider, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env, err := c.Environment()
	if err != nil {
		return nil, err
	}
	return mapresolve.New(env, append(c.Options(), extra...)...)
}
