// Package yaml loads the optional pie.yml project configuration.
package yaml

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed pie.schema.json
var configSchema string

// DefaultFile is the conventional config filename in the project root
const DefaultFile = "pie.yml"

// Config is the project-level configuration. Every field is optional;
// CLI flags take precedence over config values.
type Config struct {
	BaseDir    string    `yaml:"base_dir"`
	CacheDir   string    `yaml:"cache_dir"`
	Index      string    `yaml:"index"`
	Prerelease bool      `yaml:"prerelease"`
	Wrappers   bool      `yaml:"wrappers"`
	LogFile    string    `yaml:"log_file"`
	GPG        GPGConfig `yaml:"gpg"`
}

// GPGConfig enables signature verification of downloaded archives when
// key fingerprints are configured
type GPGConfig struct {
	KeyIDs []string `yaml:"key_ids"`
	// SignatureSuffix is appended to the archive URL to locate the
	// detached signature, ".asc" for most release hosts.
	SignatureSuffix string `yaml:"signature_suffix"`
}

// Enabled reports whether signature verification is configured
func (g *GPGConfig) Enabled() bool {
	return len(g.KeyIDs) > 0
}

// Suffix returns the configured signature suffix, ".asc" by default
func (g *GPGConfig) Suffix() string {
	if g.SignatureSuffix == "" {
		return ".asc"
	}
	return g.SignatureSuffix
}

// Load reads and validates a config file. A missing file yields an empty
// config, not an error: the file is optional.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user-selected config location
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	schema, err := jsonschema.CompileString("pie.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config validation failed for %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
