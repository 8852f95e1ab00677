// Package config loads the gantry user configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/fileutil"
	"github.com/cameronsjo/gantry/internal/schema"
)

// EnvVar names the environment variable that overrides the config path.
const EnvVar = "GANTRY_CONFIG"

// ErrInvalidConfig indicates the config file does not match the config schema.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the gantry user configuration. Every section is optional.
type Config struct {
	Forge    *Forge    `yaml:"forge,omitempty"`
	Registry *Registry `yaml:"registry,omitempty"`

	// Path is the file the config was read from. Empty when no file exists.
	Path string `yaml:"-"`
}

// Forge identifies the code forge hosting service repositories.
type Forge struct {
	Provider string `yaml:"provider"`
	URL      string `yaml:"url"`
	Owner    string `yaml:"owner"`
}

// Registry is the container registry images are published to.
type Registry struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace,omitempty"`
}

// Namespace returns the registry namespace, or "" when none is configured.
func (c *Config) Namespace() string {
	if c == nil || c.Registry == nil {
		return ""
	}
	return c.Registry.Namespace
}

// ImageName returns "[<namespace>/]<service>:<tag>".
func (c *Config) ImageName(service, tag string) string {
	name := service + ":" + tag
	if ns := c.Namespace(); ns != "" {
		return ns + "/" + name
	}
	return name
}

// DefaultPath returns the default config location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, "gantry", "config.yml"), nil
}

// Path resolves the config location: an explicit path, then $GANTRY_CONFIG,
// then DefaultPath. explicit reports whether the file is required to exist.
func Path(path string) (resolved string, explicit bool, err error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path != "" {
		return path, true, nil
	}
	def, err := DefaultPath()
	if err != nil {
		return "", false, err
	}
	return def, false, nil
}

// Load reads the config. An explicit path (flag, then $GANTRY_CONFIG) must
// exist; a missing default file yields an empty config.
func Load(path string, v schema.Validator) (*Config, error) {
	path, explicit, err := Path(path)
	if err != nil {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes and validates a config document.
func Parse(data []byte, v schema.Validator) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	violations, err := v.Validate(doc, schema.Config)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, violations[0])
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes the config as YAML.
func Write(w io.Writer, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save validates cfg and atomically writes it to path. An invalid config
// leaves the existing file untouched.
func Save(path string, cfg *Config, v schema.Validator) error {
	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		return err
	}
	if _, err := Parse(buf.Bytes(), v); err != nil {
		return err
	}
	if err := fileutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cfg.Path = path
	return nil
}
