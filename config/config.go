// Package config loads the library's declarative bootstrap configuration:
// log settings and named HTTP session profiles, merged from defaults, an
// optional YAML file and environment variables, validated eagerly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/go-netclient/http"
	"github.com/gaborage/go-netclient/logger"
)

// DefaultFile is the configuration file Load looks for when none is given.
const DefaultFile = "netclient.yaml"

// EnvPrefix namespaces the environment variables read by Load. Nested keys
// use a double underscore: NETCLIENT_SESSIONS__API__BASE_URL maps to
// sessions.api.base_url.
const EnvPrefix = "NETCLIENT_"

// Load loads configuration with priority: environment variables over
// DefaultFile over defaults. A missing file is not an error.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load reading the given YAML file.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadBytes loads configuration from in-memory YAML over the defaults,
// then environment variables. Useful for tests and embedded configuration.
func LoadBytes(b []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"log.level":  "info",
		"log.pretty": false,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(envprovider.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks structural constraints eagerly so malformed profiles fail
// at load time rather than on first use. Retry policy semantics are fully
// validated again by the registry at session creation.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	for name, profile := range cfg.Sessions {
		if err := profile.Retry.Policy().Validate(); err != nil {
			return fmt.Errorf("session %q: retry: %w", name, err)
		}
	}
	return nil
}

// NewLogger builds the library logger declared by the configuration.
func (c *Config) NewLogger() logger.Logger {
	return logger.New(c.Log.Level, c.Log.Pretty)
}

// Apply registers every declared session profile on the registry via
// CreateOrReplace. Profiles are applied in unspecified order; each is keyed
// by its own base URL.
func (c *Config) Apply(registry *http.Registry) error {
	for name, profile := range c.Sessions {
		if err := registry.CreateOrReplace(profile.BaseURL, profile.SessionConfig()); err != nil {
			return fmt.Errorf("session %q: %w", name, err)
		}
	}
	return nil
}
