// Package config loads cellwatch settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cellwatch/internal/permission"
)

// Config holds all cellwatch configuration.
type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Source      SourceConfig      `yaml:"source"`
	Permissions PermissionsConfig `yaml:"permissions"`
	HTTP        HTTPConfig        `yaml:"http"`
	NATS        NATSConfig        `yaml:"nats"`
	Operators   OperatorsConfig   `yaml:"operators"`
}

// SourceConfig selects where radio readings come from.
type SourceConfig struct {
	Kind  string `yaml:"kind"`  // mmcli or file
	Modem string `yaml:"modem"` // mmcli modem index, "any" by default
	Path  string `yaml:"path"`  // replay file for kind=file
}

// PermissionsConfig selects how permissions are granted.
type PermissionsConfig struct {
	Mode    string   `yaml:"mode"`    // static or prompt
	Granted []string `yaml:"granted"` // kinds granted in static mode
}

// HTTPConfig configures the read-only API. An empty Addr disables it.
type HTTPConfig struct {
	Addr    string   `yaml:"addr"`
	APIKeys []string `yaml:"api_keys"`
}

// NATSConfig configures snapshot publishing. An empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// OperatorsConfig points at the operator directory. Empty disables lookups.
type OperatorsConfig struct {
	DB string `yaml:"db"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Source: SourceConfig{
			Kind:  "mmcli",
			Modem: "any",
		},
		Permissions: PermissionsConfig{
			Mode: "prompt",
		},
		NATS: NATSConfig{
			Subject: "cellwatch.cells",
		},
	}
}

// Load reads path (if non-empty) over the defaults and applies CELLWATCH_*
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("CELLWATCH_LOG_LEVEL", &c.LogLevel)
	set("CELLWATCH_SOURCE", &c.Source.Kind)
	set("CELLWATCH_MODEM", &c.Source.Modem)
	set("CELLWATCH_REPLAY_FILE", &c.Source.Path)
	set("CELLWATCH_PERMISSIONS", &c.Permissions.Mode)
	set("CELLWATCH_HTTP_ADDR", &c.HTTP.Addr)
	set("CELLWATCH_NATS_URL", &c.NATS.URL)
	set("CELLWATCH_NATS_SUBJECT", &c.NATS.Subject)
	set("CELLWATCH_OPERATORS_DB", &c.Operators.DB)

	if v := getenv("CELLWATCH_GRANTED"); v != "" {
		c.Permissions.Granted = splitList(v)
	}
	if v := getenv("CELLWATCH_API_KEYS"); v != "" {
		c.HTTP.APIKeys = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	switch c.Source.Kind {
	case "mmcli":
	case "file":
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for the file source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown source %q", c.Source.Kind))
	}

	switch c.Permissions.Mode {
	case "static", "prompt":
	default:
		errs = append(errs, fmt.Errorf("permissions.mode: unknown mode %q", c.Permissions.Mode))
	}
	if _, err := c.GrantedKinds(); err != nil {
		errs = append(errs, fmt.Errorf("permissions.granted: %w", err))
	}

	return errors.Join(errs...)
}

// GrantedKinds parses Permissions.Granted.
func (c Config) GrantedKinds() ([]permission.Kind, error) {
	kinds := make([]permission.Kind, 0, len(c.Permissions.Granted))
	for _, s := range c.Permissions.Granted {
		k, err := permission.ParseKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
