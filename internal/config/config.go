// Package config provides the configuration schema and loader for the voxify
// CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to the corresponding [slog.Level]. Unrecognised values
// map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Retry   RetryConfig   `yaml:"retry"`

	// LogLevel controls verbosity. Defaults to info.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr, when non-empty, enables a Prometheus /metrics endpoint on
	// the given address (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`
}

// ServiceConfig describes the remote generative AI service.
type ServiceConfig struct {
	// BaseURL overrides the service's default API endpoint. Leave empty to
	// use the built-in default.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the service. Environment variable
	// references of the form ${VAR} are expanded at load time, so secrets
	// can stay out of the file.
	APIKey string `yaml:"api_key"`

	// Model selects the generation model (e.g. "gemini-2.0-flash").
	Model string `yaml:"model"`

	// TTSModel selects the model used for speech synthesis. Falls back to
	// Model when empty.
	TTSModel string `yaml:"tts_model"`

	// Voice is the default prebuilt voice for synthesis (e.g. "Kore").
	Voice string `yaml:"voice"`
}

// RetryConfig bounds the request executor's retry behaviour.
type RetryConfig struct {
	// MaxRetries is the total attempt budget per request. Zero uses the
	// executor default.
	MaxRetries int `yaml:"max_retries"`

	// BaseDelayMs is the first backoff wait in milliseconds; it doubles per
	// attempt. Zero uses the executor default.
	BaseDelayMs int `yaml:"base_delay_ms"`
}

// BaseDelay returns BaseDelayMs as a [time.Duration].
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, expands environment variable
// references in the API key, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	cfg.Service.APIKey = os.ExpandEnv(cfg.Service.APIKey)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Service.APIKey == "" {
		errs = append(errs, errors.New("service.api_key is required"))
	}
	if cfg.Service.BaseURL != "" {
		u, err := url.Parse(cfg.Service.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("service.base_url %q is not a valid http(s) URL", cfg.Service.BaseURL))
		}
	}
	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries %d must not be negative", cfg.Retry.MaxRetries))
	}
	if cfg.Retry.BaseDelayMs < 0 {
		errs = append(errs, fmt.Errorf("retry.base_delay_ms %d must not be negative", cfg.Retry.BaseDelayMs))
	}

	return errors.Join(errs...)
}
