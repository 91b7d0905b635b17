// Package config holds the runtime tuning for the behavior engines,
// with defaults matching the shipped application and optional YAML
// overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the three engines. The zero value is not usable; start
// from Default.
type Config struct {
	Event     Event     `yaml:"event"`
	State     State     `yaml:"state"`
	Condition Condition `yaml:"condition"`
}

// Event tunes the event bus.
type Event struct {
	HistoryLimit          int      `yaml:"history_limit"`
	ResultLimit           int      `yaml:"result_limit"`
	CacheTTL              Duration `yaml:"cache_ttl"`
	CacheSize             int      `yaml:"cache_size"`
	WorkerPool            int      `yaml:"worker_pool"`
	DefaultHandlerTimeout Duration `yaml:"default_handler_timeout"`
}

// State tunes the state machine.
type State struct {
	HistoryLimit int `yaml:"history_limit"`
}

// Condition tunes the condition engine.
type Condition struct {
	HistoryLimit    int      `yaml:"history_limit"`
	CacheSize       int      `yaml:"cache_size"`
	DefaultCacheTTL Duration `yaml:"default_cache_ttl"`
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		Event: Event{
			HistoryLimit:          1000,
			ResultLimit:           1000,
			CacheTTL:              Duration(5 * time.Minute),
			CacheSize:             1000,
			WorkerPool:            10,
			DefaultHandlerTimeout: Duration(5 * time.Second),
		},
		State: State{
			HistoryLimit: 1000,
		},
		Condition: Condition{
			HistoryLimit:    1000,
			CacheSize:       1000,
			DefaultCacheTTL: Duration(time.Minute),
		},
	}
}

// Load reads a YAML file over the defaults. Unknown fields are
// rejected so typos fail loudly.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Event.WorkerPool <= 0 {
		return fmt.Errorf("event.worker_pool must be positive")
	}
	if c.Event.DefaultHandlerTimeout <= 0 {
		return fmt.Errorf("event.default_handler_timeout must be positive")
	}
	if c.Event.CacheSize <= 0 || c.Condition.CacheSize <= 0 {
		return fmt.Errorf("cache sizes must be positive")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "5m" or "30s", or from bare numbers of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var secs float64
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
