package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if KALIBER_CONFIG is set
//  3. env (prefix KALIBER_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("KALIBER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: KALIBER_ADDR, KALIBER_STORE, ...
	// Map env keys like KALIBER_BATCH_WORKER_COUNT -> batch_worker_count
	// to match the koanf tags on the struct.
	envProvider := env.Provider("KALIBER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "kaliber_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.Store != StoreMemory && c.Store != StoreSQLite {
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	}
	if c.MaturationWindowDays <= 0 {
		return fmt.Errorf("%w: maturation_window_days must be positive", ErrInvalidConfig)
	}
	if c.BatchWorkerCount <= 0 {
		return fmt.Errorf("%w: batch_worker_count must be positive", ErrInvalidConfig)
	}
	if c.TrainingThreshold <= 0 {
		return fmt.Errorf("%w: training_threshold must be positive", ErrInvalidConfig)
	}
	if c.MaxWindowDays <= 0 {
		return fmt.Errorf("%w: max_window_days must be positive", ErrInvalidConfig)
	}
	return nil
}
