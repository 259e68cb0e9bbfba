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
//  2. file (YAML) if FEATURECAST_CONFIG is set
//  3. env (prefix FEATURECAST_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("FEATURECAST_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: FEATURECAST_DECAY_FACTOR, FEATURECAST_WORKER_COUNT, ...
	// Keys keep their underscores to match koanf tags on the struct.
	envProvider := env.Provider("FEATURECAST_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "featurecast_")
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

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.DecayFactor <= 0 || c.DecayFactor > 1 {
		return fmt.Errorf("%w: decay_factor must be in (0, 1]", ErrInvalidConfig)
	}
	if c.SchemaVersion == "" {
		return fmt.Errorf("%w: schema_version must not be empty", ErrInvalidConfig)
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("%w: window sizes must be positive", ErrInvalidConfig)
		}
	}
	known := make(map[string]struct{}, len(c.Seasons))
	for _, s := range c.Seasons {
		known[s] = struct{}{}
	}
	for _, s := range c.TrainingSeasons {
		if _, ok := known[s]; !ok {
			return fmt.Errorf("%w: training season %q not in seasons", ErrInvalidConfig, s)
		}
	}
	return nil
}
