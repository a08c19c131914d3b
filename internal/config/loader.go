package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "FAIRWAY_"
	envFileVar = "FAIRWAY_CONFIG"
	dotEnvVar  = "FAIRWAY_DOTENV"
	maxHoles   = 18
)

// Load builds a Config by layering, low -> high precedence:
//  1. defaults (New())
//  2. a dotenv file (FAIRWAY_DOTENV, default ".env") copied into the env
//  3. YAML file if FAIRWAY_CONFIG is set
//  4. env vars with prefix FAIRWAY_
func Load(_ context.Context) (*Config, error) {
	base := New()

	dotenv := os.Getenv(dotEnvVar)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// FAIRWAY_PAGE_SIZE -> page_size (flat keys, underscores preserved)
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.UpstreamURL == "":
		return fmt.Errorf("%w: upstream_url must not be empty", ErrInvalidConfig)
	case c.Criterion != "gross" && c.Criterion != "net":
		return fmt.Errorf("%w: criterion must be gross or net, got %q", ErrInvalidConfig, c.Criterion)
	case c.PageSize < 1:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.PageIntervalMS < 1 || c.DebounceMS < 0 || c.PollIntervalMS < 1 || c.DrainTimeoutMS < 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	case c.TotalHoles < 1 || c.TotalHoles > maxHoles:
		return fmt.Errorf("%w: total_holes must be within 1..%d", ErrInvalidConfig, maxHoles)
	}
	return nil
}
