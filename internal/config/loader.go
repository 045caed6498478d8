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
//  2. file (YAML) if SCREENER_CONFIG is set
//  3. env (prefix SCREENER_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SCREENER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SCREENER_BACKEND, SCREENER_LOOKUP_PACE_MS, ...
	// Keys map flat: SCREENER_LOOKUP_PACE_MS -> lookup_pace_ms, matching the
	// koanf tags on the struct.
	envProvider := env.Provider("SCREENER_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "screener_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints. It reports every problem it finds,
// not just the first, so one fix-and-rerun cycle is enough.
func (c *Config) Validate() error {
	var problems []string

	switch c.Backend {
	case BackendGemini, BackendClassifier, BackendRules:
	default:
		problems = append(problems, fmt.Sprintf("backend must be one of %s, %s, %s (got %q)",
			BackendGemini, BackendClassifier, BackendRules, c.Backend))
	}
	if c.Backend == BackendClassifier && c.ClassifierEndpoint == "" {
		problems = append(problems, "classifier backend requires classifier_endpoint")
	}
	if c.LookupMaxAttempts < 1 {
		problems = append(problems, "lookup_max_attempts must be at least 1")
	}
	if c.LookupPaceMS < 0 {
		problems = append(problems, "lookup_pace_ms must not be negative")
	}
	if c.QueueSize < 1 {
		problems = append(problems, "queue_size must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
