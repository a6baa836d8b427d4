// Package config defines the engine's tunables and loads them from a
// TOML file via BurntSushi/toml, the way this codebase's ambient
// configuration concerns are handled throughout.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// EngineConfig holds every knob the engine needs that spec.md leaves to
// the embedding application: the subquery recursion limit, the default
// time field used by time-aware commands (search, bucket, transaction),
// and a Now function so tests can freeze "the current time" instead of
// depending on the wall clock.
type EngineConfig struct {
	MaxSubqueryDepth int       `toml:"max_subquery_depth"`
	DefaultTimeField string    `toml:"default_time_field"`
	Now              func() time.Time `toml:"-"`
}

// Default returns the engine's built-in defaults: a subquery depth cap
// of 32 and "_time" as the default time field, matching spec.md §5 and
// §4's search/bucket/transaction conventions.
func Default() *EngineConfig {
	return &EngineConfig{
		MaxSubqueryDepth: 32,
		DefaultTimeField: "_time",
		Now:              time.Now,
	}
}

// Load reads a TOML configuration file and overlays it on Default(),
// leaving Now untouched (it is never a TOML field).
func Load(path string) (*EngineConfig, error) {
	cfg := Default()
	now := cfg.Now
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.Now = now
	if cfg.MaxSubqueryDepth <= 0 {
		cfg.MaxSubqueryDepth = 32
	}
	if cfg.DefaultTimeField == "" {
		cfg.DefaultTimeField = "_time"
	}
	return cfg, nil
}
