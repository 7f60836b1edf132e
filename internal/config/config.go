// Package config holds the reflection session configuration: generation
// strategy, critique mode, convergence thresholds, and the optional
// meta-reflection settings. Validation happens once, before a session starts;
// an invalid config never produces a partial session.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cogitolabs/ruminate/internal/types"
)

// ErrInvalidConfig is wrapped by all validation failures so callers can
// distinguish configuration errors from runtime ones with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config controls a single reflection session.
type Config struct {
	// Strategy selects the generation prompt style
	Strategy types.Strategy `yaml:"strategy"`

	// CritiqueMode selects the evaluation rubric emphasis
	CritiqueMode types.CritiqueMode `yaml:"critique_mode"`

	// MaxIterations is the hard ceiling on refinement cycles. Always
	// enforced regardless of score trend.
	MaxIterations int `yaml:"max_iterations"`

	// ScoreThreshold is the score at which the session converges (0.0-1.0)
	ScoreThreshold float64 `yaml:"score_threshold"`

	// MinImprovement is the per-iteration score gain below which the
	// session is considered stalling (two consecutive stalls stop it)
	MinImprovement float64 `yaml:"min_improvement"`

	// MetaReflection enables the second-order critique pass
	MetaReflection bool `yaml:"meta_reflection"`

	// Perspectives are the critique lenses to blend. Empty means the
	// single default perspective.
	Perspectives []types.Perspective `yaml:"perspectives"`
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		Strategy:       types.StrategyTechnical,
		CritiqueMode:   types.ModeConstructive,
		MaxIterations:  3,
		ScoreThreshold: 0.9,
		MinImprovement: 0.01,
	}
}

// Validate checks every enumerated field and threshold. All failures wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if !c.CritiqueMode.IsValid() {
		return fmt.Errorf("%w: unknown critique mode %q", ErrInvalidConfig, c.CritiqueMode)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d (prevents unbounded loops)", ErrInvalidConfig, c.MaxIterations)
	}
	if c.ScoreThreshold <= 0 || c.ScoreThreshold > types.MaxScore {
		return fmt.Errorf("%w: score_threshold %.3f outside (0, %.1f]", ErrInvalidConfig, c.ScoreThreshold, types.MaxScore)
	}
	if c.MinImprovement < 0 {
		return fmt.Errorf("%w: min_improvement cannot be negative: %.3f", ErrInvalidConfig, c.MinImprovement)
	}
	for i, p := range c.Perspectives {
		if p.Name == "" {
			return fmt.Errorf("%w: perspective %d has no name", ErrInvalidConfig, i)
		}
		if p.Weight < 0 {
			return fmt.Errorf("%w: perspective %q has negative weight %.3f", ErrInvalidConfig, p.Name, p.Weight)
		}
	}
	return nil
}

// EffectivePerspectives returns the configured lenses, or the single default
// lens when none are configured.
func (c *Config) EffectivePerspectives() []types.Perspective {
	if len(c.Perspectives) == 0 {
		return []types.Perspective{types.DefaultPerspective}
	}
	return c.Perspectives
}

// LoadFile reads a YAML config file, layering it over DefaultConfig so
// omitted fields keep their defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
