package engine

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// CONFIG - Engine tuning knobs
// =============================================================================

// Config holds the tunable constants of the engine. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	Weights              xuankong.TemporalWeights
	PersonalizationBonus decimal.Decimal
	AmbiguityWindowDays  int
	DefaultProfile       xuankong.EvaluationProfile
}

// DefaultConfig returns the documented defaults: weights 0.3/0.2/0.1, a
// personalization bonus of 6 and a 45-day ambiguity window.
func DefaultConfig() Config {
	return Config{
		Weights:              xuankong.DefaultWeights(),
		PersonalizationBonus: decimal.NewFromInt(xuankong.DefaultPersonalizationBonus),
		AmbiguityWindowDays:  xuankong.DefaultAmbiguityWindowDays,
		DefaultProfile:       xuankong.ProfileStandard,
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.PersonalizationBonus.IsNegative() {
		return &xuankong.InputValidationError{Field: "personalization_bonus", Value: c.PersonalizationBonus.String(), Reason: "must not be negative"}
	}
	if c.AmbiguityWindowDays < 0 {
		return &xuankong.InputValidationError{Field: "ambiguity_window_days", Value: c.AmbiguityWindowDays, Reason: "must not be negative"}
	}
	if _, err := xuankong.ParseProfile(string(c.DefaultProfile)); err != nil {
		return err
	}
	return nil
}

// fileConfig mirrors the YAML layout. Pointers distinguish "absent" from zero.
type fileConfig struct {
	Weights *struct {
		Year  *float64 `yaml:"year"`
		Month *float64 `yaml:"month"`
		Day   *float64 `yaml:"day"`
	} `yaml:"weights"`
	PersonalizationBonus *float64 `yaml:"personalization_bonus"`
	AmbiguityWindowDays  *int     `yaml:"ambiguity_window_days"`
	DefaultProfile       string   `yaml:"default_profile"`
}

// ParseConfig reads YAML on top of the defaults. Keys left out keep their
// default value.
//
//	weights:
//	  year: 0.3
//	  month: 0.2
//	  day: 0.1
//	personalization_bonus: 6
//	ambiguity_window_days: 45
//	default_profile: standard
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	cfg := DefaultConfig()
	if w := fc.Weights; w != nil {
		if w.Year != nil {
			cfg.Weights.Year = decimal.NewFromFloat(*w.Year)
		}
		if w.Month != nil {
			cfg.Weights.Month = decimal.NewFromFloat(*w.Month)
		}
		if w.Day != nil {
			cfg.Weights.Day = decimal.NewFromFloat(*w.Day)
		}
	}
	if fc.PersonalizationBonus != nil {
		cfg.PersonalizationBonus = decimal.NewFromFloat(*fc.PersonalizationBonus)
	}
	if fc.AmbiguityWindowDays != nil {
		cfg.AmbiguityWindowDays = *fc.AmbiguityWindowDays
	}
	if fc.DefaultProfile != "" {
		cfg.DefaultProfile = xuankong.EvaluationProfile(fc.DefaultProfile)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read engine config: %w", err)
	}
	return ParseConfig(data)
}
