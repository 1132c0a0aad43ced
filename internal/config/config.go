// Package config provides configuration management for the pica CLI.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bibkit/pica/internal/matcher"
)

// Config holds all tunable settings of the toolkit.
type Config struct {
	Matcher MatcherConfig
	Reader  ReaderConfig
	Store   StoreConfig
}

// MatcherConfig controls expression compilation defaults.
type MatcherConfig struct {
	CaseIgnore      bool
	StrsimThreshold float64
}

// ReaderConfig controls input stream policy.
type ReaderConfig struct {
	SkipInvalid bool
	Limit       int
}

// StoreConfig points at the optional result database.
type StoreConfig struct {
	DatabaseURL string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Matcher: MatcherConfig{
			CaseIgnore:      false,
			StrsimThreshold: 0.8,
		},
		Reader: ReaderConfig{
			SkipInvalid: false,
			Limit:       0,
		},
	}
}

// Options converts the matcher settings into compile options.
func (c *Config) Options() matcher.Options {
	return matcher.Options{
		CaseIgnore:      c.Matcher.CaseIgnore,
		StrsimThreshold: c.Matcher.StrsimThreshold,
	}
}

// Load reads configuration with environment > config file > defaults
// precedence. Environment variables use the PICA_ prefix with dots
// replaced by underscores, e.g. PICA_MATCHER_CASE_IGNORE.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("matcher.case_ignore", def.Matcher.CaseIgnore)
	v.SetDefault("matcher.strsim_threshold", def.Matcher.StrsimThreshold)
	v.SetDefault("reader.skip_invalid", def.Reader.SkipInvalid)
	v.SetDefault("reader.limit", def.Reader.Limit)
	v.SetDefault("store.db_url", "")

	v.SetEnvPrefix("PICA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Matcher: MatcherConfig{
			CaseIgnore:      v.GetBool("matcher.case_ignore"),
			StrsimThreshold: v.GetFloat64("matcher.strsim_threshold"),
		},
		Reader: ReaderConfig{
			SkipInvalid: v.GetBool("reader.skip_invalid"),
			Limit:       v.GetInt("reader.limit"),
		},
		Store: StoreConfig{
			DatabaseURL: v.GetString("store.db_url"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if t := cfg.Matcher.StrsimThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("strsim_threshold must be in (0, 1], got %v", t)
	}
	if cfg.Reader.Limit < 0 {
		return fmt.Errorf("reader limit must be non-negative, got %d", cfg.Reader.Limit)
	}
	return nil
}
