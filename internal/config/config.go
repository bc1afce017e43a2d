// Package config defines the GrantLedger configuration and its loading hooks.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bryan-cox/grantledger/internal/milestone"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RepoOwner and RepoName select the repository whose issues are read.
	RepoOwner string `koanf:"repo_owner"`
	RepoName  string `koanf:"repo_name"`

	// APIURL is the GitHub REST endpoint.
	APIURL string `koanf:"api_url"`

	// GitHubToken is an optional personal access token.
	GitHubToken string `koanf:"github_token"`

	PerPage    int `koanf:"per_page"`
	MaxRetries int `koanf:"max_retries"`

	// Hourly rates per complexity tier.
	EasyRate   float64 `koanf:"easy_rate"`
	MediumRate float64 `koanf:"medium_rate"`
	HardRate   float64 `koanf:"hard_rate"`
}

// New returns a Config populated with defaults. Rates have no default.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		RepoOwner:  "privacy-scaling-explorations",
		RepoName:   "acceleration-program",
		APIURL:     "https://api.github.com",
		PerPage:    100,
		MaxRetries: 5,
	}
}

// Pricing returns the rate table used by the cost calculator.
func (c *Config) Pricing() milestone.Pricing {
	return milestone.Pricing{Easy: c.EasyRate, Medium: c.MediumRate, Hard: c.HardRate}
}

// Validate reports the first invalid setting. Rates are checked by
// ValidatePricing.
func (c *Config) Validate() error {
	if c.RepoOwner == "" || c.RepoName == "" {
		return fmt.Errorf("%w: repo_owner and repo_name must not be empty", ErrInvalidConfig)
	}
	if c.PerPage <= 0 || c.PerPage > 100 {
		return fmt.Errorf("%w: per_page must be between 1 and 100, got %d", ErrInvalidConfig, c.PerPage)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ValidatePricing requires every hourly rate to be positive.
func (c *Config) ValidatePricing() error {
	if err := c.Pricing().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
}
