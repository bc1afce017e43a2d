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

// EnvPrefix prefixes every environment override, e.g. GRANTLEDGER_HARD_RATE.
const EnvPrefix = "GRANTLEDGER_"

// DotEnvFile is read from the working directory when present.
var DotEnvFile = ".env"

// legacyKeys maps the variable names used by earlier deployments.
var legacyKeys = map[string]string{
	"EASY":                     "easy_rate",
	"MEDIUM":                   "medium_rate",
	"HARD":                     "hard_rate",
	"GH_PERSONAL_ACCESS_TOKEN": "github_token",
}

// Load builds a Config by layering, low to high:
//  1. defaults (New())
//  2. variables from DotEnvFile that are not already set
//  3. legacy variables EASY, MEDIUM, HARD, GH_PERSONAL_ACCESS_TOKEN
//  4. YAML file at path, or GRANTLEDGER_CONFIG when path is empty
//  5. env (prefix GRANTLEDGER_)
func Load(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadConfig, DotEnvFile, err)
	}

	k := koanf.New(".")

	legacy := env.Provider("", ".", func(s string) string {
		return legacyKeys[s]
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GRANTLEDGER_HARD_RATE -> hard_rate
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
