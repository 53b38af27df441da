// Package config loads runtime options from the environment and an optional .env file.
// It should be imported only by cmd (and test code). Business-logic layers
// receive already-validated values via dependency injection.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/naka-gawa/github-profile/internal/gateway"
)

// placeholderToken is the value shipped in the sample .env file.
const placeholderToken = "your_github_token_here"

// ErrMissingToken is returned when GITHUB_TOKEN is unset, blank or still the placeholder.
var ErrMissingToken = errors.New("GitHub token is missing or invalid. Please set GITHUB_TOKEN in your .env file")

// Config holds every runtime option the application needs.
type Config struct {
	GitHubToken    string        `env:"GITHUB_TOKEN"`
	GitHubAPI      string        `env:"GITHUB_API" envDefault:"rest"`
	GitHubBaseURL  string        `env:"GITHUB_BASE_URL"`
	Port           string        `env:"PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// DefaultEnvFile is read by Load when no file is named.
const DefaultEnvFile = ".env"

// Load reads files into the process environment, then parses and validates
// Config. With no files it reads DefaultEnvFile, which may be absent; files
// named explicitly must exist and parse.
func Load(files ...string) (Config, error) {
	// godotenv never overrides variables that are already set.
	if len(files) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
		}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the options that cannot be defaulted.
func (c Config) Validate() error {
	token := strings.TrimSpace(c.GitHubToken)
	if token == "" || token == placeholderToken {
		return ErrMissingToken
	}
	switch c.GitHubAPI {
	case gateway.KindREST, gateway.KindGraphQL:
	default:
		return fmt.Errorf("unsupported GITHUB_API %q (want %q or %q)", c.GitHubAPI, gateway.KindREST, gateway.KindGraphQL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
