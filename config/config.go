package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: credential verifier and single sign-on
//   - database.go: user directory database and Redis
//   - http.go: HTTP server and cookies
//   - session.go: session tokens, lifetimes and the client registry
//   - navigation.go: sidebar catalog
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (templates from disk, memory storage allowed).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Session    SessionConfig
	Storage    StorageConfig
	Navigation NavigationConfig

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Database DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Database.Sanitize()
	c.Auth.Sanitize()
	c.Navigation.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate rejects combinations the application cannot run with.
// All problems are reported together.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Session.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if c.Storage.Backend == StorageMemory && !c.IsDev {
		errs = append(errs, errors.New("STORAGE_BACKEND=memory is only allowed in dev mode"))
	}
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Auth.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if err := c.Navigation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Verifier == VerifierDirectory {
		if err := c.Database.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NeedsRedis reports whether any configured component is backed by Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Storage.Backend == StorageRedis
}

// NeedsDatabase reports whether the user directory must be opened.
func (c *AppConfig) NeedsDatabase() bool {
	return c.Auth.Verifier == VerifierDirectory
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// This is called by Sanitize() to ensure IsDev is set correctly.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
