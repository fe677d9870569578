package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinTokenSecretLength is the shortest HS256 secret accepted outside dev mode.
const MinTokenSecretLength = 32

// SessionConfig controls persisted tokens, session lifetimes and the per-device registry.
type SessionConfig struct {
	// TokenSecret signs persisted tokens. Required outside dev mode;
	// in dev mode an ephemeral secret is generated when blank.
	TokenSecret string `env:"SESSION_TOKEN_SECRET"`
	Issuer      string `env:"SESSION_TOKEN_ISSUER" envDefault:"viveconecta"`

	// TTL is the session lifetime without "remember me"; RememberTTL with it.
	TTL         time.Duration `env:"SESSION_TTL"          envDefault:"24h"`
	RememberTTL time.Duration `env:"SESSION_REMEMBER_TTL" envDefault:"720h"`

	// RestoreTimeout bounds the verification step of initialization.
	RestoreTimeout time.Duration `env:"SESSION_RESTORE_TIMEOUT" envDefault:"10s"`

	// ReadyWait is how long a guarded request waits for initialization
	// before the waiting page is rendered instead.
	ReadyWait time.Duration `env:"SESSION_READY_WAIT" envDefault:"250ms"`

	ClientCapacity int           `env:"SESSION_CLIENT_CAPACITY" envDefault:"10000"`
	ClientIdleTTL  time.Duration `env:"SESSION_CLIENT_IDLE_TTL" envDefault:"30m"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL"  envDefault:"1m"`

	// DeviceTTL is the sliding expiry of a device's stored items.
	DeviceTTL time.Duration `env:"SESSION_DEVICE_TTL" envDefault:"2160h"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	s.TokenSecret = strings.TrimSpace(s.TokenSecret)
	if s.TTL <= 0 {
		s.TTL = 24 * time.Hour
	}
	if s.RememberTTL < s.TTL {
		s.RememberTTL = s.TTL
	}
	if s.RestoreTimeout <= 0 {
		s.RestoreTimeout = 10 * time.Second
	}
	if s.ReadyWait < 0 {
		s.ReadyWait = 0
	}
	if s.ClientCapacity < 1 {
		s.ClientCapacity = 1
	}
	if s.ClientIdleTTL < time.Minute {
		s.ClientIdleTTL = time.Minute
	}
	if s.SweepInterval < time.Second {
		s.SweepInterval = time.Second
	}
	if s.DeviceTTL < s.RememberTTL {
		s.DeviceTTL = s.RememberTTL
	}
}

// Validate reports a missing or weak token secret outside dev mode.
func (s *SessionConfig) Validate(isDev bool) error {
	if isDev {
		return nil
	}
	switch {
	case s.TokenSecret == "":
		return errors.New("SESSION_TOKEN_SECRET is required outside dev mode")
	case len(s.TokenSecret) < MinTokenSecretLength:
		return fmt.Errorf("SESSION_TOKEN_SECRET must be at least %d bytes", MinTokenSecretLength)
	}
	return nil
}

// StorageBackend selects where per-device items live.
type StorageBackend string

const (
	// StorageRedis keeps device items in Redis hashes.
	StorageRedis StorageBackend = "redis"
	// StorageMemory keeps device items in process memory (dev only).
	StorageMemory StorageBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "memory":
		*b = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: redis, memory)", v)
	}
}

// StorageConfig selects the device storage backend.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"redis"`
}
