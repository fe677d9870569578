package bootstrap

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viveconecta/admin-ui/config"
	"github.com/viveconecta/admin-ui/internal/adapters/jwttoken"
	"github.com/viveconecta/admin-ui/internal/adapters/memory"
	redisadapter "github.com/viveconecta/admin-ui/internal/adapters/redis"
	"github.com/viveconecta/admin-ui/internal/ports"
)

// SessionBackendConfig contains configuration for device and session storage.
type SessionBackendConfig struct {
	Storage     config.StorageConfig
	Session     config.SessionConfig
	Redis       config.RedisConfig
	RedisClient redis.UniversalClient
	IsDev       bool
	Logger      *slog.Logger
	Now         func() time.Time
}

// SessionBackends are the persistence adapters behind the client registry.
type SessionBackends struct {
	Storage  ports.ClientStorage
	Sessions ports.SessionStore
	Tokens   ports.TokenCodec
	// Sweep prunes expired records for backends without native expiry; nil otherwise.
	Sweep func() int
}

// BuildSessionBackends selects Redis or in-memory storage and builds the token codec.
func BuildSessionBackends(cfg SessionBackendConfig) (SessionBackends, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := buildTokenCodec(cfg.Session, cfg.IsDev, logger)
	if err != nil {
		return SessionBackends{}, err
	}

	switch cfg.Storage.Backend {
	case config.StorageRedis:
		if cfg.RedisClient == nil {
			return SessionBackends{}, errors.New("redis storage selected but redis client not configured")
		}
		return SessionBackends{
			Storage: redisadapter.NewClientStorage(cfg.RedisClient, redisadapter.ClientStorageOptions{
				Prefix: cfg.Redis.ClientPrefix,
				TTL:    cfg.Session.DeviceTTL,
			}),
			Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Redis.SessionPrefix),
			Tokens:   tokens,
		}, nil

	case config.StorageMemory:
		logger.Warn("in-memory device storage active; sessions are lost on restart")
		sessions := memory.NewSessionStore(cfg.Now)
		return SessionBackends{
			Storage:  memory.NewClientStorage(),
			Sessions: sessions,
			Tokens:   tokens,
			Sweep:    sessions.Sweep,
		}, nil

	default:
		return SessionBackends{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildTokenCodec(cfg config.SessionConfig, isDev bool, logger *slog.Logger) (*jwttoken.Codec, error) {
	secret := cfg.TokenSecret
	if secret == "" {
		if !isDev {
			return nil, errors.New("SESSION_TOKEN_SECRET is required outside dev mode")
		}
		var err error
		if secret, err = ephemeralSecret(); err != nil {
			return nil, err
		}
		logger.Warn("SESSION_TOKEN_SECRET not set; using an ephemeral secret, sessions end on restart")
	}

	codec, err := jwttoken.New(secret, jwttoken.WithIssuer(cfg.Issuer))
	if err != nil {
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	return codec, nil
}

func ephemeralSecret() (string, error) {
	b := make([]byte, config.MinTokenSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
