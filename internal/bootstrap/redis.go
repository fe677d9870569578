package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viveconecta/admin-ui/config"
)

const pingTimeout = 5 * time.Second

// ConnectRedis opens the device storage and session record backend and pings it.
// USE_CLUSTER wins over USE_SENTINEL; otherwise REDIS_URI names a single node.
//
//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, desc, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis (%s): %w", desc, pingErr)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "redis connected", "topology", desc)
	return client, nil
}

// redisOptions translates the env config into go-redis options plus a
// credential-free description for logs.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	switch {
	case cfg.UseCluster:
		opts := &redis.UniversalOptions{Addrs: trimmed(cfg.ClusterNodes), Password: cfg.Password, IsClusterMode: true}
		if len(opts.Addrs) == 0 {
			// A configuration endpoint given as REDIS_URI stands in for the node list.
			if err := applyURI(opts, cfg.URI); err != nil {
				return nil, "", fmt.Errorf("redis cluster: %w", err)
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster needs REDIS_CLUSTER_NODES or REDIS_URI")
		}
		return opts, "cluster:" + strings.Join(opts.Addrs, ","), nil

	case cfg.UseSentinel:
		nodes := trimmed(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel needs REDIS_SENTINEL_NODES")
		}
		if strings.TrimSpace(cfg.SentinelMasterName) == "" {
			return nil, "", errors.New("redis sentinel needs REDIS_SENTINEL_MASTER_NAME")
		}
		return &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
		}, "sentinel:" + cfg.SentinelMasterName, nil

	default:
		opts := &redis.UniversalOptions{Password: cfg.Password}
		if err := applyURI(opts, cfg.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis needs REDIS_URI")
		}
		return opts, opts.Addrs[0], nil
	}
}

// applyURI accepts either host:port or a redis:// / rediss:// URL. Credentials
// in the URL override REDIS_PASSWORD.
func applyURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
