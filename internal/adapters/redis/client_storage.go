package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viveconecta/admin-ui/internal/ports"
)

var _ ports.ClientStorage = (*ClientStorage)(nil)

// ClientStorage keeps each device's items in one hash ("client:<device>").
// Every write slides the hash TTL so idle devices eventually disappear.
type ClientStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// ClientStorageOptions configures NewClientStorage.
type ClientStorageOptions struct {
	Prefix string        // default "client:"
	TTL    time.Duration // <= 0 disables expiry
}

// NewClientStorage creates Redis-backed device storage.
func NewClientStorage(client redis.UniversalClient, opts ClientStorageOptions) *ClientStorage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "client:"
	}
	return &ClientStorage{client: client, prefix: prefix, ttl: opts.TTL}
}

func (c *ClientStorage) key(device string) string { return c.prefix + device }

func (c *ClientStorage) GetItem(ctx context.Context, device, key string) (string, bool, error) {
	if device == "" {
		return "", false, nil
	}
	v, err := c.client.HGet(ctx, c.key(device), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (c *ClientStorage) SetItem(ctx context.Context, device, key, value string) error {
	if device == "" {
		return errors.New("device id cannot be empty")
	}
	k := c.key(device)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, key, value)
		if c.ttl > 0 {
			pipe.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (c *ClientStorage) RemoveItem(ctx context.Context, device, key string) error {
	if device == "" {
		return nil
	}
	if err := c.client.HDel(ctx, c.key(device), key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}
	return nil
}
