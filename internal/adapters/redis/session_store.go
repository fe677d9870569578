// Package redis provides Redis-based adapters for session records and device storage.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore keeps session records as JSON strings with a TTL taken from ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store using the "session:" key prefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:")
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *SessionStore) Save(ctx context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+rec.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if id == "" {
		return domainauth.SessionRecord{}, ports.ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.SessionRecord{}, ports.ErrNotFound
		}
		return domainauth.SessionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domainauth.SessionRecord
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL normally handles this; clock skew between hosts can leave a stale key.
	if rec.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.SessionRecord{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.SessionRecord{}, ports.ErrNotFound
	}

	return rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}
