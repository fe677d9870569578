package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
	"github.com/viveconecta/admin-ui/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testRecord(id string, ttl time.Duration) domainauth.SessionRecord {
	now := time.Now()
	return domainauth.SessionRecord{
		ID: id,
		User: domainauth.User{
			ID:    "1",
			Email: "sellostore@company.com",
			Name:  "John Doe",
			Role:  domainauth.RoleAdministrador,
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := testRecord("test-session-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.User, got.User)
	assert.WithinDuration(t, rec.ExpiresAt, got.ExpiresAt, time.Second)

	ttl, err := client.TTL(ctx, "session:"+rec.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := testRecord("test-session-delete", 30*time.Minute)
	require.NoError(t, store.Save(ctx, rec))
	require.NoError(t, store.Delete(ctx, rec.ID))

	_, err := store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_RejectsExpiredAndEmpty(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, testRecord("", time.Minute)))
	assert.Error(t, store.Save(ctx, testRecord("expired", -time.Minute)))
}

func TestSessionStore_ClockSkewedRecordIsPurged(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-session:")
	ctx := context.Background()

	rec := testRecord("skewed", time.Minute)
	require.NoError(t, store.Save(ctx, rec))

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	exists, err := client.Exists(ctx, "test-session:skewed").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestClientStorage_RoundTrip(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewClientStorage(client, ClientStorageOptions{Prefix: "test-client:", TTL: time.Hour})
	ctx := context.Background()
	device := "device-1"

	_, ok, err := store.GetItem(ctx, device, "authToken")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetItem(ctx, device, "authToken", "tok"))
	require.NoError(t, store.SetItem(ctx, device, "sidebarOpen", "false"))

	v, ok, err := store.GetItem(ctx, device, "authToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	ttl, err := client.TTL(ctx, "test-client:"+device).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, store.RemoveItem(ctx, device, "authToken"))
	_, ok, err = store.GetItem(ctx, device, "authToken")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = store.GetItem(ctx, device, "sidebarOpen")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)

	require.NoError(t, client.Del(ctx, "test-client:"+device).Err())
}

func TestClientStorage_EmptyDevice(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewClientStorage(client, ClientStorageOptions{})
	ctx := context.Background()

	_, ok, err := store.GetItem(ctx, "", "authToken")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, store.SetItem(ctx, "", "authToken", "x"))
	assert.NoError(t, store.RemoveItem(ctx, "", "authToken"))
}
