package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
	"github.com/viveconecta/admin-ui/internal/testutil"
)

func TestClientStorage_PerDeviceIsolation(t *testing.T) {
	s := NewClientStorage()
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "a", "authToken", "tok-a"))
	require.NoError(t, s.SetItem(ctx, "b", "authToken", "tok-b"))

	v, ok, err := s.GetItem(ctx, "a", "authToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-a", v)

	require.NoError(t, s.RemoveItem(ctx, "a", "authToken"))
	_, ok, _ = s.GetItem(ctx, "a", "authToken")
	assert.False(t, ok)

	v, ok, _ = s.GetItem(ctx, "b", "authToken")
	assert.True(t, ok)
	assert.Equal(t, "tok-b", v)

	assert.Error(t, s.SetItem(ctx, "", "k", "v"))
	assert.NoError(t, s.RemoveItem(ctx, "missing", "k"))
}

func TestClientStorage_ConcurrentWriters(t *testing.T) {
	s := NewClientStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			open := "true"
			if i%2 == 0 {
				open = "false"
			}
			_ = s.SetItem(ctx, "dev", "sidebarOpen", open)
			_, _, _ = s.GetItem(ctx, "dev", "sidebarOpen")
		}(i)
	}
	wg.Wait()

	v, ok, err := s.GetItem(ctx, "dev", "sidebarOpen")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, []string{"true", "false"}, v)
}

func TestSessionStore_Expiry(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	s := NewSessionStore(clock.Now)
	ctx := context.Background()

	rec := domainauth.SessionRecord{
		ID:        "s1",
		User:      domainauth.User{ID: "1", Role: domainauth.RoleAdministrador},
		IssuedAt:  clock.Now(),
		ExpiresAt: clock.Now().Add(time.Hour),
	}
	require.NoError(t, s.Save(ctx, rec))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	clock.Advance(2 * time.Hour)
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestSessionStore_SweepAndDelete(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	s := NewSessionStore(clock.Now)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domainauth.SessionRecord{ID: "old", ExpiresAt: clock.Now().Add(time.Minute)}))
	require.NoError(t, s.Save(ctx, domainauth.SessionRecord{ID: "new", ExpiresAt: clock.Now().Add(time.Hour)}))
	require.NoError(t, s.Save(ctx, domainauth.SessionRecord{ID: "forever"}))
	assert.Error(t, s.Save(ctx, domainauth.SessionRecord{}))

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Delete(ctx, "new"))
	_, err := s.Get(ctx, "new")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)
}
