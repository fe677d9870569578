package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/viveconecta/admin-ui/internal/adapters/memory"
	"github.com/viveconecta/admin-ui/internal/mocks"
)

func TestPreferenceStore_SidebarDefaultsOpen(t *testing.T) {
	p := NewPreferenceStore(memory.NewClientStorage(), "d1")

	open, err := p.SidebarOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestPreferenceStore_SidebarRoundTrip(t *testing.T) {
	storage := memory.NewClientStorage()
	ctx := context.Background()

	require.NoError(t, NewPreferenceStore(storage, "d1").SetSidebarOpen(ctx, false))

	raw, ok, err := storage.GetItem(ctx, "d1", SidebarKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "false", raw)

	// A new store over the same storage sees the persisted value, as after a reload.
	open, err := NewPreferenceStore(storage, "d1").SidebarOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestPreferenceStore_ToggleSidebar(t *testing.T) {
	p := NewPreferenceStore(memory.NewClientStorage(), "d1")
	ctx := context.Background()

	open, err := p.ToggleSidebar(ctx)
	require.NoError(t, err)
	assert.False(t, open)

	open, err = p.ToggleSidebar(ctx)
	require.NoError(t, err)
	assert.True(t, open)
}

func TestPreferenceStore_MalformedSidebarReadsOpen(t *testing.T) {
	storage := memory.NewClientStorage()
	require.NoError(t, storage.SetItem(context.Background(), "d1", SidebarKey, "nope"))

	open, err := NewPreferenceStore(storage, "d1").SidebarOpen(context.Background())
	require.NoError(t, err)
	assert.True(t, open)
}

func TestPreferenceStore_SidebarSurvivesTokenRemoval(t *testing.T) {
	storage := memory.NewClientStorage()
	p := NewPreferenceStore(storage, "d1")
	ctx := context.Background()

	require.NoError(t, p.SetSidebarOpen(ctx, false))
	require.NoError(t, p.setToken(ctx, "tok"))
	require.NoError(t, p.clearToken(ctx))

	open, err := p.SidebarOpen(ctx)
	require.NoError(t, err)
	assert.False(t, open)
	_, ok, err := p.Token(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferenceStore_StorageErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockClientStorage(ctrl)
	boom := errors.New("redis down")
	storage.EXPECT().GetItem(gomock.Any(), "d1", SidebarKey).Return("", false, boom)
	storage.EXPECT().GetItem(gomock.Any(), "d1", TokenKey).Return("", false, boom)

	p := NewPreferenceStore(storage, "d1")

	open, err := p.SidebarOpen(context.Background())
	require.ErrorIs(t, err, boom)
	assert.True(t, open)

	_, _, err = p.Token(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestPreferenceStore_EmptyTokenIsAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockClientStorage(ctrl)
	storage.EXPECT().GetItem(gomock.Any(), "d1", TokenKey).Return("", true, nil)

	_, ok, err := NewPreferenceStore(storage, "d1").Token(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
