package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viveconecta/admin-ui/internal/ports"
)

// Keys used in the per-device storage.
const (
	TokenKey   = "authToken"
	SidebarKey = "sidebarOpen"
)

// PreferenceStore is the typed view of one device's storage.
// Only SessionManager writes TokenKey; anything may read or write SidebarKey.
type PreferenceStore struct {
	storage ports.ClientStorage
	device  string
}

// NewPreferenceStore binds storage to a device id.
func NewPreferenceStore(storage ports.ClientStorage, device string) *PreferenceStore {
	return &PreferenceStore{storage: storage, device: device}
}

// Device returns the bound device id.
func (p *PreferenceStore) Device() string { return p.device }

// Token returns the persisted token. ok is false when none is stored.
func (p *PreferenceStore) Token(ctx context.Context) (string, bool, error) {
	v, ok, err := p.storage.GetItem(ctx, p.device, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", TokenKey, err)
	}
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

func (p *PreferenceStore) setToken(ctx context.Context, token string) error {
	if err := p.storage.SetItem(ctx, p.device, TokenKey, token); err != nil {
		return fmt.Errorf("write %s: %w", TokenKey, err)
	}
	return nil
}

func (p *PreferenceStore) clearToken(ctx context.Context) error {
	if err := p.storage.RemoveItem(ctx, p.device, TokenKey); err != nil {
		return fmt.Errorf("remove %s: %w", TokenKey, err)
	}
	return nil
}

// SidebarOpen reads the sidebar preference. Absent or malformed values read as open.
// On a storage error the default is returned together with the error.
func (p *PreferenceStore) SidebarOpen(ctx context.Context) (bool, error) {
	v, ok, err := p.storage.GetItem(ctx, p.device, SidebarKey)
	if err != nil {
		return true, fmt.Errorf("read %s: %w", SidebarKey, err)
	}
	if !ok {
		return true, nil
	}
	var open bool
	if json.Unmarshal([]byte(v), &open) != nil {
		return true, nil
	}
	return open, nil
}

// SetSidebarOpen persists the sidebar preference as a JSON boolean.
func (p *PreferenceStore) SetSidebarOpen(ctx context.Context, open bool) error {
	b, _ := json.Marshal(open)
	if err := p.storage.SetItem(ctx, p.device, SidebarKey, string(b)); err != nil {
		return fmt.Errorf("write %s: %w", SidebarKey, err)
	}
	return nil
}

// ToggleSidebar flips the preference and returns the new value.
func (p *PreferenceStore) ToggleSidebar(ctx context.Context) (bool, error) {
	open, err := p.SidebarOpen(ctx)
	if err != nil {
		return open, err
	}
	if err := p.SetSidebarOpen(ctx, !open); err != nil {
		return open, err
	}
	return !open, nil
}
