// Package memory provides process-local implementations of the storage ports.
// They back development runs (STORAGE_BACKEND=memory) and tests; state is lost on restart.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var (
	_ ports.ClientStorage = (*ClientStorage)(nil)
	_ ports.SessionStore  = (*SessionStore)(nil)
)

// ClientStorage keeps per-device items in nested maps.
type ClientStorage struct {
	mu      sync.RWMutex
	devices map[string]map[string]string
}

// NewClientStorage creates an empty device storage.
func NewClientStorage() *ClientStorage {
	return &ClientStorage{devices: make(map[string]map[string]string)}
}

func (s *ClientStorage) GetItem(_ context.Context, device, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.devices[device][key]
	return v, ok, nil
}

func (s *ClientStorage) SetItem(_ context.Context, device, key, value string) error {
	if device == "" {
		return errors.New("device id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.devices[device]
	if !ok {
		items = make(map[string]string)
		s.devices[device] = items
	}
	items[key] = value
	return nil
}

func (s *ClientStorage) RemoveItem(_ context.Context, device, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.devices[device]
	if !ok {
		return nil
	}
	delete(items, key)
	if len(items) == 0 {
		delete(s.devices, device)
	}
	return nil
}

// SessionStore keeps session records until they expire.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.SessionRecord
	now      func() time.Time
}

// NewSessionStore creates an empty session store. A nil now uses time.Now.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[string]domainauth.SessionRecord), now: now}
}

func (s *SessionStore) Save(_ context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.ID] = rec
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return domainauth.SessionRecord{}, ports.ErrNotFound
	}
	if rec.Expired(s.now()) {
		delete(s.sessions, id)
		return domainauth.SessionRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Sweep drops expired records and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, rec := range s.sessions {
		if rec.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored records, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
