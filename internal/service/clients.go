package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viveconecta/admin-ui/internal/ports"
)

const (
	DefaultClientCapacity = 10000
	DefaultClientIdleTTL  = 30 * time.Minute
)

// ClientRegistryOptions groups dependencies for ClientRegistry.
type ClientRegistryOptions struct {
	Storage  ports.ClientStorage
	Sessions ports.SessionStore
	Tokens   ports.TokenCodec
	Verifier ports.CredentialVerifier

	Capacity int
	IdleTTL  time.Duration

	SessionTTL     time.Duration
	RememberTTL    time.Duration
	RestoreTimeout time.Duration

	Metrics SessionMetrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// ClientRegistry holds one SessionManager per device.
// An evicted manager is rebuilt from device storage on the device's next request.
type ClientRegistry struct {
	opts    ClientRegistryOptions
	clients *LRU[*SessionManager]
	logger  *slog.Logger
}

// NewClientRegistry validates dependencies and creates an empty registry.
func NewClientRegistry(opts ClientRegistryOptions) (*ClientRegistry, error) {
	switch {
	case opts.Storage == nil:
		return nil, errors.New("client storage is required")
	case opts.Sessions == nil:
		return nil, errors.New("session store is required")
	case opts.Tokens == nil:
		return nil, errors.New("token codec is required")
	case opts.Verifier == nil:
		return nil, errors.New("credential verifier is required")
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultClientCapacity
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultClientIdleTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ClientRegistry{
		opts: opts,
		clients: NewLRU[*SessionManager](LRUConfig{
			Capacity: opts.Capacity,
			IdleTTL:  opts.IdleTTL,
			Now:      opts.Now,
		}),
		logger: opts.Logger.With("component", "client_registry"),
	}, nil
}

// Get returns the manager for device, creating and starting it on first use.
func (r *ClientRegistry) Get(ctx context.Context, device string) *SessionManager {
	var buildErr error
	m, created := r.clients.GetOrCreate(device, func() *SessionManager {
		m, err := NewSessionManager(SessionManagerOptions{
			Prefs:          r.Preferences(device),
			Sessions:       r.opts.Sessions,
			Tokens:         r.opts.Tokens,
			Verifier:       r.opts.Verifier,
			TTL:            r.opts.SessionTTL,
			RememberTTL:    r.opts.RememberTTL,
			RestoreTimeout: r.opts.RestoreTimeout,
			Metrics:        r.opts.Metrics,
			Logger:         r.opts.Logger,
			Now:            r.opts.Now,
		})
		buildErr = err
		return m
	})
	if buildErr != nil {
		// Dependencies were validated in NewClientRegistry.
		panic(buildErr)
	}
	if created {
		m.Start(ctx)
	}
	return m
}

// Preferences returns the preference store for device without touching its manager.
func (r *ClientRegistry) Preferences(device string) *PreferenceStore {
	return NewPreferenceStore(r.opts.Storage, device)
}

// Forget drops the manager for device. Storage is left untouched.
func (r *ClientRegistry) Forget(device string) bool {
	return r.clients.Delete(device)
}

// Len returns the number of live managers.
func (r *ClientRegistry) Len() int { return r.clients.Len() }

// Stats returns LRU counters.
func (r *ClientRegistry) Stats() LRUStats { return r.clients.Stats() }

// Sweep drops managers idle for longer than the idle TTL.
func (r *ClientRegistry) Sweep() int { return r.clients.Sweep() }

// RunSweeper sweeps on every tick until ctx is done.
func (r *ClientRegistry) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.DebugContext(ctx, "swept idle clients", "count", n, "remaining", r.Len())
			}
		}
	}
}
