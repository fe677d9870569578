// Package devauth provides a config-driven stand-in identity provider for local SSO runs.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var _ ports.AuthProvider = (*Provider)(nil)

// Config controls the dev identity. Subject and Email are required.
type Config struct {
	Subject         string
	Email           string
	Name            string
	Groups          []string
	Claims          map[string]any
	SessionDuration time.Duration // default 8h when zero
	CallbackPath    string        // default "/auth/callback"
}

// Provider short-circuits the OAuth flow by redirecting straight back to our own callback.
// Exchange ignores the code and returns the configured identity.
type Provider struct {
	mu       sync.Mutex
	identity domainauth.Identity
	dur      time.Duration
	callback string
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	cb := cfg.CallbackPath
	if cb == "" {
		cb = "/auth/callback"
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Email
	}

	claims := maps.Clone(cfg.Claims)
	if claims == nil {
		claims = map[string]any{}
	}
	groups := make([]any, len(cfg.Groups))
	for i, g := range cfg.Groups {
		groups[i] = g
	}
	claims["sub"] = cfg.Subject
	claims["email"] = cfg.Email
	claims["name"] = name
	claims["groups"] = groups

	return &Provider{
		identity: domainauth.Identity{
			Subject: cfg.Subject,
			Email:   cfg.Email,
			Name:    name,
			Groups:  append([]string(nil), cfg.Groups...),
			Claims:  claims,
		},
		dur:      dur,
		callback: cb,
	}, nil
}

// Begin returns a local callback URL with cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callback + "?" + q.Encode(), state, nonce, nil
}

// Exchange returns the dev identity with a fresh expiry. State and nonce are checked by the handler.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.Claims = maps.Clone(p.identity.Claims)
	id.ExpiresAt = time.Now().Add(p.dur)
	return id, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
