// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
)

// ErrNotFound is returned by stores when no record exists for a key.
var ErrNotFound = errors.New("not found")

// ClientStorage is per-device durable key/value storage.
// A missing key is reported with ok=false and a nil error.
type ClientStorage interface {
	GetItem(ctx context.Context, device, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, device, key, value string) error
	RemoveItem(ctx context.Context, device, key string) error
}

// SessionStore persists the server-side records behind persisted tokens.
type SessionStore interface {
	Save(ctx context.Context, rec domainauth.SessionRecord) error
	Get(ctx context.Context, id string) (domainauth.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// CredentialVerifier is the authentication backend behind the session manager.
type CredentialVerifier interface {
	// Authenticate checks an email/password pair. A mismatch must return
	// an error satisfying errors.Is(err, domainauth.ErrInvalidCredentials).
	Authenticate(ctx context.Context, email, password string) (domainauth.User, error)

	// Resolve returns the current attributes for the user behind a session record.
	// It is the verification step of restore and the fetch step of refresh.
	Resolve(ctx context.Context, rec domainauth.SessionRecord) (domainauth.User, error)
}

// TokenClaims are the verified contents of a persisted token.
type TokenClaims struct {
	SessionID string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies persisted tokens.
type TokenCodec interface {
	Issue(rec domainauth.SessionRecord) (string, error)
	Parse(token string) (TokenClaims, error)
}

// UserListOptions controls directory listing. Zero values mean no filter.
type UserListOptions struct {
	Role   domainauth.Role
	Search string // case-insensitive match on name or email
	Limit  int
	Offset int
}

// UserDirectory lists accounts for the workers page and admin tooling.
type UserDirectory interface {
	List(ctx context.Context, opts UserListOptions) ([]domainauth.User, error)
	// Count ignores Limit and Offset.
	Count(ctx context.Context, opts UserListOptions) (int, error)
}

// BeginInput carries inputs for initiating an SSO flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an SSO flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// RoleMapper maps an IdP identity to a role label. An empty result means no role.
type RoleMapper interface {
	Map(id domainauth.Identity) domainauth.Role
}
