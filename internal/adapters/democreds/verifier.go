// Package democreds is the fixed-account credential backend used for demos and local runs.
// It simulates network latency and knows exactly one account.
package democreds

import (
	"context"
	"crypto/subtle"
	"time"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var _ ports.CredentialVerifier = (*Verifier)(nil)

const (
	DemoEmail    = "sellostore@company.com"
	DemoPassword = "Sellostore."

	DefaultLoginLatency   = 1500 * time.Millisecond
	DefaultRestoreLatency = 1000 * time.Millisecond
)

// DemoUser is the account behind the demo credentials.
var DemoUser = domainauth.User{
	ID:    "1",
	Email: DemoEmail,
	Name:  "John Doe",
	Role:  domainauth.RoleAdministrador,
}

// Config controls the demo backend. Zero latencies are honored; use Defaults for the stock values.
type Config struct {
	Email          string
	Password       string
	User           domainauth.User
	LoginLatency   time.Duration
	RestoreLatency time.Duration
}

// Defaults returns the stock demo account with simulated latency.
func Defaults() Config {
	return Config{
		Email:          DemoEmail,
		Password:       DemoPassword,
		User:           DemoUser,
		LoginLatency:   DefaultLoginLatency,
		RestoreLatency: DefaultRestoreLatency,
	}
}

// Verifier checks the single configured account.
type Verifier struct {
	cfg Config
}

// New builds a verifier; blank fields fall back to Defaults.
func New(cfg Config) *Verifier {
	def := Defaults()
	if cfg.Email == "" {
		cfg.Email = def.Email
	}
	if cfg.Password == "" {
		cfg.Password = def.Password
	}
	if cfg.User.ID == "" {
		cfg.User = def.User
	}
	if cfg.User.Email == "" {
		cfg.User.Email = cfg.Email
	}
	return &Verifier{cfg: cfg}
}

// Authenticate waits LoginLatency then compares the pair byte for byte.
// Any other pair, including case or whitespace variants of the email, is rejected.
func (v *Verifier) Authenticate(ctx context.Context, email, password string) (domainauth.User, error) {
	if err := sleep(ctx, v.cfg.LoginLatency); err != nil {
		return domainauth.User{}, err
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(v.cfg.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.cfg.Password)) == 1
	if !emailOK || !passOK {
		return domainauth.User{}, domainauth.ErrInvalidCredentials
	}
	return v.cfg.User, nil
}

// Resolve waits RestoreLatency and always yields the demo account.
func (v *Verifier) Resolve(ctx context.Context, _ domainauth.SessionRecord) (domainauth.User, error) {
	if err := sleep(ctx, v.cfg.RestoreLatency); err != nil {
		return domainauth.User{}, err
	}
	return v.cfg.User, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
