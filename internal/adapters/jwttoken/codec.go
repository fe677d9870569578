// Package jwttoken issues and verifies the HS256 tokens persisted per device.
// A token only names a session record; the record itself is authoritative.
package jwttoken

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

var _ ports.TokenCodec = (*Codec)(nil)

// MinSecretLength is the shortest accepted signing secret in bytes.
const MinSecretLength = 32

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	jwt.RegisteredClaims
}

// Codec signs tokens with a shared secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithIssuer sets and enforces the iss claim.
func WithIssuer(iss string) Option { return func(c *Codec) { c.issuer = iss } }

// WithClock overrides the time source used for issuing and validation.
func WithClock(now func() time.Time) Option { return func(c *Codec) { c.now = now } }

// New creates a codec. The secret must be at least MinSecretLength bytes.
func New(secret string, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Issue signs a token naming rec.ID (jti) and rec.User.ID (sub).
func (c *Codec) Issue(rec domainauth.SessionRecord) (string, error) {
	if rec.ID == "" {
		return "", errors.New("session record has no id")
	}
	cl := claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:       rec.ID,
		Subject:  rec.User.ID,
		Issuer:   c.issuer,
		IssuedAt: jwt.NewNumericDate(rec.IssuedAt),
	}}
	if !rec.ExpiresAt.IsZero() {
		cl.ExpiresAt = jwt.NewNumericDate(rec.ExpiresAt)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Parse verifies the signature, expiry and issuer, and returns the claims.
func (c *Codec) Parse(token string) (ports.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithIssuedAt(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var cl claims
	tok, err := jwt.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return ports.TokenClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid || cl.ID == "" || cl.Subject == "" {
		return ports.TokenClaims{}, fmt.Errorf("%w: missing jti or sub", ErrInvalidToken)
	}

	out := ports.TokenClaims{SessionID: cl.ID, UserID: cl.Subject}
	if cl.IssuedAt != nil {
		out.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		out.ExpiresAt = cl.ExpiresAt.Time
	}
	return out, nil
}
