package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	obserrors "github.com/viveconecta/admin-ui/internal/observability/errors"
	"github.com/viveconecta/admin-ui/internal/ports"
)

const (
	DefaultSessionTTL     = 24 * time.Hour
	DefaultRememberTTL    = 30 * 24 * time.Hour
	DefaultRestoreTimeout = 10 * time.Second
)

var (
	errSessionExpired = errors.New("session expired")
	errSubjectChanged = errors.New("token subject does not match session record")
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Prefs    *PreferenceStore
	Sessions ports.SessionStore
	Tokens   ports.TokenCodec
	Verifier ports.CredentialVerifier

	TTL            time.Duration // record lifetime for a normal login
	RememberTTL    time.Duration // record lifetime when "remember me" is set
	RestoreTimeout time.Duration // bound on the background restore started by Start

	Metrics SessionMetrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// LoginInput carries a password login attempt.
type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// SSOLogin is a completed IdP exchange already mapped to an application user.
type SSOLogin struct {
	User      domainauth.User
	ExpiresAt time.Time
}

// SessionManager owns the authentication state of one device.
//
// States: uninitialized -> restoring -> authenticated | unauthenticated, and
// unauthenticated | authenticated -> logging-in -> authenticated | unauthenticated.
// Logout is accepted from any state.
//
// Transitions are serialized by mu. Verification and credential checks run
// without holding it, so concurrent snapshots observe restoring or logging-in.
// Each transition bumps epoch; a slow step whose epoch is no longer current
// is discarded when it completes.
type SessionManager struct {
	prefs    *PreferenceStore
	sessions ports.SessionStore
	tokens   ports.TokenCodec
	verifier ports.CredentialVerifier

	ttl            time.Duration
	rememberTTL    time.Duration
	restoreTimeout time.Duration

	metrics SessionMetrics
	logger  *slog.Logger
	now     func() time.Time

	initOnce  sync.Once
	ready     chan struct{}
	loginSlot *semaphore.Weighted

	mu        sync.Mutex
	state     domainauth.State
	user      *domainauth.User
	sessionID string // record behind the persisted token
	epoch     uint64
}

// NewSessionManager constructs a manager in the uninitialized state.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	switch {
	case opts.Prefs == nil:
		return nil, errors.New("preference store is required")
	case opts.Sessions == nil:
		return nil, errors.New("session store is required")
	case opts.Tokens == nil:
		return nil, errors.New("token codec is required")
	case opts.Verifier == nil:
		return nil, errors.New("credential verifier is required")
	}

	m := &SessionManager{
		prefs:          opts.Prefs,
		sessions:       opts.Sessions,
		tokens:         opts.Tokens,
		verifier:       opts.Verifier,
		ttl:            opts.TTL,
		rememberTTL:    opts.RememberTTL,
		restoreTimeout: opts.RestoreTimeout,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            opts.Now,
		ready:          make(chan struct{}),
		loginSlot:      semaphore.NewWeighted(1),
		state:          domainauth.StateUninitialized,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultSessionTTL
	}
	if m.rememberTTL <= 0 {
		m.rememberTTL = DefaultRememberTTL
	}
	if m.restoreTimeout <= 0 {
		m.restoreTimeout = DefaultRestoreTimeout
	}
	if m.metrics == nil {
		m.metrics = NoopSessionMetrics{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "session", "device", shortID(opts.Prefs.Device()))
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Device returns the device id this manager belongs to.
func (m *SessionManager) Device() string { return m.prefs.Device() }

// Preferences returns the device's preference store.
func (m *SessionManager) Preferences() *PreferenceStore { return m.prefs }

// Snapshot returns the current session state.
func (m *SessionManager) Snapshot() domainauth.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domainauth.NewSnapshot(m.state, m.user)
}

// State returns the current state tag.
func (m *SessionManager) State() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Ready is closed once Initialize has finished.
func (m *SessionManager) Ready() <-chan struct{} { return m.ready }

// Start runs Initialize in the background, detached from ctx cancellation
// and bounded by the restore timeout.
func (m *SessionManager) Start(ctx context.Context) {
	go func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.restoreTimeout)
		defer cancel()
		m.Initialize(rctx)
	}()
}

// Initialize restores the session from the persisted token.
// It runs once; concurrent callers wait for the first run to finish.
func (m *SessionManager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer close(m.ready)
		m.restore(ctx)
	})
}

func (m *SessionManager) restore(ctx context.Context) {
	start := m.now()
	cleanup := context.WithoutCancel(ctx)

	m.mu.Lock()
	if m.state != domainauth.StateUninitialized {
		// A logout or login already settled the state.
		m.mu.Unlock()
		m.observe(OpRestore, OutcomeSkipped, start)
		return
	}
	epoch := m.epoch
	m.mu.Unlock()

	token, ok, err := m.prefs.Token(ctx)
	if err != nil || !ok {
		m.settle(epoch, func() { m.state = domainauth.StateUnauthenticated })
		if err != nil {
			m.logger.WarnContext(ctx, "session restore failed",
				"err", domainauth.RestoreFailed(err), "error_type", obserrors.Classify(err))
			m.observe(OpRestore, OutcomeFailure, start)
			return
		}
		m.observe(OpRestore, OutcomeSkipped, start)
		return
	}

	if !m.settle(epoch, func() { m.state = domainauth.StateRestoring }) {
		return
	}

	rec, err := m.resolve(ctx, token)
	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch {
			m.resetLocked(cleanup)
		}
		m.mu.Unlock()
		m.dropRecord(cleanup, rec.ID)
		m.logger.WarnContext(ctx, "session restore failed",
			"err", domainauth.RestoreFailed(err), "error_type", obserrors.Classify(err))
		m.observe(OpRestore, OutcomeFailure, start)
		return
	}

	applied := m.settle(epoch, func() {
		u := rec.User
		m.user = &u
		m.sessionID = rec.ID
		m.state = domainauth.StateAuthenticated
	})
	if !applied {
		// Logged out while restoring; the token is gone so the record is unreachable.
		m.dropRecord(cleanup, rec.ID)
		m.observe(OpRestore, OutcomeSkipped, start)
		return
	}
	m.logger.DebugContext(ctx, "session restored", "user_id", rec.User.ID)
	m.observe(OpRestore, OutcomeSuccess, start)
}

// Login checks credentials and, on success, persists a new token.
// A mismatch returns domainauth.ErrInvalidCredentials; any failure leaves the
// manager unauthenticated with no token stored.
func (m *SessionManager) Login(ctx context.Context, in LoginInput) (domainauth.User, error) {
	start := m.now()
	if !m.loginSlot.TryAcquire(1) {
		m.observe(OpLogin, OutcomeRejected, start)
		return domainauth.User{}, domainauth.ErrLoginInProgress
	}
	defer m.loginSlot.Release(1)

	epoch, err := m.beginLogin()
	if err != nil {
		m.observe(OpLogin, OutcomeRejected, start)
		return domainauth.User{}, err
	}

	user, err := m.verifier.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		m.failLogin(ctx, epoch)
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			m.observe(OpLogin, OutcomeInvalid, start)
			return domainauth.User{}, domainauth.ErrInvalidCredentials
		}
		m.logger.WarnContext(ctx, "credential check failed", "err", err, "error_type", obserrors.Classify(err))
		m.observe(OpLogin, OutcomeFailure, start)
		return domainauth.User{}, fmt.Errorf("authenticate: %w", err)
	}

	ttl := m.ttl
	if in.Remember {
		ttl = m.rememberTTL
	}
	rec := m.newRecord(user, domainauth.MethodPassword, in.Remember, ttl)
	if err := m.establish(ctx, epoch, rec); err != nil {
		m.observe(OpLogin, OutcomeFailure, start)
		return domainauth.User{}, err
	}

	m.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "role", user.Role.String())
	m.observe(OpLogin, OutcomeSuccess, start)
	return user, nil
}

// CompleteSSO establishes a session for a user authenticated by the IdP.
// It follows the same transitions and dedup rules as Login.
func (m *SessionManager) CompleteSSO(ctx context.Context, in SSOLogin) error {
	start := m.now()
	if !m.loginSlot.TryAcquire(1) {
		m.observe(OpSSO, OutcomeRejected, start)
		return domainauth.ErrLoginInProgress
	}
	defer m.loginSlot.Release(1)

	epoch, err := m.beginLogin()
	if err != nil {
		m.observe(OpSSO, OutcomeRejected, start)
		return err
	}

	ttl := m.ttl
	if !in.ExpiresAt.IsZero() && in.ExpiresAt.After(start) {
		ttl = in.ExpiresAt.Sub(start)
	}
	rec := m.newRecord(in.User, domainauth.MethodSSO, false, ttl)
	if err := m.establish(ctx, epoch, rec); err != nil {
		m.observe(OpSSO, OutcomeFailure, start)
		return err
	}

	m.logger.InfoContext(ctx, "sso login succeeded", "user_id", in.User.ID, "role", in.User.Role.String())
	m.observe(OpSSO, OutcomeSuccess, start)
	return nil
}

// Logout removes the persisted token and clears the user. It always succeeds.
func (m *SessionManager) Logout(ctx context.Context) {
	start := m.now()
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	m.epoch++
	prev := m.resetLocked(ctx)
	m.mu.Unlock()

	m.dropRecord(ctx, prev)
	m.observe(OpLogout, OutcomeSuccess, start)
}

// RefreshUser reloads the user's attributes through the existing token.
// It is a no-op without a token. Failures are logged and never change state.
func (m *SessionManager) RefreshUser(ctx context.Context) {
	start := m.now()

	token, ok, err := m.prefs.Token(ctx)
	if err != nil {
		m.refreshFailed(ctx, err, start)
		return
	}
	if !ok {
		m.observe(OpRefresh, OutcomeSkipped, start)
		return
	}

	m.mu.Lock()
	epoch, authed := m.epoch, m.state == domainauth.StateAuthenticated
	m.mu.Unlock()
	if !authed {
		m.observe(OpRefresh, OutcomeSkipped, start)
		return
	}

	rec, err := m.resolve(ctx, token)
	if err != nil {
		m.refreshFailed(ctx, err, start)
		return
	}

	m.mu.Lock()
	if m.epoch == epoch && m.sessionID == rec.ID {
		u := rec.User
		m.user = &u
	}
	m.mu.Unlock()
	m.observe(OpRefresh, OutcomeSuccess, start)
}

// Revalidate confirms the record behind an authenticated session still
// exists. A record that was revoked or has expired ends the session the way a
// failed restore does. Store errors are logged and leave the state alone.
// It reports whether the manager is still authenticated.
func (m *SessionManager) Revalidate(ctx context.Context) bool {
	m.mu.Lock()
	epoch, id := m.epoch, m.sessionID
	authed := m.state == domainauth.StateAuthenticated
	m.mu.Unlock()
	if !authed || id == "" {
		return authed
	}

	start := m.now()
	rec, err := m.sessions.Get(ctx, id)
	switch {
	case err == nil && !rec.Expired(m.now()):
		return true
	case err != nil && !errors.Is(err, ports.ErrNotFound):
		m.logger.WarnContext(ctx, "session revalidation failed", "err", err, "error_type", obserrors.Classify(err))
		m.observe(OpRevalidate, OutcomeFailure, start)
		return true
	}

	cleanup := context.WithoutCancel(ctx)
	m.mu.Lock()
	if m.epoch != epoch || m.sessionID != id {
		authed = m.state == domainauth.StateAuthenticated
		m.mu.Unlock()
		return authed
	}
	m.epoch++
	m.resetLocked(cleanup)
	m.mu.Unlock()

	m.dropRecord(cleanup, id)
	m.logger.InfoContext(ctx, "session revoked", "session", shortID(id))
	m.observe(OpRevalidate, OutcomeRevoked, start)
	return false
}

func (m *SessionManager) refreshFailed(ctx context.Context, err error, start time.Time) {
	m.logger.WarnContext(ctx, "user refresh failed",
		"err", domainauth.RefreshFailed(err), "error_type", obserrors.Classify(err))
	m.observe(OpRefresh, OutcomeFailure, start)
}

// resolve verifies token and returns its record with current user attributes.
// On failure the returned record carries the session id when it was readable.
func (m *SessionManager) resolve(ctx context.Context, token string) (domainauth.SessionRecord, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return domainauth.SessionRecord{}, fmt.Errorf("parse token: %w", err)
	}
	rec, err := m.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return domainauth.SessionRecord{ID: claims.SessionID}, fmt.Errorf("load session %s: %w", shortID(claims.SessionID), err)
	}
	if rec.User.ID != claims.UserID {
		return rec, errSubjectChanged
	}
	if rec.Expired(m.now()) {
		return rec, errSessionExpired
	}
	if rec.Method == domainauth.MethodSSO {
		return rec, nil
	}

	user, err := m.verifier.Resolve(ctx, rec)
	if err != nil {
		return rec, fmt.Errorf("resolve user: %w", err)
	}
	rec.User = user
	return rec, nil
}

func (m *SessionManager) beginLogin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.CanLogin() {
		return 0, fmt.Errorf("login from %s: %w", m.state, domainauth.ErrInvalidTransition)
	}
	m.epoch++
	m.state = domainauth.StateLoggingIn
	return m.epoch, nil
}

func (m *SessionManager) failLogin(ctx context.Context, epoch uint64) {
	ctx = context.WithoutCancel(ctx)
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	prev := m.resetLocked(ctx)
	m.mu.Unlock()
	m.dropRecord(ctx, prev)
}

// establish saves rec, issues its token and commits the authenticated state.
func (m *SessionManager) establish(ctx context.Context, epoch uint64, rec domainauth.SessionRecord) error {
	if err := m.sessions.Save(ctx, rec); err != nil {
		m.failLogin(ctx, epoch)
		return fmt.Errorf("save session: %w", err)
	}
	cleanup := context.WithoutCancel(ctx)

	token, err := m.tokens.Issue(rec)
	if err != nil {
		m.failLogin(ctx, epoch)
		m.dropRecord(cleanup, rec.ID)
		return fmt.Errorf("issue token: %w", err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.dropRecord(cleanup, rec.ID)
		return fmt.Errorf("login superseded: %w", domainauth.ErrInvalidTransition)
	}
	if err := m.prefs.setToken(ctx, token); err != nil {
		prev := m.resetLocked(cleanup)
		m.mu.Unlock()
		m.dropRecord(cleanup, prev)
		m.dropRecord(cleanup, rec.ID)
		return fmt.Errorf("persist token: %w", err)
	}
	prev := m.sessionID
	u := rec.User
	m.user = &u
	m.sessionID = rec.ID
	m.state = domainauth.StateAuthenticated
	m.mu.Unlock()

	if prev != rec.ID {
		m.dropRecord(cleanup, prev)
	}
	return nil
}

// settle applies fn under the lock if no transition happened since epoch.
func (m *SessionManager) settle(epoch uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return false
	}
	fn()
	return true
}

// resetLocked moves to unauthenticated and purges the persisted token.
// It returns the id of the record that backed the old token. Caller holds mu.
func (m *SessionManager) resetLocked(ctx context.Context) string {
	if err := m.prefs.clearToken(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to remove persisted token", "err", err)
	}
	prev := m.sessionID
	m.user = nil
	m.sessionID = ""
	m.state = domainauth.StateUnauthenticated
	return prev
}

func (m *SessionManager) dropRecord(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := m.sessions.Delete(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "failed to delete session record", "session", shortID(id), "err", err)
	}
}

func (m *SessionManager) newRecord(
	user domainauth.User,
	method domainauth.Method,
	remember bool,
	ttl time.Duration,
) domainauth.SessionRecord {
	now := m.now()
	return domainauth.SessionRecord{
		ID:        uuid.NewString(),
		User:      user,
		Method:    method,
		Remember:  remember,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func (m *SessionManager) observe(op SessionOp, outcome SessionOutcome, start time.Time) {
	m.metrics.RecordSessionEvent(SessionEvent{Op: op, Outcome: outcome, Duration: m.now().Sub(start)})
}

// shortID keeps log lines readable without printing whole identifiers.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
