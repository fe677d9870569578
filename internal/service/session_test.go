package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viveconecta/admin-ui/internal/adapters/democreds"
	"github.com/viveconecta/admin-ui/internal/adapters/jwttoken"
	"github.com/viveconecta/admin-ui/internal/adapters/memory"
	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	mockauth "github.com/viveconecta/admin-ui/internal/mocks/auth"
	"github.com/viveconecta/admin-ui/internal/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingMetrics struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *recordingMetrics) RecordSessionEvent(e SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingMetrics) outcomes(op SessionOp) []SessionOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SessionOutcome
	for _, e := range r.events {
		if e.Op == op {
			out = append(out, e.Outcome)
		}
	}
	return out
}

type sessionFixture struct {
	storage  *memory.ClientStorage
	sessions *memory.SessionStore
	codec    *jwttoken.Codec
	verifier *mockauth.StubVerifier
	metrics  *recordingMetrics
	clock    *testutil.Clock
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	clock := testutil.NewClock(testutil.TestTime())
	codec, err := jwttoken.New(testSecret, jwttoken.WithClock(clock.Now))
	require.NoError(t, err)
	return &sessionFixture{
		storage:  memory.NewClientStorage(),
		sessions: memory.NewSessionStore(clock.Now),
		codec:    codec,
		verifier: &mockauth.StubVerifier{
			AuthenticateFunc: mockauth.AcceptOnly(democreds.DemoEmail, democreds.DemoPassword, democreds.DemoUser),
		},
		metrics: &recordingMetrics{},
		clock:   clock,
	}
}

func (f *sessionFixture) manager(t *testing.T, device string) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(SessionManagerOptions{
		Prefs:    NewPreferenceStore(f.storage, device),
		Sessions: f.sessions,
		Tokens:   f.codec,
		Verifier: f.verifier,
		Metrics:  f.metrics,
		Now:      f.clock.Now,
	})
	require.NoError(t, err)
	return m
}

func (f *sessionFixture) token(device string) (string, bool) {
	v, ok, _ := f.storage.GetItem(context.Background(), device, TokenKey)
	return v, ok
}

func demoLogin() LoginInput {
	return LoginInput{Email: democreds.DemoEmail, Password: democreds.DemoPassword}
}

// loggedIn returns an initialized manager holding a successful demo login.
func (f *sessionFixture) loggedIn(t *testing.T, device string) *SessionManager {
	t.Helper()
	m := f.manager(t, device)
	m.Initialize(context.Background())
	_, err := m.Login(context.Background(), demoLogin())
	require.NoError(t, err)
	return m
}

func TestNewSessionManager_RequiresDependencies(t *testing.T) {
	f := newSessionFixture(t)
	prefs := NewPreferenceStore(f.storage, "d")

	cases := map[string]SessionManagerOptions{
		"prefs":    {Sessions: f.sessions, Tokens: f.codec, Verifier: f.verifier},
		"sessions": {Prefs: prefs, Tokens: f.codec, Verifier: f.verifier},
		"tokens":   {Prefs: prefs, Sessions: f.sessions, Verifier: f.verifier},
		"verifier": {Prefs: prefs, Sessions: f.sessions, Tokens: f.codec},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewSessionManager(opts)
			assert.Error(t, err)
		})
	}
}

func TestSessionManager_StartsUninitializedAndLoading(t *testing.T) {
	f := newSessionFixture(t)
	snap := f.manager(t, "d1").Snapshot()

	assert.Equal(t, domainauth.StateUninitialized, snap.State)
	assert.True(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestSessionManager_InitializeWithoutTokenSkipsVerification(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")

	m.Initialize(context.Background())

	snap := m.Snapshot()
	assert.Equal(t, domainauth.StateUnauthenticated, snap.State)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated)
	assert.Zero(t, f.verifier.ResolveCalls())
	assert.Equal(t, []SessionOutcome{OutcomeSkipped}, f.metrics.outcomes(OpRestore))

	select {
	case <-m.Ready():
	default:
		t.Fatal("Ready should be closed after Initialize")
	}
}

func TestSessionManager_InitializeRunsOnce(t *testing.T) {
	f := newSessionFixture(t)
	f.loggedIn(t, "d1")

	m := f.manager(t, "d1")
	m.Initialize(context.Background())
	m.Initialize(context.Background())

	assert.Equal(t, 1, f.verifier.ResolveCalls())
}

func TestSessionManager_LoginWithDemoCredentials(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	user, err := m.Login(context.Background(), demoLogin())
	require.NoError(t, err)
	assert.Equal(t, democreds.DemoUser, user)

	snap := m.Snapshot()
	assert.Equal(t, domainauth.StateAuthenticated, snap.State)
	assert.True(t, snap.Authenticated)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.User)
	assert.Equal(t, "John Doe", snap.User.Name)

	tok, ok := f.token("d1")
	require.True(t, ok)
	assert.NotEmpty(t, tok)

	claims, err := f.codec.Parse(tok)
	require.NoError(t, err)
	rec, err := f.sessions.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.MethodPassword, rec.Method)
	assert.Equal(t, f.clock.Now().Add(DefaultSessionTTL), rec.ExpiresAt)
}

func TestSessionManager_LoginRememberUsesLongerTTL(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	in := demoLogin()
	in.Remember = true
	_, err := m.Login(context.Background(), in)
	require.NoError(t, err)

	tok, _ := f.token("d1")
	claims, err := f.codec.Parse(tok)
	require.NoError(t, err)
	rec, err := f.sessions.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.True(t, rec.Remember)
	assert.Equal(t, f.clock.Now().Add(DefaultRememberTTL), rec.ExpiresAt)
}

func TestSessionManager_LoginWithWrongCredentials(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	_, err := m.Login(context.Background(), LoginInput{Email: democreds.DemoEmail, Password: "wrong"})
	require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	snap := m.Snapshot()
	assert.Equal(t, domainauth.StateUnauthenticated, snap.State)
	assert.False(t, snap.Authenticated)
	_, ok := f.token("d1")
	assert.False(t, ok)
	assert.Equal(t, []SessionOutcome{OutcomeInvalid}, f.metrics.outcomes(OpLogin))
}

func TestSessionManager_DemoBackendRequiresExactPair(t *testing.T) {
	f := newSessionFixture(t)
	m, err := NewSessionManager(SessionManagerOptions{
		Prefs:    NewPreferenceStore(f.storage, "d1"),
		Sessions: f.sessions,
		Tokens:   f.codec,
		Verifier: democreds.New(democreds.Config{}),
		Now:      f.clock.Now,
	})
	require.NoError(t, err)
	m.Initialize(context.Background())

	for _, email := range []string{" SELLOSTORE@COMPANY.COM ", "SelloStore@company.com", democreds.DemoEmail + " "} {
		_, err := m.Login(context.Background(), LoginInput{Email: email, Password: democreds.DemoPassword})
		require.ErrorIs(t, err, domainauth.ErrInvalidCredentials, email)
		assert.Equal(t, domainauth.StateUnauthenticated, m.State(), email)
		_, ok := f.token("d1")
		assert.False(t, ok, email)
	}
	assert.Zero(t, f.sessions.Len())

	_, err = m.Login(context.Background(), demoLogin())
	require.NoError(t, err)
	assert.Equal(t, domainauth.StateAuthenticated, m.State())
}

func TestSessionManager_FailedReloginPurgesPreviousSession(t *testing.T) {
	f := newSessionFixture(t)
	m := f.loggedIn(t, "d1")
	require.Equal(t, 1, f.sessions.Len())

	_, err := m.Login(context.Background(), LoginInput{Email: "other@company.com", Password: "nope"})
	require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	_, ok := f.token("d1")
	assert.False(t, ok)
	assert.Zero(t, f.sessions.Len())
}

func TestSessionManager_ReloginReplacesRecord(t *testing.T) {
	f := newSessionFixture(t)
	m := f.loggedIn(t, "d1")
	first, _ := f.token("d1")

	_, err := m.Login(context.Background(), demoLogin())
	require.NoError(t, err)

	second, _ := f.token("d1")
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestSessionManager_LoginBeforeInitializeIsInvalid(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")

	_, err := m.Login(context.Background(), demoLogin())
	require.ErrorIs(t, err, domainauth.ErrInvalidTransition)
	assert.Zero(t, f.verifier.AuthenticateCalls())
	assert.Equal(t, domainauth.StateUninitialized, m.State())
}

func TestSessionManager_ConcurrentLoginIsRejected(t *testing.T) {
	f := newSessionFixture(t)
	f.verifier.Gate = make(chan struct{})
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), demoLogin())
		done <- err
	}()
	require.Eventually(t, func() bool { return f.verifier.AuthenticateCalls() == 1 }, time.Second, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, domainauth.StateLoggingIn, snap.State)
	assert.True(t, snap.Loading)

	_, err := m.Login(context.Background(), demoLogin())
	require.ErrorIs(t, err, domainauth.ErrLoginInProgress)

	close(f.verifier.Gate)
	require.NoError(t, <-done)
	assert.Equal(t, domainauth.StateAuthenticated, m.State())
	assert.Equal(t, 1, f.verifier.AuthenticateCalls())
	assert.Contains(t, f.metrics.outcomes(OpLogin), OutcomeRejected)
}

func TestSessionManager_LoginCancellationCountsAsFailure(t *testing.T) {
	f := newSessionFixture(t)
	f.verifier.Gate = make(chan struct{})
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Login(ctx, demoLogin())
		done <- err
	}()
	require.Eventually(t, func() bool { return f.verifier.AuthenticateCalls() == 1 }, time.Second, time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domainauth.ErrInvalidCredentials)
	assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	_, ok := f.token("d1")
	assert.False(t, ok)
}

func TestSessionManager_LogoutAlwaysClearsToken(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")

		m.Logout(context.Background())

		snap := m.Snapshot()
		assert.Equal(t, domainauth.StateUnauthenticated, snap.State)
		assert.Nil(t, snap.User)
		_, ok := f.token("d1")
		assert.False(t, ok)
		assert.Zero(t, f.sessions.Len())
	})

	t.Run("uninitialized with stale token", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.storage.SetItem(context.Background(), "d1", TokenKey, "stale"))
		m := f.manager(t, "d1")

		m.Logout(context.Background())
		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
		_, ok := f.token("d1")
		assert.False(t, ok)

		m.Initialize(context.Background())
		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	})

	t.Run("already unauthenticated", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.manager(t, "d1")
		m.Initialize(context.Background())

		m.Logout(context.Background())
		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	})
}

func TestSessionManager_RestorePassesThroughRestoring(t *testing.T) {
	f := newSessionFixture(t)
	f.loggedIn(t, "d1")

	f.verifier.Gate = make(chan struct{})
	m := f.manager(t, "d1")
	m.Start(context.Background())

	require.Eventually(t, func() bool { return m.State() == domainauth.StateRestoring }, time.Second, time.Millisecond)
	assert.True(t, m.Snapshot().Loading)

	close(f.verifier.Gate)
	<-m.Ready()

	snap := m.Snapshot()
	assert.Equal(t, domainauth.StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, democreds.DemoUser.ID, snap.User.ID)
	assert.Equal(t, []SessionOutcome{OutcomeSuccess}, f.metrics.outcomes(OpRestore)[1:])
}

func TestSessionManager_RestoreFailurePurgesToken(t *testing.T) {
	t.Run("tampered token", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.storage.SetItem(context.Background(), "d1", TokenKey, "not-a-jwt"))
		m := f.manager(t, "d1")

		m.Initialize(context.Background())

		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
		_, ok := f.token("d1")
		assert.False(t, ok)
		assert.Zero(t, f.verifier.ResolveCalls())
		assert.Equal(t, []SessionOutcome{OutcomeFailure}, f.metrics.outcomes(OpRestore))
	})

	t.Run("expired record", func(t *testing.T) {
		f := newSessionFixture(t)
		f.loggedIn(t, "d1")
		f.clock.Advance(DefaultSessionTTL + time.Minute)

		m := f.manager(t, "d1")
		m.Initialize(context.Background())

		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
		_, ok := f.token("d1")
		assert.False(t, ok)
	})

	t.Run("verifier rejects", func(t *testing.T) {
		f := newSessionFixture(t)
		f.loggedIn(t, "d1")
		f.verifier.ResolveFunc = func(context.Context, domainauth.SessionRecord) (domainauth.User, error) {
			return domainauth.User{}, errors.New("account disabled")
		}

		m := f.manager(t, "d1")
		m.Initialize(context.Background())

		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
		_, ok := f.token("d1")
		assert.False(t, ok)
		assert.Zero(t, f.sessions.Len())
	})
}

func TestSessionManager_LogoutDuringRestoreWins(t *testing.T) {
	f := newSessionFixture(t)
	f.loggedIn(t, "d1")

	f.verifier.Gate = make(chan struct{})
	m := f.manager(t, "d1")
	m.Start(context.Background())
	require.Eventually(t, func() bool { return m.State() == domainauth.StateRestoring }, time.Second, time.Millisecond)

	m.Logout(context.Background())
	close(f.verifier.Gate)
	<-m.Ready()

	assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	_, ok := f.token("d1")
	assert.False(t, ok)
	assert.Zero(t, f.sessions.Len())
}

func TestSessionManager_RefreshUser(t *testing.T) {
	t.Run("updates attributes", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")
		f.verifier.ResolveFunc = func(_ context.Context, rec domainauth.SessionRecord) (domainauth.User, error) {
			u := rec.User
			u.Role = domainauth.RoleIngeniero
			return u, nil
		}

		m.RefreshUser(context.Background())
		assert.Equal(t, domainauth.RoleIngeniero, m.Snapshot().Role())
	})

	t.Run("failure keeps session", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")
		f.verifier.ResolveFunc = func(context.Context, domainauth.SessionRecord) (domainauth.User, error) {
			return domainauth.User{}, errors.New("backend unavailable")
		}

		m.RefreshUser(context.Background())

		snap := m.Snapshot()
		assert.Equal(t, domainauth.StateAuthenticated, snap.State)
		assert.Equal(t, democreds.DemoUser.Role, snap.Role())
		_, ok := f.token("d1")
		assert.True(t, ok)
		assert.Equal(t, []SessionOutcome{OutcomeFailure}, f.metrics.outcomes(OpRefresh))
	})

	t.Run("no token is a no-op", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.manager(t, "d1")
		m.Initialize(context.Background())

		m.RefreshUser(context.Background())
		assert.Zero(t, f.verifier.ResolveCalls())
		assert.Equal(t, []SessionOutcome{OutcomeSkipped}, f.metrics.outcomes(OpRefresh))
	})
}

// flakyStore fails Get while broken is set.
type flakyStore struct {
	*memory.SessionStore
	broken bool
}

func (s *flakyStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if s.broken {
		return domainauth.SessionRecord{}, errors.New("connection refused")
	}
	return s.SessionStore.Get(ctx, id)
}

func (f *sessionFixture) sessionID(t *testing.T, device string) string {
	t.Helper()
	tok, ok := f.token(device)
	require.True(t, ok)
	claims, err := f.codec.Parse(tok)
	require.NoError(t, err)
	return claims.SessionID
}

func TestSessionManager_Revalidate(t *testing.T) {
	t.Run("live record keeps session", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")

		assert.True(t, m.Revalidate(context.Background()))
		assert.Equal(t, domainauth.StateAuthenticated, m.State())
		assert.Empty(t, f.metrics.outcomes(OpRevalidate))
	})

	t.Run("deleted record ends session", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")
		require.NoError(t, f.sessions.Delete(context.Background(), f.sessionID(t, "d1")))

		assert.False(t, m.Revalidate(context.Background()))
		snap := m.Snapshot()
		assert.Equal(t, domainauth.StateUnauthenticated, snap.State)
		assert.Nil(t, snap.User)
		_, ok := f.token("d1")
		assert.False(t, ok)
		assert.Equal(t, []SessionOutcome{OutcomeRevoked}, f.metrics.outcomes(OpRevalidate))

		// Refresh cannot bring it back.
		m.RefreshUser(context.Background())
		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	})

	t.Run("expired record ends session", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.loggedIn(t, "d1")
		f.clock.Advance(DefaultSessionTTL + time.Minute)

		assert.False(t, m.Revalidate(context.Background()))
		assert.Equal(t, domainauth.StateUnauthenticated, m.State())
	})

	t.Run("store error keeps session", func(t *testing.T) {
		f := newSessionFixture(t)
		store := &flakyStore{SessionStore: f.sessions}
		m, err := NewSessionManager(SessionManagerOptions{
			Prefs:    NewPreferenceStore(f.storage, "d1"),
			Sessions: store,
			Tokens:   f.codec,
			Verifier: f.verifier,
			Metrics:  f.metrics,
			Now:      f.clock.Now,
		})
		require.NoError(t, err)
		m.Initialize(context.Background())
		_, err = m.Login(context.Background(), demoLogin())
		require.NoError(t, err)

		store.broken = true
		assert.True(t, m.Revalidate(context.Background()))
		assert.Equal(t, domainauth.StateAuthenticated, m.State())
		_, ok := f.token("d1")
		assert.True(t, ok)
		assert.Equal(t, []SessionOutcome{OutcomeFailure}, f.metrics.outcomes(OpRevalidate))
	})

	t.Run("unauthenticated is a no-op", func(t *testing.T) {
		f := newSessionFixture(t)
		m := f.manager(t, "d1")
		m.Initialize(context.Background())

		assert.False(t, m.Revalidate(context.Background()))
		assert.Empty(t, f.metrics.outcomes(OpRevalidate))
	})
}

func TestSessionManager_CompleteSSO(t *testing.T) {
	f := newSessionFixture(t)
	m := f.manager(t, "d1")
	m.Initialize(context.Background())

	user := domainauth.User{ID: "sub-1", Email: "ana@viveconecta.com", Name: "Ana", Role: domainauth.RoleComercial}
	require.NoError(t, m.CompleteSSO(context.Background(), SSOLogin{User: user, ExpiresAt: f.clock.Now().Add(time.Hour)}))
	assert.Equal(t, domainauth.StateAuthenticated, m.State())

	// A fresh manager on the same device trusts the SSO record without the password backend.
	restored := f.manager(t, "d1")
	restored.Initialize(context.Background())

	snap := restored.Snapshot()
	assert.Equal(t, domainauth.StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, user, *snap.User)
	assert.Zero(t, f.verifier.ResolveCalls())
}

func TestSessionManager_DevicesAreIsolated(t *testing.T) {
	f := newSessionFixture(t)
	f.loggedIn(t, "d1")

	other := f.manager(t, "d2")
	other.Initialize(context.Background())
	assert.Equal(t, domainauth.StateUnauthenticated, other.State())
}
