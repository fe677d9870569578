package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/viveconecta/admin-ui/internal/adapters/democreds"
	"github.com/viveconecta/admin-ui/internal/adapters/jwttoken"
	"github.com/viveconecta/admin-ui/internal/adapters/memory"
	"github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/domain/navigation"
	mockauth "github.com/viveconecta/admin-ui/internal/mocks/auth"
	"github.com/viveconecta/admin-ui/internal/service"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	testCSRFToken = "test-csrf-token"
)

// uiFixture is a full router over in-memory adapters.
type uiFixture struct {
	handler  http.Handler
	registry *service.ClientRegistry
	storage  *memory.ClientStorage
	sessions *memory.SessionStore
	codec    *jwttoken.Codec
	verifier *mockauth.StubVerifier
}

func newUIFixture(t *testing.T, mutate ...func(*RouterDeps)) *uiFixture {
	t.Helper()
	skipIfNoTemplates(t)

	codec, err := jwttoken.New(testSecret)
	require.NoError(t, err)
	storage := memory.NewClientStorage()
	sessions := memory.NewSessionStore(time.Now)
	verifier := &mockauth.StubVerifier{
		AuthenticateFunc: mockauth.AcceptOnly(democreds.DemoEmail, democreds.DemoPassword, democreds.DemoUser),
	}
	registry, err := service.NewClientRegistry(service.ClientRegistryOptions{
		Storage:  storage,
		Sessions: sessions,
		Tokens:   codec,
		Verifier: verifier,
	})
	require.NoError(t, err)
	catalog, err := navigation.Default()
	require.NoError(t, err)

	deps := RouterDeps{
		Registry:   registry,
		Catalog:    catalog,
		Dashboard:  service.NewDashboardService(),
		Workers:    service.NewWorkersService(nil),
		Demo:       &DemoCredentials{Email: democreds.DemoEmail, Password: democreds.DemoPassword},
		ReadyWait:  2 * time.Second,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		StaticFS:   os.DirFS("../../" + StaticPathFromRoot),
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	handler, err := NewRouter(deps)
	require.NoError(t, err)
	return &uiFixture{
		handler:  handler,
		registry: registry,
		storage:  storage,
		sessions: sessions,
		codec:    codec,
		verifier: verifier,
	}
}

// device returns a fresh device id whose manager has finished initializing.
func (f *uiFixture) device(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	m := f.registry.Get(context.Background(), id)
	select {
	case <-m.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("session manager did not become ready")
	}
	return id
}

// loggedInDevice returns a device authenticated as the demo user.
func (f *uiFixture) loggedInDevice(t *testing.T) string {
	t.Helper()
	id := f.device(t)
	_, err := f.registry.Get(context.Background(), id).Login(context.Background(), service.LoginInput{
		Email:    democreds.DemoEmail,
		Password: democreds.DemoPassword,
	})
	require.NoError(t, err)
	return id
}

// sessionID returns the record id behind the device's persisted token.
func (f *uiFixture) sessionID(t *testing.T, device string) string {
	t.Helper()
	token, ok, err := f.manager(device).Preferences().Token(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	claims, err := f.codec.Parse(token)
	require.NoError(t, err)
	return claims.SessionID
}

func (f *uiFixture) manager(device string) *service.SessionManager {
	return f.registry.Get(context.Background(), device)
}

func (f *uiFixture) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

// browserGet builds a top-level browser navigation.
func browserGet(target, device string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	withDevice(r, device)
	return r
}

// formPost builds a CSRF-valid form submission.
func formPost(target, device string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, testCSRFToken)
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Accept", "text/html")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	withDevice(r, device)
	return r
}

func withDevice(r *http.Request, device string) {
	if device != "" {
		r.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: device})
	}
}

func asHTMX(r *http.Request) *http.Request {
	r.Header.Set("Hx-Request", "true")
	r.Header.Set(DefaultCSRFHeaderName, testCSRFToken)
	return r
}

func userWithRole(role auth.Role) auth.User {
	return auth.User{ID: "u-" + string(role), Email: "user@viveconecta.com", Name: "Ana Pérez", Role: role}
}

func skipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("templates not found at " + TemplatePathFromTest)
	}
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
