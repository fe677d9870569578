package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

func TestRecorder_SessionEvents(t *testing.T) {
	r := New(Options{})

	r.RecordSessionEvent(service.SessionEvent{Op: service.OpLogin, Outcome: service.OutcomeSuccess, Duration: time.Second})
	r.RecordSessionEvent(service.SessionEvent{Op: service.OpLogin, Outcome: service.OutcomeInvalid})
	r.RecordSessionEvent(service.SessionEvent{Op: service.OpLogin, Outcome: service.OutcomeInvalid})

	assert.InDelta(t, 1, testutil.ToFloat64(r.sessionOps.WithLabelValues("login", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.sessionOps.WithLabelValues("login", "invalid_credentials")), 0)
	// Zero durations are not observed.
	assert.Equal(t, 1, testutil.CollectAndCount(r.sessionDuration))
}

func TestRecorder_GuardAndHTTP(t *testing.T) {
	r := New(Options{})

	r.RecordGuardDecision(guard.Redirect)
	r.RecordGuardDecision(guard.Redirect)
	r.RecordGuardDecision(guard.Admit)
	r.ObserveHTTP(http.MethodGet, "GET /dashboard", http.StatusOK, 10*time.Millisecond)
	r.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(r.guardDecisions.WithLabelValues("redirect")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestRecorder_ClientsAndHandler(t *testing.T) {
	r := New(Options{Namespace: "test"})
	r.RegisterClients(func() service.LRUStats { return service.LRUStats{Size: 3, Evictions: 7} })
	r.RecordGuardDecision(guard.Wait)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "test_clients_active 3")
	assert.Contains(t, string(body), "test_clients_evictions_total 7")
	assert.Contains(t, string(body), `test_guard_decisions_total{outcome="wait"} 1`)
}
