package statsd

import (
	"strconv"
	"time"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

// Recorder mirrors the Prometheus observations as StatsD lines:
//
//	session.operations  count  op, outcome
//	session.duration    timing op
//	guard.decisions     count  outcome
//	http.requests       count  method, route, code
//	http.duration       timing method, route
type Recorder struct {
	sink Sink
}

// NewRecorder wraps sink. A nil sink records nothing.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) RecordSessionEvent(e service.SessionEvent) {
	if r.sink == nil {
		return
	}
	r.sink.Count("session.operations", 1, T("op", string(e.Op)), T("outcome", string(e.Outcome)))
	if e.Duration > 0 {
		r.sink.Timing("session.duration", e.Duration, T("op", string(e.Op)))
	}
}

func (r *Recorder) RecordGuardDecision(o guard.Outcome) {
	if r.sink == nil {
		return
	}
	r.sink.Count("guard.decisions", 1, T("outcome", o.String()))
}

func (r *Recorder) ObserveHTTP(method, route string, code int, d time.Duration) {
	if r.sink == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.sink.Count("http.requests", 1, T("method", method), T("route", route), T("code", strconv.Itoa(code)))
	r.sink.Timing("http.duration", d, T("method", method), T("route", route))
}
