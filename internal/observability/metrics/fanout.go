package metrics

import (
	"time"

	"github.com/viveconecta/admin-ui/internal/domain/guard"
	"github.com/viveconecta/admin-ui/internal/service"
)

// Sink receives session, guard and HTTP observations.
type Sink interface {
	RecordSessionEvent(e service.SessionEvent)
	RecordGuardDecision(o guard.Outcome)
	ObserveHTTP(method, route string, code int, d time.Duration)
}

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = Fanout(nil)
)

// Fanout forwards every observation to each sink in order.
type Fanout []Sink

func (f Fanout) RecordSessionEvent(e service.SessionEvent) {
	for _, s := range f {
		s.RecordSessionEvent(e)
	}
}

func (f Fanout) RecordGuardDecision(o guard.Outcome) {
	for _, s := range f {
		s.RecordGuardDecision(o)
	}
}

func (f Fanout) ObserveHTTP(method, route string, code int, d time.Duration) {
	for _, s := range f {
		s.ObserveHTTP(method, route, code, d)
	}
}
