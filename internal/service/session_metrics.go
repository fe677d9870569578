package service

import "time"

// SessionOp names a session manager operation for metrics.
type SessionOp string

// SessionOutcome is the result of a SessionOp.
type SessionOutcome string

const (
	OpLogin   SessionOp = "login"
	OpRestore SessionOp = "restore"
	OpRefresh SessionOp = "refresh"
	OpLogout  SessionOp = "logout"
	OpSSO     SessionOp = "sso"
	// OpRevalidate is the per-request check that the backing record still exists.
	OpRevalidate SessionOp = "revalidate"
)

const (
	OutcomeSuccess  SessionOutcome = "success"
	OutcomeInvalid  SessionOutcome = "invalid_credentials"
	OutcomeFailure  SessionOutcome = "failure"
	OutcomeRejected SessionOutcome = "rejected"
	// OutcomeSkipped marks a restore or refresh with no token to act on.
	OutcomeSkipped SessionOutcome = "skipped"
	// OutcomeRevoked marks a session whose record was deleted or expired server-side.
	OutcomeRevoked SessionOutcome = "revoked"
)

// SessionEvent describes one completed operation.
type SessionEvent struct {
	Op       SessionOp
	Outcome  SessionOutcome
	Duration time.Duration
}

// SessionMetrics is an optional hook; implementations may aggregate counters.
type SessionMetrics interface {
	RecordSessionEvent(e SessionEvent)
}

// NoopSessionMetrics is the default when no metrics are provided.
type NoopSessionMetrics struct{}

func (NoopSessionMetrics) RecordSessionEvent(SessionEvent) {}
