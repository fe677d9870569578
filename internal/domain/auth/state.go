package auth

// State is a session manager lifecycle state.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateRestoring       State = "restoring"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
	StateLoggingIn       State = "logging-in"
)

// Loading reports whether the state is waiting on initialization or a login attempt.
func (s State) Loading() bool {
	switch s {
	case StateUninitialized, StateRestoring, StateLoggingIn:
		return true
	default:
		return false
	}
}

// CanLogin reports whether a login attempt may start from s.
func (s State) CanLogin() bool {
	return s == StateUnauthenticated || s == StateAuthenticated
}

// Snapshot is an immutable view of session state for a single decision.
type Snapshot struct {
	State         State `json:"state"`
	User          *User `json:"user,omitempty"`
	Authenticated bool  `json:"authenticated"`
	Loading       bool  `json:"loading"`
}

// NewSnapshot derives the flags from state and user so that
// Authenticated holds exactly when a user is present.
func NewSnapshot(state State, user *User) Snapshot {
	var u *User
	if user != nil {
		cp := *user
		u = &cp
	}
	return Snapshot{
		State:         state,
		User:          u,
		Authenticated: u != nil,
		Loading:       state.Loading(),
	}
}

// Role returns the user's role label, or "" when no user is present.
func (s Snapshot) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
