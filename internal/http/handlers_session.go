package httpx

import (
	"net/http"

	"github.com/viveconecta/admin-ui/internal/domain/auth"
)

// sessionResponse is the JSON view of a device session.
type sessionResponse struct {
	auth.Snapshot
	SidebarOpen bool `json:"sidebar_open"`
}

type sidebarPreference struct {
	Open *bool `json:"open"`
}

// SessionAPI exposes the device session as JSON.
type SessionAPI struct {
	UI *UIHandlers
}

// Get serves GET /api/session. It waits briefly for a restore in progress.
func (a *SessionAPI) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	waitReady(r.Context(), m, a.UI.ReadyWait)
	open, err := m.Preferences().SidebarOpen(r.Context())
	if err != nil {
		a.UI.logger().WarnContext(r.Context(), "reading sidebar preference failed", "error", err)
	}
	WriteJSON(w, http.StatusOK, sessionResponse{Snapshot: m.Snapshot(), SidebarOpen: open})
}

// Refresh serves POST /api/session/refresh. Failures are absorbed by the manager.
func (a *SessionAPI) Refresh(w http.ResponseWriter, r *http.Request) {
	if m, ok := SessionFromContext(r.Context()); ok {
		m.RefreshUser(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutSidebar serves PUT /api/preferences/sidebar with {"open": bool}.
func (a *SessionAPI) PutSidebar(w http.ResponseWriter, r *http.Request) {
	m, ok := SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	var body sidebarPreference
	if !DecodeJSON(w, r, &body) {
		return
	}
	if body.Open == nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body", "message": "open is required"})
		return
	}
	if err := m.Preferences().SetSidebarOpen(r.Context(), *body.Open); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "storage_unavailable", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"open": *body.Open})
}
