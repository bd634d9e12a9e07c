// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the activity registry.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/mergington/activities/internal/model"
	"github.com/mergington/activities/internal/registry"
)

// IndexPath is where GET / redirects to.
const IndexPath = "/static/index.html"

// ActivityHandler holds all HTTP handlers for the activity API.
type ActivityHandler struct {
	reg *registry.Registry
	log *slog.Logger
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(reg *registry.Registry, log *slog.Logger) *ActivityHandler {
	return &ActivityHandler{reg: reg, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// activityName returns the decoded {activity_name} path parameter. chi
// matches against RawPath when the request carried one, so the parameter is
// still escaped in that case.
func activityName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "activity_name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

// rosterParams extracts the activity name and the required email query
// parameter, writing the error response itself when either is unusable.
func rosterParams(w http.ResponseWriter, r *http.Request) (name, email string, ok bool) {
	name, err := activityName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity name")
		return "", "", false
	}
	email = r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusUnprocessableEntity, "email query parameter is required")
		return "", "", false
	}
	return name, email, true
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// Root handles GET /
// Redirects to the static front-end.
func Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}

// ListActivities handles GET /activities
// Returns every activity keyed by name.
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Activities())
}

// Signup handles POST /activities/{activity_name}/signup?email=
// Appends the email to the activity's roster.
func (h *ActivityHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name, email, ok := rosterParams(w, r)
	if !ok {
		return
	}

	change, err := h.reg.Signup(name, email)
	if err != nil {
		h.writeRosterError(w, err)
		return
	}

	h.log.Info("participant signed up",
		"activity", name, "email", email, "change_id", change.ID)
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

// Unregister handles POST /activities/{activity_name}/unregister?email=
// Removes the email from the activity's roster.
func (h *ActivityHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	name, email, ok := rosterParams(w, r)
	if !ok {
		return
	}

	change, err := h.reg.Unregister(name, email)
	if err != nil {
		h.writeRosterError(w, err)
		return
	}

	h.log.Info("participant unregistered",
		"activity", name, "email", email, "change_id", change.ID)
	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, name),
	})
}

// History handles GET /activities/{activity_name}/history
// Returns the roster changes recorded for one activity.
func (h *ActivityHandler) History(w http.ResponseWriter, r *http.Request) {
	name, err := activityName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity name")
		return
	}

	changes, err := h.reg.History(name)
	if err != nil {
		h.writeRosterError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, changes)
}

func (h *ActivityHandler) writeRosterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownActivity):
		writeError(w, http.StatusNotFound, "Activity not found")
	case errors.Is(err, registry.ErrParticipantNotRegistered):
		writeError(w, http.StatusNotFound, "Student is not signed up for this activity")
	case errors.Is(err, registry.ErrActivityFull):
		writeError(w, http.StatusConflict, "Activity is full")
	case errors.Is(err, registry.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "Student is already signed up for this activity")
	default:
		h.log.Error("roster operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
