// Package session installs the upstream credentials used by the control
// proxy. The relay holds exactly one session at a time; a new pair replaces
// the old one unconditionally.
package session

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/sonos-relay-go/internal/api"
	"github.com/strefethen/sonos-relay-go/internal/apperrors"
	"github.com/strefethen/sonos-relay-go/internal/auth"
	"github.com/strefethen/sonos-relay-go/internal/state"
)

// Recorder writes session changes to the audit log, best-effort.
type Recorder interface {
	Record(eventType, message string, payload map[string]any)
}

// RegisterRoutes wires the session routes to the router.
func RegisterRoutes(router chi.Router, store *state.Store, recorder Recorder) {
	router.Method(http.MethodPost, "/v1/session", api.Handler(setSession(store, recorder)))
	router.Method(http.MethodGet, "/v1/session", api.Handler(getSession(store)))
}

func setSession(store *state.Store, recorder Recorder) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var body struct {
			Token   string `json:"token"`
			GroupID string `json:"group_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return apperrors.NewValidationError("token and group_id are required", nil)
		}
		if body.Token == "" {
			return apperrors.NewValidationError("token is required", nil)
		}
		if body.GroupID == "" {
			return apperrors.NewValidationError("group_id is required", nil)
		}

		store.SetSession(body.Token, body.GroupID)
		log.Printf("SESSION: Credentials installed for group %s", body.GroupID)

		if recorder != nil {
			payload := map[string]any{"group_id": body.GroupID}
			if user, ok := auth.UserFromContext(r.Context()); ok {
				payload["device"] = user.DeviceName
			}
			recorder.Record("SESSION_UPDATED", "Session credentials replaced", payload)
		}

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":   "session",
			"ok":       true,
			"group_id": body.GroupID,
		})
	}
}

func getSession(store *state.Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, groupID, configured := store.Session()

		data := map[string]any{
			"object":     "session_status",
			"configured": configured,
		}
		if configured {
			data["group_id"] = groupID
		}
		return api.WriteResource(w, http.StatusOK, data)
	}
}
