package control

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/sonos-relay-go/internal/api"
	"github.com/strefethen/sonos-relay-go/internal/state"
)

// RegisterRoutes wires the playback command and query routes to the router.
func RegisterRoutes(router chi.Router, client *Client, store *state.Store) {
	router.Method(http.MethodPost, "/v1/playback/play", api.Handler(commandHandler(client, ActionPlay)))
	router.Method(http.MethodPost, "/v1/playback/pause", api.Handler(commandHandler(client, ActionPause)))
	router.Method(http.MethodPost, "/v1/playback/toggle", api.Handler(commandHandler(client, ActionToggle)))
	router.Method(http.MethodGet, "/v1/playback", api.Handler(getPlayback(store)))
}

func commandHandler(client *Client, action Action) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		playing, err := client.Execute(r.Context(), action)
		if err != nil {
			return err
		}

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":     "playback_command",
			"ok":         true,
			"action":     string(action),
			"is_playing": playing,
		})
	}
}

// getPlayback is the pull endpoint for polling consumers. It always
// succeeds; an absent session surfaces as a null group, not an error.
func getPlayback(store *state.Store) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		snap := store.Snapshot()

		return api.WriteResource(w, http.StatusOK, map[string]any{
			"object":           "playback_state",
			"track_name":       snap.TrackName,
			"artist_name":      snap.ArtistName,
			"container_name":   snap.ContainerName,
			"is_playing":       snap.IsPlaying,
			"session_group_id": snap.SessionGroupID,
		})
	}
}
