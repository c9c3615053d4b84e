package events

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/sonos-relay-go/internal/state"
)

type captureBroadcaster struct {
	messages [][]byte
}

func (b *captureBroadcaster) Broadcast(message []byte) {
	b.messages = append(b.messages, message)
}

func TestIngest_PlaybackStatus(t *testing.T) {
	cases := []struct {
		playbackState string
		wantPlaying   bool
	}{
		{"PLAYING", true},
		{"BUFFERING", true},
		{"PAUSED_PLAYBACK", false},
		{"IDLE", false},
	}

	for _, tc := range cases {
		t.Run(tc.playbackState, func(t *testing.T) {
			store := state.NewStore()
			ingestor := NewIngestor(store, &captureBroadcaster{}, nil)

			ingestor.Ingest(TypePlaybackStatus, nil, []byte(`{"playbackState":"`+tc.playbackState+`"}`))

			require.Equal(t, tc.wantPlaying, store.Snapshot().IsPlaying)
		})
	}
}

func TestIngest_MetadataStatus(t *testing.T) {
	store := state.NewStore()
	ingestor := NewIngestor(store, &captureBroadcaster{}, nil)

	ingestor.Ingest(TypeMetadataStatus, nil, []byte(`{
		"container": {"name": "Morning Mix"},
		"currentItem": {"track": {"name": "Holocene", "artist": {"name": "Bon Iver"}}}
	}`))

	snap := store.Snapshot()
	require.Equal(t, "Holocene", snap.TrackName)
	require.Equal(t, "Bon Iver", snap.ArtistName)
	require.Equal(t, "Morning Mix", snap.ContainerName)
}

func TestIngest_MetadataStatusPartialPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"missing track", `{"currentItem": {}}`},
		{"missing artist", `{"currentItem": {"track": {"name": "Solo"}}}`},
		{"not json", `<EventData>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := state.NewStore()
			ingestor := NewIngestor(store, &captureBroadcaster{}, nil)

			// Must not panic; missing paths default to empty strings.
			ingestor.Ingest(TypeMetadataStatus, nil, []byte(tc.body))

			snap := store.Snapshot()
			require.Equal(t, "", snap.ArtistName)
			require.Equal(t, "", snap.ContainerName)
		})
	}
}

func TestIngest_UnknownTypeStillRelayed(t *testing.T) {
	store := state.NewStore()
	broadcaster := &captureBroadcaster{}
	ingestor := NewIngestor(store, broadcaster, nil)

	ingestor.Ingest("groupVolume", map[string]string{"X-Sonos-Type": "groupVolume"}, []byte(`{"volume":12}`))

	// No state change, but the event is relayed verbatim.
	require.False(t, store.Snapshot().IsPlaying)
	require.Len(t, broadcaster.messages, 1)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(broadcaster.messages[0], &envelope))
	require.Equal(t, "groupVolume", envelope.Headers["X-Sonos-Type"])
	require.JSONEq(t, `{"volume":12}`, string(envelope.Payload))
}

func TestIngest_NonJSONBodyRelayedAsString(t *testing.T) {
	broadcaster := &captureBroadcaster{}
	ingestor := NewIngestor(state.NewStore(), broadcaster, nil)

	ingestor.Ingest(TypePlaybackStatus, nil, []byte(`not-json`))

	require.Len(t, broadcaster.messages, 1)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(broadcaster.messages[0], &envelope))
	require.Equal(t, `"not-json"`, string(envelope.Payload))
}

func TestWebhookRoute_AlwaysAcks200(t *testing.T) {
	store := state.NewStore()
	broadcaster := &captureBroadcaster{}
	router := chi.NewRouter()
	RegisterRoutes(router, NewIngestor(store, broadcaster, nil))

	bodies := []string{
		`{{{ garbage`,
		``,
		`{"playbackState":"PLAYING"}`,
	}

	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/v1/webhook", strings.NewReader(body))
		req.Header.Set(ClassificationHeader, TypePlaybackStatus)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var ack map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
		require.Equal(t, true, ack["received"])
		require.Equal(t, TypePlaybackStatus, ack["type"])
	}

	require.Len(t, broadcaster.messages, len(bodies))
	require.True(t, store.Snapshot().IsPlaying)
}
