// Package events receives Sonos webhook deliveries, folds them into the
// state store, and relays every delivery verbatim to connected subscribers.
package events

import (
	"encoding/json"
	"log"

	"github.com/strefethen/sonos-relay-go/internal/state"
)

// Broadcaster pushes relayed events to real-time subscribers.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Recorder writes relay activity to the audit log. Implementations must be
// best-effort: ingestion never fails because history could not be written.
type Recorder interface {
	Record(eventType, message string, payload map[string]any)
}

// Envelope is the message relayed to subscribers: the webhook's headers and
// body exactly as received.
type Envelope struct {
	Headers map[string]string `json:"headers"`
	Payload json.RawMessage   `json:"payload"`
}

// Ingestor classifies webhook deliveries and applies them to the store.
type Ingestor struct {
	store       *state.Store
	broadcaster Broadcaster
	recorder    Recorder
}

// NewIngestor creates an ingestor. recorder may be nil.
func NewIngestor(store *state.Store, broadcaster Broadcaster, recorder Recorder) *Ingestor {
	return &Ingestor{
		store:       store,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

// Ingest applies one webhook delivery. The classification decides which
// state fields change; it never decides whether the event is relayed.
// Malformed or partial payloads default silently - a webhook delivery must
// never be answered with a failure that could trigger upstream retries.
func (ing *Ingestor) Ingest(classification string, headers map[string]string, body []byte) {
	switch classification {
	case TypeMetadataStatus:
		var data MetadataStatusData
		if err := json.Unmarshal(body, &data); err != nil {
			log.Printf("WEBHOOK: Failed to parse metadataStatus payload: %v", err)
		}
		ing.store.SetNowPlaying(data.TrackName(), data.ArtistName(), data.ContainerName())
		log.Printf("WEBHOOK: metadataStatus track=%q artist=%q container=%q",
			data.TrackName(), data.ArtistName(), data.ContainerName())

	case TypePlaybackStatus:
		var data PlaybackStatusData
		if err := json.Unmarshal(body, &data); err != nil {
			log.Printf("WEBHOOK: Failed to parse playbackStatus payload: %v", err)
		}
		playing := isAudiblyActive(data.PlaybackState)
		ing.store.SetPlaying(playing)
		log.Printf("WEBHOOK: playbackStatus state=%s playing=%v", data.PlaybackState, playing)

	default:
		log.Printf("WEBHOOK: Relaying unhandled event type: %s", classification)
	}

	ing.relay(classification, headers, body)

	if ing.recorder != nil {
		ing.recorder.Record("WEBHOOK_RECEIVED", "Webhook event ingested", map[string]any{
			"type": classification,
		})
	}
}

// relay forwards the delivery to subscribers. Bodies that are not valid
// JSON are wrapped as a JSON string so the envelope stays well-formed.
func (ing *Ingestor) relay(classification string, headers map[string]string, body []byte) {
	payload := json.RawMessage(body)
	if !json.Valid(body) {
		quoted, err := json.Marshal(string(body))
		if err != nil {
			return
		}
		payload = quoted
	}

	envelope, err := json.Marshal(Envelope{Headers: headers, Payload: payload})
	if err != nil {
		log.Printf("WEBHOOK: Failed to encode relay envelope for %s: %v", classification, err)
		return
	}
	ing.broadcaster.Broadcast(envelope)
}
