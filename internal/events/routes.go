package events

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/sonos-relay-go/internal/api"
)

// ClassificationHeader carries the Sonos event type on webhook deliveries.
const ClassificationHeader = "X-Sonos-Type"

// RegisterRoutes wires the webhook endpoint to the router.
func RegisterRoutes(router chi.Router, ingestor *Ingestor) {
	router.Method(http.MethodPost, "/v1/webhook", api.Handler(handleWebhook(ingestor)))
}

// handleWebhook acknowledges every delivery with 200 regardless of parse
// outcome; a non-2xx here would put the Sonos push source into retry
// backoff and stall the whole feed.
func handleWebhook(ingestor *Ingestor) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			body = nil
		}

		classification := r.Header.Get(ClassificationHeader)

		headers := make(map[string]string, len(r.Header))
		for name := range r.Header {
			headers[name] = r.Header.Get(name)
		}

		ingestor.Ingest(classification, headers, body)

		return api.WriteAction(w, http.StatusOK, map[string]any{
			"object":   "webhook_ack",
			"received": true,
			"type":     classification,
		})
	}
}
