package hub

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients connect from their own origin
	},
}

// RegisterRoutes wires the websocket endpoint to the router.
func RegisterRoutes(router chi.Router, h *Hub) {
	router.HandleFunc("/ws/events", websocketHandler(h))
}

func websocketHandler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade failed - error already written to response
			return
		}

		go h.HandleConnection(conn)
	}
}
