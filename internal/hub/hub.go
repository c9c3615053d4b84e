// Package hub fans ingested events out to connected websocket subscribers.
// Delivery is best-effort, at-most-once: no replay for late joiners and no
// acknowledgement back to the ingestion path.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// subscriber is one connected websocket client with a bounded outbound queue.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected subscribers and broadcasts messages to
// them. Sends never block the caller: a subscriber whose queue is full is
// disconnected rather than slowing ingestion down.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	sendBuffer  int
	closed      bool
}

// New creates a hub. sendBuffer is the per-subscriber queue depth.
func New(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		sendBuffer:  sendBuffer,
	}
}

// Broadcast queues message for every currently connected subscriber.
// Messages are enqueued in call order, so each subscriber observes events
// in ingestion order.
func (h *Hub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- message:
		default:
			// Queue full: the subscriber is too far behind to be useful.
			log.Printf("HUB: Dropping slow subscriber %s", sub.conn.RemoteAddr())
			delete(h.subscribers, sub)
			close(sub.send)
		}
	}
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close disconnects all subscribers and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subscribers {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}

// register adds a new subscriber. Returns false if the hub is closed.
func (h *Hub) register(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.subscribers[sub] = struct{}{}
	log.Printf("HUB: Subscriber connected from %s (%d connected)", sub.conn.RemoteAddr(), len(h.subscribers))
	return true
}

// unregister removes a subscriber if still present.
func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
		log.Printf("HUB: Subscriber disconnected from %s (%d connected)", sub.conn.RemoteAddr(), len(h.subscribers))
	}
}

// HandleConnection runs the subscriber's pumps until the connection drops.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
	}

	if !h.register(sub) {
		conn.Close()
		return
	}

	go sub.writePump()
	sub.readPump(h)
}

// readPump discards inbound frames; subscribers are listen-only. It exists
// to process control frames and to detect disconnects.
func (sub *subscriber) readPump(h *Hub) {
	defer func() {
		h.unregister(sub)
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (sub *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
