package httpserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader configures the WebSocket handshake.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; auth is handled at the HTTP layer.
	},
}

// progressFrame is one message pushed over the automation feed.
type progressFrame struct {
	Type        string `json:"type"` // "snapshot"
	Automations any    `json:"automations"`
}

// handleAutomationFeed handles GET /api/automations/ws. It upgrades the
// connection and pushes a full progress snapshot whenever the store
// changes. The subscriber callback only signals; the snapshot is taken
// and written by a dedicated goroutine so a slow client never blocks
// store mutations.
func (s *Server) handleAutomationFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[http] websocket upgrade error: %v", err)
		return
	}

	dirty := make(chan struct{}, 1)
	unsubscribe := s.deps.Progress.Subscribe(func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})

	// Reader: only watches for client disconnect.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			unsubscribe()
			conn.Close()
		}()

		write := func() bool {
			frame := progressFrame{Type: "snapshot", Automations: s.deps.Progress.List()}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(frame); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure,
				) {
					log.Printf("[http] automation feed write error: %v", err)
				}
				return false
			}
			return true
		}

		// Initial snapshot so clients render without waiting for a change.
		if !write() {
			return
		}
		for {
			select {
			case <-dirty:
				if !write() {
					return
				}
			case <-done:
				return
			}
		}
	}()
}
