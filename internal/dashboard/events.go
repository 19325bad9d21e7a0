package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/foresight/internal/audit"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is the incoming websocket message format. Only "ping" is
// understood.
type clientMessage struct {
	Type string `json:"type"`
}

// event is the outgoing websocket message format.
type event struct {
	Type    string       `json:"type"` // "audit", "pong" or "error"
	Entry   *audit.Entry `json:"entry,omitempty"`
	Message string       `json:"message,omitempty"`
}

// handleWebSocket streams audit entries to the client as they are recorded.
// A single goroutine writes to the connection; the read loop hands replies
// to it over a channel.
func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var entries <-chan audit.Entry
	if d.feed != nil {
		ch, cancel := d.feed.Subscribe()
		defer cancel()
		entries = ch
	}

	replies := make(chan event, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					d.logger.Debug("websocket read failed", "error", err)
				}
				return
			}
			var m clientMessage
			var reply event
			switch {
			case json.Unmarshal(msg, &m) != nil:
				reply = event{Type: "error", Message: "invalid message format"}
			case m.Type == "ping":
				reply = event{Type: "pong"}
			default:
				reply = event{Type: "error", Message: "unknown message type: " + m.Type}
			}
			select {
			case replies <- reply:
			default:
			}
		}
	}()

	for {
		var out event
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case reply := <-replies:
			out = reply
		case e, ok := <-entries:
			if !ok {
				return
			}
			out = event{Type: "audit", Entry: &e}
		}
		if err := conn.WriteJSON(out); err != nil {
			d.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}
