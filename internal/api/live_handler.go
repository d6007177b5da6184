package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// Subscriber is the part of events.Hub the live channel needs.
type Subscriber interface {
	Subscribe() *events.Subscription
	SubscribeUser(email string) *events.Subscription
	Unsubscribe(sub *events.Subscription)
}

// LiveHandler streams change events to websocket clients. Each connection
// gets its own hub subscription and writer goroutine; a client that cannot
// keep up loses its oldest queued events rather than stalling writers.
type LiveHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a LiveHandler over hub.
func NewLiveHandler(hub Subscriber) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Browsers on other origins are allowed, matching the open CORS policy
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /live[?email=]. Without an email every user's
// events are streamed.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	var sub *events.Subscription
	if email := r.URL.Query().Get("email"); email != "" {
		sub = h.hub.SubscribeUser(email)
	} else {
		sub = h.hub.Subscribe()
	}
	defer h.hub.Unsubscribe(sub)

	log = log.With("subscription_id", sub.ID())
	log.Info("live client connected", "filtered", sub.UserEmail() != "")

	done := make(chan struct{})
	go readPump(conn, done)

	writePump(conn, sub, done, log)
	log.Info("live client disconnected", "dropped", sub.Dropped())
}

// readPump consumes control frames so pongs and close messages are
// processed. Clients are not expected to send data. It closes done when the
// connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump delivers queued events and periodic pings until the
// subscription closes or the client goes away.
func writePump(conn *websocket.Conn, sub *events.Subscription, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Debug("failed to write event", "error", err, "event_id", event.ID)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
