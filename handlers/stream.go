package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const subscriberBuffer = 32

// GET /orders/:id/stream
// StreamOrderStatus upgrades the connection and pushes every lifecycle
// transition of the order until the client disconnects.
func (h *OrderHandler) StreamOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events := make(chan models.StatusEvent, subscriberBuffer)
	subID := h.Broadcaster.Subscribe(orderID, events)
	defer h.Broadcaster.Unsubscribe(subID)

	if err := conn.WriteJSON(models.StatusEvent{
		Type:      "connected",
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return
	}

	pings := make(chan struct{}, 4)
	done := make(chan struct{})
	go readPump(conn, pings, done)

	for {
		select {
		case <-done:
			return
		case <-pings:
			if err := conn.WriteJSON(gin.H{"type": "pong", "timestamp": time.Now().UTC()}); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				// Broadcaster shut down.
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Str("order_id", orderID).Msg("stream write failed")
				return
			}
		}
	}
}

// readPump answers ping frames and ignores everything malformed.
func readPump(conn *websocket.Conn, pings chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
