package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

func dialStream(t *testing.T, serverURL, orderID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/api/orders/" + orderID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestStreamSendsConnectedFrame(t *testing.T) {
	router, _, _, _ := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialStream(t, srv.URL, "order-1")
	defer conn.Close()

	frame := readFrame(t, conn)
	assert.Equal(t, "connected", frame["type"])
	assert.Equal(t, "order-1", frame["order_id"])
	assert.NotEmpty(t, frame["timestamp"])
}

func TestStreamDeliversPublishedEvents(t *testing.T) {
	router, _, _, broadcaster := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialStream(t, srv.URL, "order-2")
	defer conn.Close()

	readFrame(t, conn) // connected

	require.Eventually(t, func() bool {
		return broadcaster.SubscriberCount("order-2") == 1
	}, time.Second, 5*time.Millisecond)

	broadcaster.Publish("order-2", models.StatusEvent{
		OrderID:   "order-2",
		Status:    models.StatusRouting,
		Timestamp: time.Now().UTC(),
		Message:   "raydium offers a 0.30% better net rate than orca",
	})

	frame := readFrame(t, conn)
	assert.Equal(t, "order-2", frame["order_id"])
	assert.Equal(t, "routing", frame["status"])
	assert.Contains(t, frame["message"], "net rate")
}

func TestStreamAnswersPing(t *testing.T) {
	router, _, _, _ := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialStream(t, srv.URL, "order-3")
	defer conn.Close()

	readFrame(t, conn) // connected

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])
	assert.NotEmpty(t, frame["timestamp"])
}

func TestStreamIgnoresMalformedFrames(t *testing.T) {
	router, _, _, broadcaster := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn := dialStream(t, srv.URL, "order-4")
	defer conn.Close()

	readFrame(t, conn) // connected

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json at all")))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	// The malformed frame is ignored; the ping still gets its pong.
	frame := readFrame(t, conn)
	assert.Equal(t, "pong", frame["type"])

	require.Eventually(t, func() bool {
		return broadcaster.SubscriberCount("order-4") == 1
	}, time.Second, 5*time.Millisecond, "connection must survive malformed input")
}

func TestStreamMultipleSubscribersSameOrder(t *testing.T) {
	router, _, _, broadcaster := newTestRouter()
	srv := httptest.NewServer(router)
	defer srv.Close()

	connA := dialStream(t, srv.URL, "order-5")
	defer connA.Close()
	connB := dialStream(t, srv.URL, "order-5")
	defer connB.Close()

	readFrame(t, connA)
	readFrame(t, connB)

	require.Eventually(t, func() bool {
		return broadcaster.SubscriberCount("order-5") == 2
	}, time.Second, 5*time.Millisecond)

	broadcaster.Publish("order-5", models.StatusEvent{
		OrderID:   "order-5",
		Status:    models.StatusConfirmed,
		Timestamp: time.Now().UTC(),
	})

	frameA := readFrame(t, connA)
	frameB := readFrame(t, connB)
	assert.Equal(t, frameA["status"], frameB["status"])
	assert.Equal(t, "confirmed", frameA["status"])
}
