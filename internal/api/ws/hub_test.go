package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(logging.NewNop())
	router := gin.New()
	router.GET("/stream", hub.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWelcomeFrame(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)

	ev := readEvent(t, conn)
	assert.Equal(t, "system", ev.Type)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, srv := newTestServer(t)

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	readEvent(t, c1) // welcome
	readEvent(t, c2)

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("flight.updated", map[string]any{"id": "101"})

	for _, conn := range []*websocket.Conn{c1, c2} {
		ev := readEvent(t, conn)
		assert.Equal(t, "flight.updated", ev.Type)
		payload, ok := ev.Payload.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "101", payload["id"])
	}
}

func TestPingPong(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)
	readEvent(t, conn) // welcome

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	ev := readEvent(t, conn)
	assert.Equal(t, "pong", ev.Type)
}

func TestDisconnectedClientIsRemoved(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)
	readEvent(t, conn)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)

	// Broadcasting with nobody listening is fine.
	hub.Broadcast("flight.updated", nil)
}

func TestOfferToDroppedClientIsSafe(t *testing.T) {
	hub := NewHub(logging.NewNop())
	cl := &client{send: make(chan event, 1)}
	hub.clients[cl] = struct{}{}

	// A dead connection can be dropped by the write loop between client
	// registration and the welcome frame. The send must notice the removal
	// instead of hitting the closed channel.
	delete(hub.clients, cl)
	close(cl.send)

	hub.offer(cl, event{Type: "system", Timestamp: time.Now().Unix()})
	assert.Equal(t, 0, hub.Clients())
}
