package brackets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.NewClient(conn, 7)
		if !hub.Join(client) {
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_NotifyFixtureReachesRoom(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	room := FixtureRoom(7)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	// other fixtures are not delivered
	hub.NotifyFixture(8, MessageMatchUpdated, map[string]int{"match_id": 1})
	hub.NotifyFixture(7, MessageBracketUpdated, map[string]int{"fixture_id": 7})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
		RoomID  string         `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageBracketUpdated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
	assert.Equal(t, 7, msg.Payload["fixture_id"])
}

func TestHub_ClientLeavesRoomOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	room := FixtureRoom(7)
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFixtureRoom(t *testing.T) {
	assert.Equal(t, "fixture:12", FixtureRoom(12))
}

func TestHub_JoinAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	joined := make(chan bool, 1)
	go func() { joined <- hub.Join(hub.NewClient(nil, 7)) }()
	select {
	case ok := <-joined:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join blocked on a stopped hub")
	}
	assert.Zero(t, hub.RoomSize(FixtureRoom(7)))
}
