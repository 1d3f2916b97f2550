package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel/internal/hub"
)

func TestClientSendNonBlocking(t *testing.T) {
	c := &Client{id: "x", send: make(chan []byte, 1)}

	require.NoError(t, c.Send([]byte("one")))
	assert.Error(t, c.Send([]byte("two")), "a full buffer must fail instead of blocking")
}

func startRelay(t *testing.T) (*hub.Registry, string) {
	t.Helper()

	registry := hub.NewRegistry()
	relay := hub.New(registry)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go relay.Run(ctx)

	server := httptest.NewServer(Handler(relay, ""))
	t.Cleanup(server.Close)

	return registry, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "dial websocket")
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err, "read frame")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	return decoded
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func TestRelayRoundTrip(t *testing.T) {
	registry, url := startRelay(t)

	a := dial(t, url)
	send(t, a, `{"type":"join","roomId":"live1"}`)

	frame := readFrame(t, a)
	assert.Equal(t, "userCount", frame["type"])
	assert.EqualValues(t, 1, frame["count"])

	b := dial(t, url)
	send(t, b, `{"type":"join","roomId":"live1"}`)

	frame = readFrame(t, a)
	assert.EqualValues(t, 2, frame["count"])
	frame = readFrame(t, b)
	assert.EqualValues(t, 2, frame["count"])

	// A draw reaches the other participant, not its sender.
	send(t, a, `{"type":"draw","path":[[1,2],[3,4]],"color":"#ff0000","width":5}`)

	frame = readFrame(t, b)
	assert.Equal(t, "draw", frame["type"])
	assert.Equal(t, "#ff0000", frame["color"])

	// Undo resynchronizes everyone, the sender included.
	send(t, b, `{"type":"undo"}`)

	for _, conn := range []*websocket.Conn{a, b} {
		frame = readFrame(t, conn)
		assert.Equal(t, "undo", frame["type"])
		assert.Empty(t, frame["paths"])
		assert.Len(t, frame["redoStack"], 1)
	}

	room, ok := registry.Get("live1")
	require.True(t, ok)
	assert.Equal(t, 0, room.Board().StrokeCount())

	// Nothing else is queued for the drawing client: its own stroke was
	// never echoed back.
	a.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := a.ReadMessage()
	assert.Error(t, err, "sender must not receive its own draw")
}

func TestRelayRoomTeardownOnDisconnect(t *testing.T) {
	registry, url := startRelay(t)

	a := dial(t, url)
	b := dial(t, url)
	send(t, a, `{"type":"join","roomId":"live2"}`)
	send(t, b, `{"type":"join","roomId":"live2"}`)

	require.Eventually(t, func() bool {
		room, ok := registry.Get("live2")
		return ok && room.ParticipantCount() == 2
	}, time.Second, 5*time.Millisecond)

	// Drain the presence updates from the two joins before triggering
	// the disconnect.
	assert.EqualValues(t, 1, readFrame(t, a)["count"])
	assert.EqualValues(t, 2, readFrame(t, a)["count"])

	b.Close()

	frame := readFrame(t, a)
	assert.Equal(t, "userCount", frame["type"])
	assert.EqualValues(t, 1, frame["count"])

	a.Close()

	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
