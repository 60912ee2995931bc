package websocket

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

	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.topics == nil {
		t.Error("Hub topics map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels must be initialized")
	}
	if hub.logger == nil {
		t.Error("Hub logger must default to a nop logger")
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(nil)

	client1 := &Client{hub: hub, topic: TopicRuns, send: make(chan []byte, 1)}
	client2 := &Client{hub: hub, topic: TopicRuns, send: make(chan []byte, 1)}

	hub.registerClient(client1)
	hub.registerClient(client2)
	assert.Equal(t, 2, hub.ClientCount(TopicRuns))

	hub.unregisterClient(client1)
	assert.Equal(t, 1, hub.ClientCount(TopicRuns))
	_, open := <-client1.send
	assert.False(t, open, "send channel must be closed on unregister")

	// unregistering twice is harmless
	hub.unregisterClient(client1)

	hub.unregisterClient(client2)
	_, exists := hub.topics[TopicRuns]
	assert.False(t, exists, "empty topics are cleaned up")
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub(nil)

	subscriber := &Client{hub: hub, topic: "a", send: make(chan []byte, 1)}
	other := &Client{hub: hub, topic: "b", send: make(chan []byte, 1)}
	hub.registerClient(subscriber)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{Topic: "a", Event: "ping", Data: "x"})

	select {
	case data := <-subscriber.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "a", msg.Topic)
		assert.Equal(t, "ping", msg.Event)
		assert.Equal(t, "x", msg.Data)
	default:
		t.Fatal("subscriber received nothing")
	}
	assert.Len(t, other.send, 0, "other topics must not receive the message")

	// a full queue drops the client
	hub.broadcastMessage(&Message{Topic: "a", Event: "one"})
	hub.broadcastMessage(&Message{Topic: "a", Event: "two"})
	assert.Equal(t, 0, hub.ClientCount("a"))
}

func TestHubBroadcastEventNeverBlocks(t *testing.T) {
	hub := NewHub(nil)

	// hub not running: the queue fills up and further events are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.BroadcastEvent(TopicRuns, "tick", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BroadcastEvent blocked")
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}

func TestHubBroadcastRun(t *testing.T) {
	hub := NewHub(nil)

	hub.BroadcastRun(nil)
	hub.BroadcastRun(&service.Run{ID: "no-result"})
	assert.Len(t, hub.broadcast, 0)

	hub.BroadcastRun(&service.Run{
		ID:     "r1",
		Source: service.SourceRaw,
		Result: &service.Result{Finals: []service.FinalState{{X: 1, Y: 3, Orientation: "N"}}},
	})

	msg := <-hub.broadcast
	assert.Equal(t, TopicRuns, msg.Topic)
	assert.Equal(t, EventRunCompleted, msg.Event)
	event, ok := msg.Data.(RunEvent)
	require.True(t, ok)
	assert.Equal(t, "r1", event.ID)
	assert.Equal(t, "1 3 N", event.Finals[0].String())
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		topic := r.URL.Query().Get("topic")
		if topic == "" {
			topic = TopicRuns
		}
		hub.ServeWS(w, r, topic)
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestWebSocketLifecycle(t *testing.T) {
	hub, wsURL := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?topic=lifecycle", nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("lifecycle") == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("lifecycle") == 0 })
}

func TestWebSocketReceivesRun(t *testing.T) {
	hub, wsURL := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount(TopicRuns) == 1 })

	hub.BroadcastRun(&service.Run{
		ID:     "run-42",
		Policy: "ignore",
		Result: &service.Result{
			Finals:  []service.FinalState{{X: 5, Y: 1, Orientation: "E"}},
			Summary: service.Summary{Robots: 1},
		},
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Topic string   `json:"topic"`
		Event string   `json:"event"`
		Data  RunEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, EventRunCompleted, msg.Event)
	assert.Equal(t, "run-42", msg.Data.ID)
	assert.Equal(t, 1, msg.Data.Summary.Robots)
	assert.Equal(t, "5 1 E", msg.Data.Finals[0].String())
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{hub: hub, topic: TopicRuns, send: make(chan []byte, 1)}
	hub.registerClient(client)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, hub.ClientCount(TopicRuns))
}
