package monitor

import (
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/studiolumen/light-puppet/pkg/state"
)

// startTestServer serves on an ephemeral port and returns the ws base
// URL, so parallel packages and busy hosts cannot collide.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer(0, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	go s.Serve(ln)
	t.Cleanup(func() { s.Shutdown() })
	return s, "ws://" + ln.Addr().String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	s := NewServer(0, nil)

	s.PublishSnapshot(Snapshot{
		Proximity:      "close",
		Expression:     "smile",
		Gesture:        "none",
		ProximityValue: 0.8,
		Frames:         42,
	})

	req := httptest.NewRequest("GET", "/api/state", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if snap.Proximity != "close" {
		t.Errorf("Proximity = %s, want close", snap.Proximity)
	}
	if snap.ProximityValue != 0.8 {
		t.Errorf("ProximityValue = %v, want 0.8", snap.ProximityValue)
	}
	if snap.Frames != 42 {
		t.Errorf("Frames = %d, want 42", snap.Frames)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s := NewServer(0, map[string]int{"debounce_frames": 5})

	req := httptest.NewRequest("GET", "/api/config", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "debounce_frames") {
		t.Errorf("Response %s should contain debounce_frames", body)
	}
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	s := NewServer(0, nil)

	req := httptest.NewRequest("GET", "/ws/state", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != 426 {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}

func TestHubBroadcastReachesClient(t *testing.T) {
	h := NewHub("test")
	go h.Run()

	c := &client{hub: h, out: make(chan Message, 8)}
	h.register <- c

	h.BroadcastJSON(map[string]string{"type": "ping"})

	select {
	case msg := <-c.out:
		if msg.Type != JSONMessage {
			t.Errorf("Type = %d, want JSONMessage", msg.Type)
		}
		if !strings.Contains(string(msg.Data), "ping") {
			t.Errorf("Data = %s, want ping payload", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub("test")
	go h.Run()

	c := &client{hub: h, out: make(chan Message, 1)}
	h.register <- c

	// Nobody reads c.out, so the second delivery cannot be queued.
	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})
	h.BroadcastBinary([]byte{3})

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want 0 after overflow", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubUnregisterClosesOut(t *testing.T) {
	h := NewHub("test")
	go h.Run()

	c := &client{hub: h, out: make(chan Message, 8)}
	h.register <- c
	h.unregister <- c

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want 0 after unregister", h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case _, ok := <-c.out:
		if ok {
			t.Error("out channel should be closed after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("out channel was not closed")
	}
}

func TestStateFeedDeliversChanges(t *testing.T) {
	s, base := startTestServer(t)

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/state", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	waitFor(t, "state client registration", func() bool { return s.stateHub.ClientCount() == 1 })

	s.PublishChange(state.Change{Field: state.FieldProximity, Value: string(state.ProximityClose)})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	var event map[string]string
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if event["type"] != "change" {
		t.Errorf("type = %s, want change", event["type"])
	}
	if event["field"] != "proximity" {
		t.Errorf("field = %s, want proximity", event["field"])
	}
	if event["value"] != "close" {
		t.Errorf("value = %s, want close", event["value"])
	}
}

func TestViewerInputDoesNotDisturbFeed(t *testing.T) {
	s, base := startTestServer(t)

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/state", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	waitFor(t, "state client registration", func() bool { return s.stateHub.ClientCount() == 1 })

	// The feed is one-way; whatever a viewer sends is discarded.
	if err := ws.WriteMessage(websocket.TextMessage, []byte("hello?")); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	s.PublishChange(state.Change{Field: state.FieldGesture, Value: string(state.GesturePeekaboo)})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !strings.Contains(string(data), "peekaboo") {
		t.Errorf("event = %s, want the peekaboo change", data)
	}
	if s.stateHub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1 after viewer input", s.stateHub.ClientCount())
	}
}

func TestCameraFeedDeliversFrames(t *testing.T) {
	s, base := startTestServer(t)

	if s.Watching() {
		t.Error("Watching should be false before any client connects")
	}

	// Frames without a watcher are discarded, not queued.
	s.SendFrame([]byte("stale"))

	ws, _, err := websocket.DefaultDialer.Dial(base+"/ws/camera", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	waitFor(t, "camera client registration", func() bool { return s.Watching() })

	frame := []byte{0xff, 0xd8, 0xff, 0xe0}
	s.SendFrame(frame)

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("message type = %d, want binary", msgType)
	}
	if string(data) != string(frame) {
		t.Errorf("frame = %v, want %v", data, frame)
	}
}
