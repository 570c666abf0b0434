package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/transcriber"
)

// dialDashboard connects a WebSocket client to a router under test.
func dialDashboard(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws/dashboard"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial dashboard: %v", err)
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("Failed to decode frame %q: %v", payload, err)
	}
	return frame
}

func TestDashboard_PingPong(t *testing.T) {
	deps, _ := testSetup(t)
	ts := httptest.NewServer(NewRouter(deps))
	defer ts.Close()

	conn := dialDashboard(t, ts)

	if err := conn.WriteJSON(map[string]string{"action": "ping"}); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "pong" {
		t.Errorf("Expected pong, got %v", frame)
	}
}

func TestDashboard_SubscribeAck(t *testing.T) {
	deps, _ := testSetup(t)
	ts := httptest.NewServer(NewRouter(deps))
	defer ts.Close()

	conn := dialDashboard(t, ts)

	if err := conn.WriteJSON(map[string]string{"action": "subscribe", "call_id": "call-1"}); err != nil {
		t.Fatalf("Failed to send subscribe: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != "subscribed" {
		t.Errorf("Expected subscribed, got %v", frame)
	}
	if frame["call_id"] != "call-1" {
		t.Errorf("Expected call_id 'call-1', got %v", frame["call_id"])
	}

	if deps.Hub.SubscriberCount("call-1") != 1 {
		t.Errorf("Expected 1 subscriber, got %d", deps.Hub.SubscriberCount("call-1"))
	}
}

func TestDashboard_ReceivesCallUpdates(t *testing.T) {
	deps, _ := testSetup(t)
	ts := httptest.NewServer(NewRouter(deps))
	defer ts.Close()

	conn := dialDashboard(t, ts)

	// Wait for the peer to be attached before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for deps.Hub.PeerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Peer was never attached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	result := &transcriber.Result{Transcript: "hello world", Sentiment: "positive"}
	deps.Hub.Publish("call-1", models.StateCompleted, result)

	frame := readFrame(t, conn)
	if frame["type"] != "call_update" {
		t.Errorf("Expected call_update, got %v", frame)
	}
	if frame["call_id"] != "call-1" {
		t.Errorf("Expected call_id 'call-1', got %v", frame["call_id"])
	}
	if frame["state"] != "COMPLETED" {
		t.Errorf("Expected state COMPLETED, got %v", frame["state"])
	}
	aiResult, ok := frame["ai_result"].(map[string]any)
	if !ok {
		t.Fatalf("Expected ai_result object, got %v", frame["ai_result"])
	}
	if aiResult["transcript"] != "hello world" {
		t.Errorf("Expected transcript 'hello world', got %v", aiResult["transcript"])
	}
}

// TestDashboard_SubscriberReceivesTwice pins the fan-out contract: a peer
// subscribed to a call receives its updates once through the subscription and
// once through the global broadcast.
func TestDashboard_SubscriberReceivesTwice(t *testing.T) {
	deps, _ := testSetup(t)
	ts := httptest.NewServer(NewRouter(deps))
	defer ts.Close()

	conn := dialDashboard(t, ts)

	if err := conn.WriteJSON(map[string]string{"action": "subscribe", "call_id": "call-1"}); err != nil {
		t.Fatalf("Failed to send subscribe: %v", err)
	}
	if frame := readFrame(t, conn); frame["type"] != "subscribed" {
		t.Fatalf("Expected subscribed ack, got %v", frame)
	}

	deps.Hub.Publish("call-1", models.StateProcessingAI, nil)

	first := readFrame(t, conn)
	second := readFrame(t, conn)
	for i, frame := range []map[string]any{first, second} {
		if frame["type"] != "call_update" {
			t.Errorf("Frame %d: expected call_update, got %v", i, frame)
		}
		if frame["state"] != "PROCESSING_AI" {
			t.Errorf("Frame %d: expected state PROCESSING_AI, got %v", i, frame)
		}
	}
}

func TestDashboard_DetachOnClose(t *testing.T) {
	deps, _ := testSetup(t)
	ts := httptest.NewServer(NewRouter(deps))
	defer ts.Close()

	conn := dialDashboard(t, ts)

	deadline := time.Now().Add(2 * time.Second)
	for deps.Hub.PeerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Peer was never attached")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for deps.Hub.PeerCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Peer was never detached, count %d", deps.Hub.PeerCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
