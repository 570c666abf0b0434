package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/hub"
	"github.com/voxhall/callstream/pkg/metrics"
)

const (
	pongWait       = 60 * time.Second // Time allowed to read the next pong
	pingPeriod     = 30 * time.Second // Send pings at this interval (must be < pongWait)
	writeWait      = 10 * time.Second // Time allowed to write a message
	maxMessageSize = 4096             // Client frames are small control messages
	sendBuffer     = 256              // Per-peer outbound queue
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The dashboard may be served from a different origin than the API.
	CheckOrigin: func(*http.Request) bool { return true },
}

var (
	errPeerClosed    = errors.New("peer connection closed")
	errSendQueueFull = errors.New("peer send queue full")
)

// DashboardHandler upgrades dashboard clients to WebSocket and bridges them
// onto the notification hub.
//
// Client frames:
//
//	{"action": "subscribe", "call_id": "abc123"}
//	{"action": "ping"}
//
// Server frames:
//
//	{"type": "subscribed", "call_id": "abc123"}
//	{"type": "pong"}
//	{"type": "call_update", "call_id": ..., "state": ..., "timestamp": ..., "ai_result": ...}
type DashboardHandler struct {
	hub     *hub.Hub
	metrics metrics.CallMetrics
}

// NewDashboardHandler creates a new dashboard WebSocket handler. The metrics
// instance may be nil.
func NewDashboardHandler(h *hub.Hub, m metrics.CallMetrics) *DashboardHandler {
	return &DashboardHandler{hub: h, metrics: m}
}

// Dashboard handles GET /ws/dashboard.
//
// Every connected client receives all call updates; subscribing to a call
// additionally delivers that call's updates through the per-call channel
// (dual subscribers see duplicates, which the dashboard tolerates).
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		logger.Warn("WebSocket upgrade failed", logger.Err(err))
		return
	}

	peer := newWSPeer(conn)
	h.hub.Attach(peer)
	if h.metrics != nil {
		h.metrics.WSConnections(1)
	}
	logger.Info("Dashboard client connected", logger.ClientIP(r.RemoteAddr))

	go peer.writePump()
	peer.readPump(h.hub)

	h.hub.Detach(peer)
	if h.metrics != nil {
		h.metrics.WSConnections(-1)
	}
	logger.Info("Dashboard client disconnected", logger.ClientIP(r.RemoteAddr))
}

// clientFrame is a control message sent by the dashboard.
type clientFrame struct {
	Action string `json:"action"`
	CallID string `json:"call_id"`
}

// wsPeer adapts one WebSocket connection to the hub.Peer interface.
//
// All writes go through the send channel and writePump; readPump is the only
// reader. This keeps the connection single-writer and single-reader as
// gorilla/websocket requires.
type wsPeer struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues a call update for delivery. It never blocks: a full queue
// means the client cannot keep up, and the resulting error makes the hub
// detach the peer.
func (p *wsPeer) Send(event *hub.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.enqueue(payload)
}

func (p *wsPeer) enqueue(payload []byte) error {
	select {
	case <-p.done:
		return errPeerClosed
	default:
	}

	select {
	case p.send <- payload:
		return nil
	case <-p.done:
		return errPeerClosed
	default:
		return errSendQueueFull
	}
}

// close shuts the peer down exactly once. Both pumps call it on exit, so
// either side failing tears the whole connection down.
func (p *wsPeer) close() {
	p.once.Do(func() {
		close(p.done)
		_ = p.conn.Close()
	})
}

// readPump reads control frames until the connection drops. It is the only
// goroutine reading from the connection.
func (p *wsPeer) readPump(h *hub.Hub) {
	defer p.close()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket read failed", logger.Err(err))
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			logger.Debug("Ignoring malformed dashboard frame", logger.Err(err))
			continue
		}

		switch frame.Action {
		case "subscribe":
			if frame.CallID == "" {
				continue
			}
			h.Subscribe(p, frame.CallID)
			p.reply(map[string]string{"type": "subscribed", "call_id": frame.CallID})
		case "ping":
			p.reply(map[string]string{"type": "pong"})
		default:
			// Unknown actions are ignored so clients can be newer than the server.
		}
	}
}

// reply queues a control response. Failures are ignored; the pumps tear the
// connection down on their own when the peer is gone.
func (p *wsPeer) reply(frame map[string]string) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = p.enqueue(payload)
}

// writePump serializes all writes to the connection: queued events, control
// replies, and keepalive pings.
func (p *wsPeer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case payload := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// Drain whatever queued up while we were writing.
			n := len(p.send)
			for i := 0; i < n; i++ {
				_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := p.conn.WriteMessage(websocket.TextMessage, <-p.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-p.done:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
