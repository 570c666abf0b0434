// Package hub implements the in-memory notification fan-out for call
// lifecycle events.
//
// The hub tracks two registries: the set of all attached peers, and a
// per-call subscription index. Publishing a call update delivers the event
// to the call's subscribers first and then to every attached peer; a peer
// registered in both places receives the event twice. Peers whose Send
// fails are detached.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/voxhall/callstream/internal/logger"
	"github.com/voxhall/callstream/pkg/metrics"
	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/transcriber"
)

// EventTypeCallUpdate is the type tag carried by call lifecycle events.
const EventTypeCallUpdate = "call_update"

// Event is a call lifecycle notification pushed to observers.
type Event struct {
	Type      string              `json:"type"`
	CallID    string              `json:"call_id"`
	State     models.CallState    `json:"state"`
	Timestamp string              `json:"timestamp"`
	AIResult  *transcriber.Result `json:"ai_result,omitempty"`
}

// Peer is a connected observer capable of receiving events. Send must be
// safe for concurrent use; a returned error marks the peer as unreachable
// and causes the hub to detach it.
type Peer interface {
	Send(event *Event) error
}

// Hub fans call lifecycle events out to attached peers. The zero value is
// not usable; construct with New. All methods are safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	peers       map[Peer]struct{}
	subscribers map[string]map[Peer]struct{}

	metrics metrics.CallMetrics
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		peers:       make(map[Peer]struct{}),
		subscribers: make(map[string]map[Peer]struct{}),
	}
}

// SetMetrics attaches a metrics sink for published event counts. Call it
// before the hub is shared between goroutines; a nil sink disables
// recording.
func (h *Hub) SetMetrics(m metrics.CallMetrics) {
	h.metrics = m
}

// Attach registers a peer for all call updates. Attaching an already
// attached peer is a no-op.
func (h *Hub) Attach(peer Peer) {
	h.mu.Lock()
	h.peers[peer] = struct{}{}
	count := len(h.peers)
	h.mu.Unlock()

	logger.Debug("Observer attached", slog.Int(logger.KeyCount, count))
}

// Detach removes a peer from the global registry and from every per-call
// subscription. Detaching an unknown peer is a no-op.
func (h *Hub) Detach(peer Peer) {
	h.mu.Lock()
	delete(h.peers, peer)
	for callID, set := range h.subscribers {
		delete(set, peer)
		if len(set) == 0 {
			delete(h.subscribers, callID)
		}
	}
	count := len(h.peers)
	h.mu.Unlock()

	logger.Debug("Observer detached", slog.Int(logger.KeyCount, count))
}

// Subscribe registers a peer for updates about one call. Subscribing does
// not require the peer to be attached globally.
func (h *Hub) Subscribe(peer Peer, callID string) {
	h.mu.Lock()
	set, ok := h.subscribers[callID]
	if !ok {
		set = make(map[Peer]struct{})
		h.subscribers[callID] = set
	}
	set[peer] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	logger.Debug("Observer subscribed to call",
		logger.CallID(callID),
		slog.Int(logger.KeySubscribers, count))
}

// Publish delivers a call update to the call's subscribers and then to all
// attached peers. Peers whose Send fails are detached. Publish never
// returns an error to the caller.
func (h *Hub) Publish(callID string, state models.CallState, aiResult *transcriber.Result) {
	event := &Event{
		Type:      EventTypeCallUpdate,
		CallID:    callID,
		State:     state,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		AIResult:  aiResult,
	}

	h.mu.RLock()
	targets := make([]Peer, 0, len(h.subscribers[callID])+len(h.peers))
	for peer := range h.subscribers[callID] {
		targets = append(targets, peer)
	}
	for peer := range h.peers {
		targets = append(targets, peer)
	}
	h.mu.RUnlock()

	var failed []Peer
	for _, peer := range targets {
		if err := peer.Send(event); err != nil {
			logger.Warn("Detaching unreachable observer",
				logger.CallID(callID),
				logger.Err(err))
			failed = append(failed, peer)
		}
	}
	for _, peer := range failed {
		h.Detach(peer)
	}

	if h.metrics != nil && len(targets) > 0 {
		h.metrics.EventsPublished(len(targets))
	}

	logger.Debug("Published call update",
		logger.CallID(callID),
		logger.State(string(state)),
		slog.Int(logger.KeySubscribers, len(targets)))
}

// PeerCount reports the number of globally attached peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// SubscriberCount reports the number of peers subscribed to one call.
func (h *Hub) SubscriberCount(callID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[callID])
}
