package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxhall/callstream/pkg/models"
	"github.com/voxhall/callstream/pkg/transcriber"
)

var errPeerGone = errors.New("peer gone")

// recordingPeer captures every event it receives. When fail is set, Send
// reports the peer as unreachable instead.
type recordingPeer struct {
	mu     sync.Mutex
	events []*Event
	fail   bool
}

func (p *recordingPeer) Send(event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errPeerGone
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPeer) received() []*Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Event(nil), p.events...)
}

func TestPublish_DeliversToAttachedPeer(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	h.Attach(peer)

	h.Publish("call-1", models.StateProcessingAI, nil)

	events := peer.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCallUpdate, events[0].Type)
	assert.Equal(t, "call-1", events[0].CallID)
	assert.Equal(t, models.StateProcessingAI, events[0].State)
	assert.Nil(t, events[0].AIResult)

	ts, err := time.Parse(time.RFC3339Nano, events[0].Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
}

func TestPublish_DeliversToSubscriberWithoutAttach(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	h.Subscribe(peer, "call-1")

	h.Publish("call-1", models.StateCompleted, nil)
	h.Publish("call-2", models.StateCompleted, nil)

	events := peer.received()
	require.Len(t, events, 1)
	assert.Equal(t, "call-1", events[0].CallID)
}

func TestPublish_DualRegistrationReceivesTwice(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	h.Attach(peer)
	h.Subscribe(peer, "call-1")

	h.Publish("call-1", models.StateCompleted, nil)

	assert.Len(t, peer.received(), 2)
}

func TestPublish_CarriesAIResult(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	h.Attach(peer)

	result := &transcriber.Result{Transcript: "hello world", Sentiment: "positive"}
	h.Publish("call-1", models.StateCompleted, result)

	events := peer.received()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].AIResult)
	assert.Equal(t, "hello world", events[0].AIResult.Transcript)
	assert.Equal(t, "positive", events[0].AIResult.Sentiment)
}

func TestAttach_Idempotent(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	h.Attach(peer)
	h.Attach(peer)

	assert.Equal(t, 1, h.PeerCount())

	h.Publish("call-1", models.StateProcessingAI, nil)
	assert.Len(t, peer.received(), 1)
}

func TestDetach_RemovesAllRegistrations(t *testing.T) {
	h := New()
	peer := &recordingPeer{}
	other := &recordingPeer{}
	h.Attach(peer)
	h.Attach(other)
	h.Subscribe(peer, "call-1")
	h.Subscribe(peer, "call-2")

	h.Detach(peer)

	assert.Equal(t, 1, h.PeerCount())
	assert.Zero(t, h.SubscriberCount("call-1"))
	assert.Zero(t, h.SubscriberCount("call-2"))

	h.Publish("call-1", models.StateFailed, nil)
	assert.Empty(t, peer.received())
	assert.Len(t, other.received(), 1)
}

func TestDetach_UnknownPeerIsNoOp(t *testing.T) {
	h := New()
	h.Detach(&recordingPeer{})
	assert.Zero(t, h.PeerCount())
}

func TestPublish_DetachesFailedPeer(t *testing.T) {
	h := New()
	broken := &recordingPeer{fail: true}
	healthy := &recordingPeer{}
	h.Attach(broken)
	h.Attach(healthy)
	h.Subscribe(broken, "call-1")

	h.Publish("call-1", models.StateProcessingAI, nil)

	assert.Equal(t, 1, h.PeerCount())
	assert.Zero(t, h.SubscriberCount("call-1"))
	assert.Len(t, healthy.received(), 1)

	// The broken peer is gone; a second publish reaches only the healthy one.
	h.Publish("call-1", models.StateCompleted, nil)
	assert.Len(t, healthy.received(), 2)
}

func TestPublish_NoObserversIsNoOp(t *testing.T) {
	h := New()
	h.Publish("call-1", models.StateProcessingAI, nil)
	assert.Zero(t, h.PeerCount())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer := &recordingPeer{}
			h.Attach(peer)
			h.Subscribe(peer, "call-1")
			h.Publish("call-1", models.StateProcessingAI, nil)
			h.Detach(peer)
		}()
	}

	wg.Wait()
	assert.Zero(t, h.PeerCount())
	assert.Zero(t, h.SubscriberCount("call-1"))
}
