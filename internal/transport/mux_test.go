package transport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

func waitEnvelope(t *testing.T, events <-chan Event) protocol.Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Envelope != nil {
				return *ev.Envelope
			}
		case <-deadline:
			t.Fatal("timed out waiting for an envelope")
		}
	}
}

func TestMuxFansOutToLocalBus(t *testing.T) {
	room := t.Name()
	peerBus := JoinLocalBus(room)
	defer peerBus.Close()

	mux := NewMux("alice", JoinLocalBus(room))
	defer mux.Close()

	mux.Broadcast(protocol.TypeTheme, "ocean")

	env := waitEnvelope(t, peerBus.Events())
	if env.Type != protocol.TypeTheme {
		t.Errorf("wrong type: %s", env.Type)
	}
	if env.SenderID != "alice" {
		t.Errorf("wrong sender: %s", env.SenderID)
	}
	var theme string
	if err := json.Unmarshal(env.Payload, &theme); err != nil || theme != "ocean" {
		t.Errorf("payload did not round trip: %s (%v)", env.Payload, err)
	}
	if env.SentAtMs == 0 {
		t.Error("sentAtMs not stamped")
	}
}

func TestMuxDropsSelfOriginatedEnvelopes(t *testing.T) {
	room := t.Name()
	peerBus := JoinLocalBus(room)
	defer peerBus.Close()

	mux := NewMux("alice", JoinLocalBus(room))
	defer mux.Close()

	// A self-originated envelope delivered back over a path must never
	// reach the consumer.
	peerBus.Send(protocol.Envelope{Type: protocol.TypeShake, SenderID: "alice", SentAtMs: 1})
	peerBus.Send(protocol.Envelope{Type: protocol.TypeShake, SenderID: "bob", SentAtMs: 2})

	env := waitEnvelope(t, mux.Events())
	if env.SenderID != "bob" {
		t.Errorf("self-originated envelope leaked through: %+v", env)
	}
}

// failingChannel always errors on send, standing in for a dead relay path.
type failingChannel struct {
	events chan Event
}

func (f *failingChannel) Send(protocol.Envelope) error {
	return errors.New("path down")
}

func (f *failingChannel) Events() <-chan Event {
	return f.events
}

func (f *failingChannel) Close() {
	close(f.events)
}

func TestMuxFailingPathDoesNotBlockOthers(t *testing.T) {
	room := t.Name()
	peerBus := JoinLocalBus(room)
	defer peerBus.Close()

	mux := NewMux("alice", &failingChannel{events: make(chan Event)}, JoinLocalBus(room))
	defer mux.Close()

	mux.Broadcast(protocol.TypeShake, nil)

	env := waitEnvelope(t, peerBus.Events())
	if env.Type != protocol.TypeShake {
		t.Errorf("wrong type: %s", env.Type)
	}
}

func TestMuxRequestsSyncOnSubscription(t *testing.T) {
	room := t.Name()
	peerBus := JoinLocalBus(room)
	defer peerBus.Close()

	statusChan := &failingChannel{events: make(chan Event, 4)}
	mux := NewMux("alice", statusChan, JoinLocalBus(room))
	defer mux.Close()

	statusChan.events <- Event{Status: StatusSubscribed}

	env := waitEnvelope(t, peerBus.Events())
	if env.Type != protocol.TypeRequestSync {
		t.Errorf("expected a sync request after subscribing, got %s", env.Type)
	}
}
