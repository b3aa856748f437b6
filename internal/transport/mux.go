package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/RanFeng/ilog"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// Mux fans outbound envelopes to every available path and normalizes both
// paths into one inbound stream. Self-originated envelopes are dropped on
// the way in, so duplicate delivery across paths stays idempotent under the
// store's last-write semantics.
type Mux struct {
	participantID string
	channels      []Channel
	events        chan Event
	wg            sync.WaitGroup
	once          sync.Once
}

func NewMux(participantID string, channels ...Channel) *Mux {
	m := &Mux{
		participantID: participantID,
		channels:      channels,
		events:        make(chan Event, 128),
	}
	for _, ch := range channels {
		m.wg.Add(1)
		go m.forward(ch)
	}
	go func() {
		m.wg.Wait()
		close(m.events)
	}()
	return m
}

// Broadcast sends one envelope of the given type on every path. A failing
// path never blocks the others and never surfaces to the caller.
func (m *Mux) Broadcast(eventType protocol.EventType, payload any) {
	env := protocol.Envelope{
		Type:     eventType,
		SenderID: m.participantID,
		SentAtMs: time.Now().UnixMilli(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			ilog.EventError(context.Background(), err, "broadcast_marshal_failed", "type", eventType)
			return
		}
		env.Payload = raw
	}
	for _, ch := range m.channels {
		if err := ch.Send(env); err != nil {
			// Tolerated: the other path or the next full sync repairs it.
			continue
		}
	}
}

// Events is the merged inbound stream. It closes after Close once every
// path has drained.
func (m *Mux) Events() <-chan Event {
	return m.events
}

func (m *Mux) Close() {
	m.once.Do(func() {
		for _, ch := range m.channels {
			ch.Close()
		}
	})
}

func (m *Mux) forward(ch Channel) {
	defer m.wg.Done()
	for ev := range ch.Events() {
		if ev.Envelope != nil && ev.Envelope.SenderID == m.participantID {
			continue
		}
		if ev.Status == StatusSubscribed {
			// Fresh subscription: pull the peer's state before anything
			// else so a rejoining peer converges immediately.
			m.Broadcast(protocol.TypeRequestSync, nil)
		}
		m.events <- ev
	}
}
