package transport

import (
	"errors"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

var ErrNotConnected = errors.New("channel not connected")

// Status of a channel's subscription to its underlying medium.
type Status string

const (
	StatusSubscribed Status = "SUBSCRIBED"
	StatusClosed     Status = "CLOSED"
)

// Event is one item on a channel's inbound stream: an envelope from the
// peer, a subscription status change, or a presence roster update. Exactly
// one field group is set per event.
type Event struct {
	Envelope *protocol.Envelope
	Status   Status
	Roster   []string
}

// Channel is one unreliable path to the peer. Implementations must not
// block senders: delivery is best-effort and drops are tolerated.
type Channel interface {
	Send(env protocol.Envelope) error
	Events() <-chan Event
	Close()
}
