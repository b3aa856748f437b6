package transport

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RanFeng/ilog"
	"github.com/gorilla/websocket"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// reconnectInterval is the fixed retry cadence after the relay subscription
// drops or fails to establish.
const reconnectInterval = 5 * time.Second

// RelayChannel is the cross-device path: a named realtime channel on the
// relay, scoped by room code. It keeps itself subscribed with a fixed
// interval retry loop and surfaces subscription transitions as status
// events.
type RelayChannel struct {
	wsURL         string
	retryInterval time.Duration
	events        chan Event

	mu   sync.Mutex
	conn *websocket.Conn

	done chan struct{}
	once sync.Once
}

func DialRelay(relayURL, roomCode, participantID string) *RelayChannel {
	return dialRelayEvery(relayURL, roomCode, participantID, reconnectInterval)
}

func dialRelayEvery(relayURL, roomCode, participantID string, retry time.Duration) *RelayChannel {
	c := &RelayChannel{
		wsURL:         relayEndpoint(relayURL, roomCode, participantID),
		retryInterval: retry,
		events:        make(chan Event, 64),
		done:          make(chan struct{}),
	}
	go c.run()
	return c
}

// relayEndpoint builds the websocket URL for one room channel from an http,
// https, ws, or wss base URL.
func relayEndpoint(relayURL, roomCode, participantID string) string {
	u, err := url.Parse(relayURL)
	if err != nil {
		return relayURL
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/rooms/" + roomCode
	q := u.Query()
	q.Set("participant", participantID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *RelayChannel) run() {
	defer close(c.events)
	ctx := context.Background()
	for {
		select {
		case <-c.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.wsURL, nil)
		if err != nil {
			ilog.EventError(ctx, err, "relay_dial_failed", "url", c.wsURL)
			if !c.sleep() {
				return
			}
			continue
		}

		c.setConn(conn)
		c.readLoop(conn)
		c.setConn(nil)
		conn.Close()

		select {
		case <-c.done:
			return
		default:
		}
		c.emit(Event{Status: StatusClosed})
		if !c.sleep() {
			return
		}
	}
}

func (c *RelayChannel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame protocol.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		switch frame.Kind {
		case protocol.FrameSubscribed:
			c.emit(Event{Status: StatusSubscribed})
			var ack protocol.SubscribedPayload
			if err := json.Unmarshal(frame.Data, &ack); err == nil && ack.Participants != nil {
				c.emit(Event{Roster: ack.Participants})
			}
		case protocol.FrameSync:
			var env protocol.Envelope
			if err := json.Unmarshal(frame.Data, &env); err != nil {
				continue
			}
			c.emit(Event{Envelope: &env})
		case protocol.FramePresence:
			var roster protocol.PresencePayload
			if err := json.Unmarshal(frame.Data, &roster); err != nil {
				continue
			}
			c.emit(Event{Roster: roster.Participants})
		}
	}
}

// Send transmits one envelope as a SYNC frame. It fails fast while the
// subscription is down; the multiplexer treats that as a tolerated drop.
func (c *RelayChannel) Send(env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(protocol.Frame{Kind: protocol.FrameSync, Data: env})
}

func (c *RelayChannel) Events() <-chan Event {
	return c.events
}

func (c *RelayChannel) Close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
}

func (c *RelayChannel) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// emit queues one event. Envelopes drop when the consumer lags; the next
// full sync repairs them. Status and roster transitions are rare and the
// subscribed one triggers resync, so those wait for buffer space instead.
func (c *RelayChannel) emit(ev Event) {
	if ev.Envelope != nil {
		select {
		case c.events <- ev:
		default:
		}
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// sleep waits one retry interval, returning false if the channel closed in
// the meantime.
func (c *RelayChannel) sleep() bool {
	select {
	case <-c.done:
		return false
	case <-time.After(c.retryInterval):
		return true
	}
}
