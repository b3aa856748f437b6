package rooms

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// textMessage matches the websocket text opcode shared by both websocket
// implementations.
const textMessage = 1

// Conn is the subset of a websocket connection the relay needs. It is
// satisfied by both gorilla and hertz-contrib connections.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Channel is one named realtime channel, scoped by room code. The relay
// never interprets envelopes; it only fans frames between the participants
// tracked here.
type Channel struct {
	code         string
	mu           sync.RWMutex
	participants map[string]*Participant
}

type Participant struct {
	ID          string
	mu          sync.Mutex
	conn        Conn
	send        chan []byte
	connectedAt time.Time
}

func NewChannel(code string) *Channel {
	return &Channel{
		code:         code,
		participants: make(map[string]*Participant),
	}
}

func (c *Channel) Code() string {
	return c.code
}

// Attach registers a participant. A reconnect under the same id replaces
// the stale registration.
func (c *Channel) Attach(participantID string) *Participant {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stale, ok := c.participants[participantID]; ok {
		close(stale.send)
		delete(c.participants, participantID)
	}

	p := &Participant{
		ID:          participantID,
		send:        make(chan []byte, 16),
		connectedAt: time.Now().UTC(),
	}
	c.participants[participantID] = p
	return p
}

func (c *Channel) Detach(p *Participant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.participants[p.ID]; ok && current == p {
		close(p.send)
		delete(c.participants, p.ID)
	}
}

// Roster lists the currently tracked participant ids.
func (c *Channel) Roster() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.participants))
	for id := range c.participants {
		ids = append(ids, id)
	}
	return ids
}

func (c *Channel) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.participants)
}

// BroadcastFrom fans a frame to every participant except the sender. Slow
// consumers drop rather than block the channel.
func (c *Channel) BroadcastFrom(senderID string, frame protocol.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, p := range c.participants {
		if id == senderID {
			continue
		}
		select {
		case p.send <- data:
		default:
		}
	}
}

// BroadcastAll fans a frame to every participant, sender included. Used for
// presence rosters.
func (c *Channel) BroadcastAll(frame protocol.Frame) {
	c.BroadcastFrom("", frame)
}

func (p *Participant) BindConnection(conn Conn) {
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
}

// SendLoop drains the participant's queue onto its connection until either
// side closes. The read-loop goroutine may Close concurrently, so the
// connection is snapshotted under the lock per frame.
func (p *Participant) SendLoop() {
	defer p.Close()
	for msg := range p.send {
		p.mu.Lock()
		conn := p.conn
		p.mu.Unlock()
		if conn == nil {
			continue
		}
		if err := conn.WriteMessage(textMessage, msg); err != nil {
			break
		}
	}
}

func (p *Participant) Close() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Send queues one frame for this participant without blocking.
func (p *Participant) Send(frame protocol.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	defer func() {
		// The send queue closes on detach; a racing Send is dropped.
		_ = recover()
	}()
	select {
	case p.send <- data:
	default:
	}
}
