package rooms

import (
	"context"
	"errors"
	"sync"

	"github.com/RanFeng/ilog"
)

var ErrRoomNotFound = errors.New("room not found")

// Manager tracks every live channel by room code. Rooms are implicit: any
// participant naming a code joins its channel, creating it on first use.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]*Channel),
	}
}

// Join attaches a participant to the room's channel, creating the channel
// when it does not exist yet.
func (m *Manager) Join(roomCode, participantID string) (*Channel, *Participant) {
	m.mu.Lock()
	ch, ok := m.channels[roomCode]
	if !ok {
		ch = NewChannel(roomCode)
		m.channels[roomCode] = ch
	}
	m.mu.Unlock()

	p := ch.Attach(participantID)
	ilog.EventInfo(context.Background(), "channel_join", "room", roomCode, "participant", participantID, "count", ch.Count())
	return ch, p
}

// Roster returns the participant ids of a room's channel.
func (m *Manager) Roster(roomCode string) ([]string, error) {
	m.mu.RLock()
	ch, ok := m.channels[roomCode]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return ch.Roster(), nil
}

// Cleanup drops a channel once its last participant detached.
func (m *Manager) Cleanup(ch *Channel) {
	if ch == nil {
		return
	}
	if ch.Count() > 0 {
		return
	}
	code := ch.Code()
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.channels[code]; ok && current == ch {
		delete(m.channels, code)
		ilog.EventInfo(context.Background(), "channel_cleanup", "room", code)
	}
}
