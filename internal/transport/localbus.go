package transport

import (
	"sync"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

// localRegistry connects every LocalBus in this process that shares a room
// code. It is the same-device path: instantaneous and reliable, used for
// multi-instance testing without a relay.
var localRegistry = struct {
	mu    sync.Mutex
	rooms map[string][]*LocalBus
}{rooms: make(map[string][]*LocalBus)}

// LocalBus is the in-process broadcast channel scoped by room code.
type LocalBus struct {
	roomCode string
	events   chan Event
	closed   bool
}

func JoinLocalBus(roomCode string) *LocalBus {
	b := &LocalBus{
		roomCode: roomCode,
		events:   make(chan Event, 64),
	}
	localRegistry.mu.Lock()
	localRegistry.rooms[roomCode] = append(localRegistry.rooms[roomCode], b)
	localRegistry.mu.Unlock()
	return b
}

// Send fans the envelope to every other bus in the same room. Slow
// consumers drop rather than block the sender.
func (b *LocalBus) Send(env protocol.Envelope) error {
	localRegistry.mu.Lock()
	defer localRegistry.mu.Unlock()
	if b.closed {
		return ErrNotConnected
	}
	for _, other := range localRegistry.rooms[b.roomCode] {
		if other == b {
			continue
		}
		select {
		case other.events <- Event{Envelope: &env}:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Events() <-chan Event {
	return b.events
}

func (b *LocalBus) Close() {
	localRegistry.mu.Lock()
	defer localRegistry.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	peers := localRegistry.rooms[b.roomCode]
	for i, other := range peers {
		if other == b {
			localRegistry.rooms[b.roomCode] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	if len(localRegistry.rooms[b.roomCode]) == 0 {
		delete(localRegistry.rooms, b.roomCode)
	}
	close(b.events)
}
