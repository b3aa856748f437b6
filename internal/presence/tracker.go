package presence

import "sync"

// Status is what collaborators see of connectivity: whether the peer is in
// the room and whether our own relay subscription is live.
type Status struct {
	PeerOnline bool
	RoomCode   string
	Connected  bool
}

type Callback func(Status)

// Tracker maintains peer-online and connected booleans and replays the
// current status to every new subscriber.
type Tracker struct {
	mu         sync.Mutex
	roomCode   string
	peerOnline bool
	connected  bool
	seq        int
	subs       map[int]Callback
}

func NewTracker(roomCode string) *Tracker {
	return &Tracker{roomCode: roomCode, subs: make(map[int]Callback)}
}

// Subscribe registers cb and immediately replays the current status to it.
func (t *Tracker) Subscribe(cb Callback) func() {
	t.mu.Lock()
	t.seq++
	id := t.seq
	t.subs[id] = cb
	status := t.status()
	t.mu.Unlock()

	safeCall(cb, status)
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// SetConnected records whether the relay subscription is live. Losing the
// connection does not clear peerOnline; only a presence roster does that.
func (t *Tracker) SetConnected(connected bool) {
	t.mu.Lock()
	changed := t.connected != connected
	t.connected = connected
	t.mu.Unlock()
	if changed {
		t.emit()
	}
}

// SetRoster derives peerOnline from the relay presence roster: more than one
// tracked participant means the peer is there.
func (t *Tracker) SetRoster(participants []string) {
	online := len(participants) > 1
	t.mu.Lock()
	changed := t.peerOnline != online
	t.peerOnline = online
	t.mu.Unlock()
	if changed {
		t.emit()
	}
}

func (t *Tracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status()
}

func (t *Tracker) status() Status {
	return Status{PeerOnline: t.peerOnline, RoomCode: t.roomCode, Connected: t.connected}
}

func (t *Tracker) emit() {
	t.mu.Lock()
	callbacks := make([]Callback, 0, len(t.subs))
	for _, cb := range t.subs {
		callbacks = append(callbacks, cb)
	}
	status := t.status()
	t.mu.Unlock()

	for _, cb := range callbacks {
		safeCall(cb, status)
	}
}

func safeCall(cb Callback, status Status) {
	defer func() {
		_ = recover()
	}()
	cb(status)
}
