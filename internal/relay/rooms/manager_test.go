package rooms

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/zxhanraja/duo-space/internal/protocol"
)

type stubConn struct {
	mu     sync.Mutex
	writes int
	closed bool
}

func (c *stubConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.writes++
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func recvFrame(t *testing.T, p *Participant) protocol.InboundFrame {
	t.Helper()
	select {
	case data := <-p.send:
		var frame protocol.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame queued")
		return protocol.InboundFrame{}
	}
}

func TestJoinCreatesChannelAndTracksRoster(t *testing.T) {
	m := NewManager()

	ch, alice := m.Join("DUO-1", "alice")
	if ch.Code() != "DUO-1" {
		t.Fatalf("code = %q, want DUO-1", ch.Code())
	}
	ch2, _ := m.Join("DUO-1", "bob")
	if ch2 != ch {
		t.Fatal("second join created a new channel for the same room")
	}
	if ch.Count() != 2 {
		t.Fatalf("count = %d, want 2", ch.Count())
	}

	roster, err := m.Roster("DUO-1")
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	sort.Strings(roster)
	if len(roster) != 2 || roster[0] != "alice" || roster[1] != "bob" {
		t.Fatalf("roster = %v", roster)
	}
	_ = alice
}

func TestRosterUnknownRoom(t *testing.T) {
	m := NewManager()
	if _, err := m.Roster("NOPE"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestBroadcastFromSkipsSender(t *testing.T) {
	m := NewManager()
	ch, alice := m.Join("DUO-2", "alice")
	_, bob := m.Join("DUO-2", "bob")

	ch.BroadcastFrom("alice", protocol.Frame{Kind: protocol.FrameSync, Data: "hi"})

	frame := recvFrame(t, bob)
	if frame.Kind != protocol.FrameSync {
		t.Fatalf("kind = %q, want %q", frame.Kind, protocol.FrameSync)
	}
	select {
	case data := <-alice.send:
		t.Fatalf("sender received its own frame: %s", data)
	default:
	}
}

func TestBroadcastAllReachesEveryone(t *testing.T) {
	m := NewManager()
	ch, alice := m.Join("DUO-3", "alice")
	_, bob := m.Join("DUO-3", "bob")

	ch.BroadcastAll(protocol.Frame{Kind: protocol.FramePresence, Data: protocol.PresencePayload{Participants: ch.Roster()}})

	for _, p := range []*Participant{alice, bob} {
		if frame := recvFrame(t, p); frame.Kind != protocol.FramePresence {
			t.Fatalf("kind = %q, want %q", frame.Kind, protocol.FramePresence)
		}
	}
}

func TestReconnectReplacesStaleParticipant(t *testing.T) {
	ch := NewChannel("DUO-4")
	stale := ch.Attach("alice")
	fresh := ch.Attach("alice")

	if ch.Count() != 1 {
		t.Fatalf("count = %d, want 1", ch.Count())
	}
	if _, open := <-stale.send; open {
		t.Fatal("stale send queue still open")
	}

	// Detaching the stale registration must not evict the fresh one.
	ch.Detach(stale)
	if ch.Count() != 1 {
		t.Fatalf("count after stale detach = %d, want 1", ch.Count())
	}
	ch.Detach(fresh)
	if ch.Count() != 0 {
		t.Fatalf("count after detach = %d, want 0", ch.Count())
	}
}

// Both the read-loop and the send-loop goroutines tear a participant down,
// so Close must not race SendLoop's use of the connection. Run under -race.
func TestParticipantTeardownDuringSendLoop(t *testing.T) {
	ch := NewChannel("DUO-6")
	p := ch.Attach("alice")
	p.BindConnection(&stubConn{})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		p.SendLoop()
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			p.Send(protocol.Frame{Kind: protocol.FrameSync, Data: i})
		}
		ch.Detach(p)
	}()
	go func() {
		defer wg.Done()
		p.Close()
	}()
	wg.Wait()
}

func TestCleanupDropsEmptyChannelOnly(t *testing.T) {
	m := NewManager()
	ch, alice := m.Join("DUO-5", "alice")

	m.Cleanup(ch)
	if _, err := m.Roster("DUO-5"); err != nil {
		t.Fatalf("cleanup removed a live channel: %v", err)
	}

	ch.Detach(alice)
	m.Cleanup(ch)
	if _, err := m.Roster("DUO-5"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}
}
