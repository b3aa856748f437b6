package presence

import (
	"testing"
)

func TestSubscribeReplaysCurrentStatus(t *testing.T) {
	tracker := NewTracker("SYNC-NOW")
	tracker.SetConnected(true)
	tracker.SetRoster([]string{"alice", "bob"})

	var got []Status
	tracker.Subscribe(func(status Status) {
		got = append(got, status)
	})

	if len(got) != 1 {
		t.Fatalf("expected immediate replay, got %d calls", len(got))
	}
	if !got[0].Connected || !got[0].PeerOnline {
		t.Errorf("replayed status wrong: %+v", got[0])
	}
	if got[0].RoomCode != "SYNC-NOW" {
		t.Errorf("wrong room code: %s", got[0].RoomCode)
	}
}

func TestChangesEmitOnce(t *testing.T) {
	tracker := NewTracker("ROOM")

	var got []Status
	tracker.Subscribe(func(status Status) {
		got = append(got, status)
	})

	tracker.SetConnected(true)
	tracker.SetConnected(true) // no change, no emit
	tracker.SetRoster([]string{"alice", "bob"})

	if len(got) != 3 {
		t.Fatalf("expected replay + 2 change emissions, got %d", len(got))
	}
	last := got[len(got)-1]
	if !last.Connected || !last.PeerOnline {
		t.Errorf("final status wrong: %+v", last)
	}
}

func TestConnectionLossKeepsPeerOnline(t *testing.T) {
	tracker := NewTracker("ROOM")
	tracker.SetConnected(true)
	tracker.SetRoster([]string{"alice", "bob"})

	tracker.SetConnected(false)

	status := tracker.Current()
	if status.Connected {
		t.Error("connected should be cleared")
	}
	if !status.PeerOnline {
		t.Error("peerOnline must survive a connection loss until presence says otherwise")
	}

	tracker.SetRoster([]string{"alice"})
	if tracker.Current().PeerOnline {
		t.Error("a one-person roster means the peer left")
	}
}

func TestUnsubscribeStopsEmissions(t *testing.T) {
	tracker := NewTracker("ROOM")

	count := 0
	unsubscribe := tracker.Subscribe(func(Status) {
		count++
	})
	unsubscribe()
	tracker.SetConnected(true)

	if count != 1 {
		t.Errorf("expected only the replay call, got %d", count)
	}
}
