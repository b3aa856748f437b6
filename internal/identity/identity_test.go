package identity

import (
	"testing"
)

func TestResolveDefaults(t *testing.T) {
	resolver := NewResolver(t.TempDir())
	sess := resolver.Resolve("")

	if sess.ParticipantID == "" {
		t.Error("participant id should be generated")
	}
	if sess.RoomCode != DefaultRoomCode {
		t.Errorf("expected default room code, got %s", sess.RoomCode)
	}
}

func TestParticipantIDStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first := NewResolver(dir).Resolve("")
	second := NewResolver(dir).Resolve("")

	if first.ParticipantID != second.ParticipantID {
		t.Errorf("participant id changed between runs: %s vs %s", first.ParticipantID, second.ParticipantID)
	}
}

func TestExplicitCodeWinsAndPersists(t *testing.T) {
	dir := t.TempDir()

	sess := NewResolver(dir).Resolve("cozy-42")
	if sess.RoomCode != "COZY-42" {
		t.Errorf("expected upper-cased explicit code, got %s", sess.RoomCode)
	}

	// The next run without an explicit code lands in the same room.
	again := NewResolver(dir).Resolve("")
	if again.RoomCode != "COZY-42" {
		t.Errorf("persisted room not reused, got %s", again.RoomCode)
	}
}

func TestResolveFromShareURL(t *testing.T) {
	sess := NewResolver(t.TempDir()).Resolve("http://example.com/space?room=duo-7")
	if sess.RoomCode != "DUO-7" {
		t.Errorf("expected room from share URL, got %s", sess.RoomCode)
	}
}

func TestShareURLCarriesRoom(t *testing.T) {
	got := ShareURL("http://example.com/space", "DUO-7")
	if got != "http://example.com/space?room=DUO-7" {
		t.Errorf("unexpected share URL: %s", got)
	}
}

func TestPersistenceFailureDegradesSilently(t *testing.T) {
	// An unwritable data dir must still yield a usable session.
	sess := NewResolver("").Resolve("duo-8")
	if sess.ParticipantID == "" || sess.RoomCode != "DUO-8" {
		t.Errorf("session-only identity broken: %+v", sess)
	}
}
