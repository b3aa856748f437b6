package space

import (
	"context"

	"github.com/RanFeng/ilog"

	"github.com/zxhanraja/duo-space/internal/presence"
	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/router"
)

// Snapshot returns a copy of the current space state.
func (c *Core) Snapshot() protocol.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

func (c *Core) RoomCode() string {
	return c.roomCode
}

func (c *Core) ParticipantID() string {
	return c.participantID
}

// Subscribe registers a callback for one topic; the returned function
// removes it.
func (c *Core) Subscribe(topic router.Topic, cb router.Callback) func() {
	return c.router.Subscribe(topic, cb)
}

// SubscribeToStatus registers a presence/connectivity callback. The current
// status replays immediately.
func (c *Core) SubscribeToStatus(cb presence.Callback) func() {
	return c.tracker.Subscribe(cb)
}

// BroadcastFullState sends the entire snapshot to the peer. This is the
// reply to REQUEST_SYNC and the repair path after dropped envelopes.
func (c *Core) BroadcastFullState() {
	c.mux.Broadcast(protocol.TypeFullSync, c.Snapshot())
}

// SendMessage appends the message locally, transmits it, and best-effort
// persists it to the durable history. Persistence failure never blocks
// delivery.
func (c *Core) SendMessage(msg protocol.Message) {
	c.appendMessage(msg)
	c.mux.Broadcast(protocol.TypeMessage, msg)
	if c.history == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if err := c.history.Append(ctx, c.roomCode, msg); err != nil {
			ilog.EventError(ctx, err, "history_append_failed", "room", c.roomCode)
		}
	}()
}

// SendShake nudges the peer. No state changes; the remote side only gets a
// transient notify.
func (c *Core) SendShake() {
	c.mux.Broadcast(protocol.TypeShake, nil)
}

// SyncPlayer replaces the player sub-state and transmits it. The timestamp
// inside the state is the staleness authority, so it also advances the
// local gate.
func (c *Core) SyncPlayer(player protocol.PlayerState) {
	c.mu.Lock()
	c.snapshot.Player = player
	if player.TimestampMs > c.lastPlayerMs {
		c.lastPlayerMs = player.TimestampMs
	}
	c.mu.Unlock()
	c.mux.Broadcast(protocol.TypePlayer, player)
}

// ReplaceNotes replaces the whole notes sub-state and transmits it.
func (c *Core) ReplaceNotes(notes []protocol.Note) {
	c.mu.Lock()
	c.snapshot.Notes = notes
	c.mu.Unlock()
	c.mux.Broadcast(protocol.TypeNotes, notes)
}

// ReplaceGame replaces the whole game sub-state and transmits it.
func (c *Core) ReplaceGame(game protocol.GameState) {
	c.mu.Lock()
	c.snapshot.Game = game
	c.mu.Unlock()
	c.mux.Broadcast(protocol.TypeGame, game)
}

// AppendLine commits one drawing line and transmits it. Lines are never
// edited once committed.
func (c *Core) AppendLine(line protocol.DrawingLine) {
	c.appendLine(line)
	c.mux.Broadcast(protocol.TypeDraw, line)
}

// ClearDrawing wipes the canvas wholesale on both peers.
func (c *Core) ClearDrawing() {
	c.mu.Lock()
	c.snapshot.Drawing = []protocol.DrawingLine{}
	c.mu.Unlock()
	c.mux.Broadcast(protocol.TypeClear, nil)
}

// ReplacePlaylist replaces the shared queue, truncating the oldest entries
// beyond the cap.
func (c *Core) ReplacePlaylist(playlist []protocol.Song) {
	playlist = capPlaylist(playlist)
	c.mu.Lock()
	c.snapshot.Playlist = playlist
	c.mu.Unlock()
	c.mux.Broadcast(protocol.TypePlaylist, playlist)
}

// BroadcastTheme pushes a theme id to the peer. Themes are notify-only and
// never part of the snapshot.
func (c *Core) BroadcastTheme(themeID string) {
	c.mux.Broadcast(protocol.TypeTheme, themeID)
}

// SendTyping shares a transient typing indicator.
func (c *Core) SendTyping(isTyping bool) {
	c.mux.Broadcast(protocol.TypeTyping, protocol.TypingStatus{
		UserID:   c.participantID,
		IsTyping: isTyping,
	})
}
