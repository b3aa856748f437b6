package space

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/RanFeng/ilog"

	"github.com/zxhanraja/duo-space/internal/history"
	"github.com/zxhanraja/duo-space/internal/identity"
	"github.com/zxhanraja/duo-space/internal/presence"
	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/router"
	"github.com/zxhanraja/duo-space/internal/transport"
)

const (
	// historyWindow bounds both the seeded chat history and the in-memory
	// message buffer.
	historyWindow = 50

	// maxPlaylist bounds the shared queue; the oldest entries are truncated.
	maxPlaylist = 50
)

// Core is the replicated state store of one space: the single mutable
// snapshot, its mutators and appliers, and the wiring to the transport
// multiplexer, event router, and presence tracker. Mutators and appliers
// are symmetric: a mutator's broadcast type is exactly the type its own
// applier handles on the remote peer.
type Core struct {
	participantID string
	roomCode      string

	mu           sync.RWMutex
	snapshot     protocol.Snapshot
	lastPlayerMs int64

	mux     *transport.Mux
	router  *router.Router
	tracker *presence.Tracker
	history *history.Store

	done chan struct{}
}

// New builds the core for one session, seeds the message buffer from the
// durable history when one is available, and starts consuming the inbound
// event stream. hist may be nil.
func New(sess identity.Session, mux *transport.Mux, hist *history.Store) *Core {
	c := &Core{
		participantID: sess.ParticipantID,
		roomCode:      sess.RoomCode,
		snapshot:      protocol.NewSnapshot(sess.ParticipantID),
		mux:           mux,
		router:        router.New(),
		tracker:       presence.NewTracker(sess.RoomCode),
		history:       hist,
		done:          make(chan struct{}),
	}
	c.seedHistory()
	go c.run()
	return c
}

func (c *Core) seedHistory() {
	if c.history == nil {
		return
	}
	ctx := context.Background()
	messages, err := c.history.Recent(ctx, c.roomCode, historyWindow)
	if err != nil {
		ilog.EventError(ctx, err, "history_seed_failed", "room", c.roomCode)
		return
	}
	if len(messages) == 0 {
		return
	}
	c.mu.Lock()
	c.snapshot.Messages = messages
	c.mu.Unlock()
	c.router.Notify(router.TopicFullSync, c.Snapshot())
}

func (c *Core) run() {
	defer close(c.done)
	for ev := range c.mux.Events() {
		switch {
		case ev.Envelope != nil:
			c.apply(*ev.Envelope)
		case ev.Status == transport.StatusSubscribed:
			c.tracker.SetConnected(true)
		case ev.Status == transport.StatusClosed:
			c.tracker.SetConnected(false)
		case ev.Roster != nil:
			c.tracker.SetRoster(ev.Roster)
		}
	}
}

// apply handles one inbound envelope. Unknown types are dropped silently;
// self-originated envelopes never reach here (the multiplexer filters
// them).
func (c *Core) apply(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeRequestSync:
		c.BroadcastFullState()

	case protocol.TypeFullSync:
		c.applyFullSync(env.Payload)

	case protocol.TypeMessage:
		var msg protocol.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return
		}
		if c.appendMessage(msg) {
			c.router.Notify(router.TopicMessage, msg)
		}

	case protocol.TypeShake:
		c.router.Notify(router.TopicNudge, nil)

	case protocol.TypePlayer:
		var player protocol.PlayerState
		if err := json.Unmarshal(env.Payload, &player); err != nil {
			return
		}
		if !c.applyPlayer(player) {
			return
		}
		c.router.Notify(router.TopicPlayerUpdate, player)

	case protocol.TypeNotes:
		var notes []protocol.Note
		if err := json.Unmarshal(env.Payload, &notes); err != nil {
			return
		}
		c.mu.Lock()
		c.snapshot.Notes = notes
		c.mu.Unlock()
		c.router.Notify(router.TopicNoteUpdate, notes)

	case protocol.TypeGame:
		var game protocol.GameState
		if err := json.Unmarshal(env.Payload, &game); err != nil {
			return
		}
		c.mu.Lock()
		c.snapshot.Game = game
		c.mu.Unlock()
		c.router.Notify(router.TopicGameUpdate, game)

	case protocol.TypeDraw:
		var line protocol.DrawingLine
		if err := json.Unmarshal(env.Payload, &line); err != nil {
			return
		}
		if c.appendLine(line) {
			c.router.Notify(router.TopicDrawLine, line)
		}

	case protocol.TypeClear:
		c.mu.Lock()
		c.snapshot.Drawing = []protocol.DrawingLine{}
		c.mu.Unlock()
		c.router.Notify(router.TopicClearCanvas, nil)

	case protocol.TypePlaylist:
		var playlist []protocol.Song
		if err := json.Unmarshal(env.Payload, &playlist); err != nil {
			return
		}
		playlist = capPlaylist(playlist)
		c.mu.Lock()
		c.snapshot.Playlist = playlist
		c.mu.Unlock()
		c.router.Notify(router.TopicPlaylistUpdate, playlist)

	case protocol.TypeTheme:
		var theme string
		if err := json.Unmarshal(env.Payload, &theme); err != nil {
			return
		}
		c.router.Notify(router.TopicThemeChange, theme)

	case protocol.TypeTyping:
		var status protocol.TypingStatus
		if err := json.Unmarshal(env.Payload, &status); err != nil {
			return
		}
		c.router.Notify(router.TopicTypingStatus, status)
	}
}

// applyFullSync shallow-merges a remote snapshot: each sub-state present in
// the payload overwrites the local one wholesale.
func (c *Core) applyFullSync(payload json.RawMessage) {
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(payload, &patch); err != nil {
		return
	}

	c.mu.Lock()
	if raw, ok := patch["messages"]; ok {
		var messages []protocol.Message
		if json.Unmarshal(raw, &messages) == nil {
			c.snapshot.Messages = messages
		}
	}
	if raw, ok := patch["notes"]; ok {
		var notes []protocol.Note
		if json.Unmarshal(raw, &notes) == nil {
			c.snapshot.Notes = notes
		}
	}
	if raw, ok := patch["playlist"]; ok {
		var playlist []protocol.Song
		if json.Unmarshal(raw, &playlist) == nil {
			c.snapshot.Playlist = capPlaylist(playlist)
		}
	}
	if raw, ok := patch["player"]; ok {
		var player protocol.PlayerState
		if json.Unmarshal(raw, &player) == nil {
			c.snapshot.Player = player
			c.lastPlayerMs = player.TimestampMs
		}
	}
	if raw, ok := patch["game"]; ok {
		var game protocol.GameState
		if json.Unmarshal(raw, &game) == nil {
			c.snapshot.Game = game
		}
	}
	if raw, ok := patch["drawing"]; ok {
		var drawing []protocol.DrawingLine
		if json.Unmarshal(raw, &drawing) == nil {
			c.snapshot.Drawing = drawing
		}
	}
	if raw, ok := patch["space"]; ok {
		var space protocol.SpaceState
		if json.Unmarshal(raw, &space) == nil {
			c.snapshot.Space = space
		}
	}
	c.mu.Unlock()

	c.router.Notify(router.TopicFullSync, c.Snapshot())
}

// applyPlayer gates staleness: an update not strictly newer than the last
// applied one is discarded, which guards against out-of-order delivery
// across the two transport paths.
func (c *Core) applyPlayer(player protocol.PlayerState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if player.TimestampMs <= c.lastPlayerMs {
		return false
	}
	c.snapshot.Player = player
	c.lastPlayerMs = player.TimestampMs
	return true
}

func (c *Core) appendMessage(msg protocol.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.snapshot.Messages {
		if existing.ID == msg.ID {
			return false
		}
	}
	c.snapshot.Messages = append(c.snapshot.Messages, msg)
	if overflow := len(c.snapshot.Messages) - historyWindow; overflow > 0 {
		c.snapshot.Messages = append([]protocol.Message(nil), c.snapshot.Messages[overflow:]...)
	}
	return true
}

func (c *Core) appendLine(line protocol.DrawingLine) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.snapshot.Drawing {
		if existing.ID == line.ID {
			return false
		}
	}
	c.snapshot.Drawing = append(c.snapshot.Drawing, line)
	return true
}

func capPlaylist(playlist []protocol.Song) []protocol.Song {
	if overflow := len(playlist) - maxPlaylist; overflow > 0 {
		return append([]protocol.Song(nil), playlist[overflow:]...)
	}
	return playlist
}

// Close tears the core down: channels are closed and the event loop drains.
func (c *Core) Close() {
	c.mux.Close()
	<-c.done
}
