package protocol

import (
	"encoding/json"
)

// EventType identifies the state patch or control signal an envelope carries.
type EventType string

const (
	TypeRequestSync EventType = "REQUEST_SYNC"
	TypeFullSync    EventType = "FULL_SYNC_PAYLOAD"
	TypeMessage     EventType = "MSG"
	TypeShake       EventType = "SHAKE"
	TypePlayer      EventType = "PLAY"
	TypeNotes       EventType = "NOTE"
	TypeGame        EventType = "GAME"
	TypeDraw        EventType = "DRAW"
	TypeClear       EventType = "CLR"
	TypePlaylist    EventType = "PLST"
	TypeTheme       EventType = "THEME"
	TypeTyping      EventType = "TYPING"
)

// Envelope is the uniform wire message exchanged between the two peers.
// Payload is kept raw so each applier decodes only the type it handles.
type Envelope struct {
	Type     EventType       `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SenderID string          `json:"senderId"`
	SentAtMs int64           `json:"sentAtMs"`
}

// TypingStatus is the payload of a TYPING envelope. It is never persisted
// in the snapshot.
type TypingStatus struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}
