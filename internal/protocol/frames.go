package protocol

import "encoding/json"

// Relay frame kinds. Frames wrap envelopes and control signals on the
// websocket connection between a peer and the relay.
const (
	FrameSubscribed = "SUBSCRIBED"
	FrameSync       = "SYNC"
	FramePresence   = "PRESENCE"
	FrameError      = "ERROR"
)

type Frame struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

type InboundFrame struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// SubscribedPayload acknowledges a successful channel subscription.
type SubscribedPayload struct {
	RoomCode     string   `json:"roomCode"`
	Participants []string `json:"participants"`
}

// PresencePayload carries the current roster of a room channel.
type PresencePayload struct {
	Participants []string `json:"participants"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
