package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/relay/rooms"
)

type Handler struct {
	manager  *rooms.Manager
	upgrader websocket.Upgrader
}

func NewHandler(manager *rooms.Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	roomCode, err := extractRoomCode(r.URL.Path)
	if err != nil {
		log.Printf("WebSocket: invalid room path: %s", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid room path"))
		return
	}

	participantID := r.URL.Query().Get("participant")
	if participantID == "" {
		log.Printf("WebSocket: missing participant id for room %s", roomCode)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("missing participant id"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: upgrade failed for room %s: %v", roomCode, err)
		// If upgrade fails, connection may already be partially written.
		return
	}

	channel, participant := h.manager.Join(roomCode, participantID)
	participant.BindConnection(conn)
	go participant.SendLoop()

	participant.Send(protocol.Frame{
		Kind: protocol.FrameSubscribed,
		Data: protocol.SubscribedPayload{
			RoomCode:     roomCode,
			Participants: channel.Roster(),
		},
	})
	channel.BroadcastAll(protocol.Frame{
		Kind: protocol.FramePresence,
		Data: protocol.PresencePayload{Participants: channel.Roster()},
	})

	h.readLoop(channel, participant, conn)

	channel.Detach(participant)
	channel.BroadcastAll(protocol.Frame{
		Kind: protocol.FramePresence,
		Data: protocol.PresencePayload{Participants: channel.Roster()},
	})
	h.manager.Cleanup(channel)
}

func (h *Handler) readLoop(channel *rooms.Channel, participant *rooms.Participant, conn *websocket.Conn) {
	defer participant.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var inbound protocol.InboundFrame
		if err := json.Unmarshal(data, &inbound); err != nil {
			continue
		}
		switch inbound.Kind {
		case protocol.FrameSync:
			// Opaque fan-out: the relay never inspects envelopes.
			channel.BroadcastFrom(participant.ID, protocol.Frame{
				Kind: protocol.FrameSync,
				Data: inbound.Data,
			})
		default:
			participant.Send(protocol.Frame{
				Kind: protocol.FrameError,
				Data: protocol.ErrorPayload{
					Code:    "unknown_kind",
					Message: "unsupported frame type",
				},
			})
		}
	}
}

func extractRoomCode(path string) (string, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "ws" || parts[1] != "rooms" || parts[2] == "" {
		return "", errors.New("invalid path")
	}
	return parts[2], nil
}
