package hertzws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/websocket"

	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/relay/rooms"
)

// Handler serves room channels over hertz-contrib websockets. Same protocol
// as the gorilla handler, alternate engine.
type Handler struct {
	manager  *rooms.Manager
	upgrader websocket.HertzUpgrader
}

func NewHandler(manager *rooms.Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.HertzUpgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(ctx *app.RequestContext) bool {
				return true
			},
		},
	}
}

func (h *Handler) HandleWebSocket(c context.Context, ctx *app.RequestContext) {
	roomCode := ctx.Param("roomCode")
	if roomCode == "" {
		ctx.String(400, "missing room code")
		return
	}
	participantID := ctx.Query("participant")
	if participantID == "" {
		log.Printf("WebSocket: missing participant id for room %s", roomCode)
		ctx.String(400, "missing participant id")
		return
	}

	err := h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
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
	})
	if err != nil {
		log.Printf("WebSocket: upgrade failed for room %s: %v", roomCode, err)
	}
}

func (h *Handler) readLoop(channel *rooms.Channel, participant *rooms.Participant, conn *websocket.Conn) {
	defer participant.Close()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var inbound protocol.InboundFrame
		if err := json.Unmarshal(data, &inbound); err != nil {
			continue
		}
		switch inbound.Kind {
		case protocol.FrameSync:
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
