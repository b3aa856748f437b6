package hertzapi

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/relay/hertzws"
	"github.com/zxhanraja/duo-space/internal/relay/rooms"
)

// NewRouter wires the relay routes onto a hertz server.
func NewRouter(h *server.Hertz, manager *rooms.Manager) *server.Hertz {
	wsHandler := hertzws.NewHandler(manager)

	h.Use(recoveryMiddleware())

	h.GET("/healthz", func(c context.Context, ctx *app.RequestContext) {
		ctx.String(consts.StatusOK, "ok")
	})

	h.GET("/api/rooms/:roomCode", handleGetRoom(manager))
	h.GET("/ws/rooms/:roomCode", wsHandler.HandleWebSocket)

	return h
}

func recoveryMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				ctx.String(consts.StatusInternalServerError, "Internal Server Error")
			}
		}()
		ctx.Next(c)
	}
}

func handleGetRoom(manager *rooms.Manager) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		roomCode := ctx.Param("roomCode")
		roster, err := manager.Roster(roomCode)
		if err != nil {
			if errors.Is(err, rooms.ErrRoomNotFound) {
				respondError(ctx, consts.StatusNotFound, "room_not_found", err.Error())
				return
			}
			respondError(ctx, consts.StatusInternalServerError, "roster_failed", err.Error())
			return
		}
		ctx.JSON(consts.StatusOK, protocol.PresencePayload{Participants: roster})
	}
}

func respondError(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, protocol.Frame{
		Kind: protocol.FrameError,
		Data: protocol.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
