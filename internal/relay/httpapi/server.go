package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zxhanraja/duo-space/internal/protocol"
	"github.com/zxhanraja/duo-space/internal/relay/rooms"
	"github.com/zxhanraja/duo-space/internal/relay/ws"
)

// Server is the echo-based relay engine.
type Server struct {
	rooms  *rooms.Manager
	ws     *ws.Handler
	router *echo.Echo
}

func NewServer(manager *rooms.Manager) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		rooms:  manager,
		ws:     ws.NewHandler(manager),
		router: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/api/rooms/:roomCode", server.handleGetRoom)
	e.GET("/ws/rooms/:roomCode", server.handleWebSocket)

	return server
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleGetRoom(c echo.Context) error {
	roomCode := c.Param("roomCode")
	roster, err := s.rooms.Roster(roomCode)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			return respondError(c, http.StatusNotFound, "room_not_found", err.Error())
		}
		return respondError(c, http.StatusInternalServerError, "roster_failed", err.Error())
	}
	return c.JSON(http.StatusOK, protocol.PresencePayload{Participants: roster})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	roomCode := c.Param("roomCode")
	// Set the room code in the URL path so the websocket handler can
	// extract it.
	c.Request().URL.Path = "/ws/rooms/" + roomCode
	// The websocket handler takes full control of the connection; return
	// nil to prevent echo from writing an additional response.
	s.ws.ServeHTTP(c.Response(), c.Request())
	return nil
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, protocol.Frame{
		Kind: protocol.FrameError,
		Data: protocol.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}
