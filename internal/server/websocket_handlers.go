package server

import (
	"errors"
	"strconv"
	"time"

	"avatio/internal/middleware"
	"avatio/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const wsTicketTTL = 30 * time.Second

var errRealtimeUnavailable = errors.New("real-time notifications require redis")

func wsTicketKey(ticket string) string {
	return "ws_ticket:" + ticket
}

func (s *Server) realtimeEnabled() bool {
	return s.redis != nil && s.hub != nil
}

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot send an
// Authorization header on a websocket handshake, so they trade their session
// for a single-use ticket passed as ?ticket=.
// @Summary Issue a websocket ticket
// @Tags notifications
// @Produce json
// @Success 200 {object} object{ticket=string,expiresIn=int}
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if !s.realtimeEnabled() {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUpstreamError("Real-time", errRealtimeUnavailable))
	}

	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), wsTicketKey(ticket), currentUserID(c), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewUpstreamError("Redis", err))
	}

	setPrivate(c)
	return c.JSON(fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(wsTicketTTL.Seconds()),
	})
}

// WSTicketAuth consumes the ?ticket= of a websocket upgrade and resolves its user.
func (s *Server) WSTicketAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		if !s.realtimeEnabled() {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUpstreamError("Real-time", errRealtimeUnavailable))
		}

		ticket := c.Query("ticket")
		if ticket == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("WebSocket ticket required"))
		}

		// GETDEL makes the ticket single-use even across instances.
		raw, err := s.redis.GetDel(c.UserContext(), wsTicketKey(ticket)).Result()
		if errors.Is(err, redis.Nil) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid or expired WebSocket ticket"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewUpstreamError("Redis", err))
		}

		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || userID == 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid or expired WebSocket ticket"))
		}
		if err := middleware.ResolveUser(c, s.userRepo, uint(userID)); err != nil {
			return models.RespondWithAppError(c, err)
		}
		if !middleware.SessionFrom(c).Authenticated() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Invalid or expired WebSocket ticket"))
		}
		return c.Next()
	}
}

// NotificationsWebsocketHandler handles GET /api/ws/notifications. New
// notifications of the caller are pushed as they are created.
func (s *Server) NotificationsWebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})
}
