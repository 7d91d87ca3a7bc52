package handlers

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	iauth "github.com/charlesng35/notula/internal/auth"
	"github.com/charlesng35/notula/internal/middleware"
	"github.com/charlesng35/notula/internal/realtime"
	"github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/response"
)

// RealtimeHandler authenticates notification stream subscribers and hands the
// connection to the hub.
type RealtimeHandler struct {
	hub     *realtime.Hub
	jwt     *iauth.JWTService
	streams []string
}

// NewRealtimeHandler accepts subscriptions to the given streams, or to
// realtime.DefaultStreams when none are given.
func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService, streams ...string) *RealtimeHandler {
	if len(streams) == 0 {
		streams = realtime.DefaultStreams
	}
	return &RealtimeHandler{hub: hub, jwt: jwt, streams: parseStreams(streams...)}
}

// GET /api/notifications/stream?token=...&streams=notifications,meetings
//
// Browsers cannot set headers on a WebSocket handshake, so the token may
// arrive as a query parameter instead of the Authorization header.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	requested := parseStreams(append(c.QueryArray("stream"), c.Query("streams"))...)
	for _, stream := range requested {
		if !slices.Contains(h.streams, stream) {
			response.Error(c, errors.ErrNotFound.WithMessage("Unknown stream "+stream))
			return
		}
	}

	if !websocket.IsWebSocketUpgrade(c.Request) {
		response.Error(c, errors.NewBadRequest("Expected a WebSocket upgrade request"))
		return
	}
	h.hub.Serve(claims.UserID, requested, c.Writer, c.Request)
}

// parseStreams splits comma-separated values into a sorted, de-duplicated,
// lower-case list.
func parseStreams(values ...string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
