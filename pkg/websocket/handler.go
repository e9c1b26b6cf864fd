package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	ctx      context.Context
	upgrader websocket.Upgrader
}

// NewHandler serves upgrades for hub. ctx bounds the lifetime of the
// per-connection pumps' room authorization lookups.
func NewHandler(ctx context.Context, hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		ctx:      ctx,
		upgrader: newUpgrader(allowedOrigins),
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithUserID(userID).WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID)
	h.hub.register <- client

	go client.writePump()
	go client.readPump(h.ctx)
}
