package handler

import (
	"net/http"
	"strings"

	"chatwave/backend/internal/chathub"
	"chatwave/backend/internal/conversation"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow any origin; tighten in production deployments.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// declaredIdentity extracts the optional identity a connecting session
// declares: a Bearer token, or a bare userId query parameter. An
// invalid token is an authorization failure; no identity at all is an
// anonymous session.
func (h *Handler) declaredIdentity(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		userID, err := h.Signer.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return "", false
		}
		return userID, true
	}
	if userID := c.Query("userId"); conversation.ValidID(userID) {
		return userID, true
	}
	return "", true
}

// ServeWebSocket upgrades the connection and registers the session
// with the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, ok := h.declaredIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to upgrade connection"})
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, userID)
	h.Hub.Register(client)
	client.Run()
}
