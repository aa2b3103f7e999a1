package handler

import (
	"net/http"

	"civicdesk/backend/internal/eventhub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request and streams the complaint
// events visible to the caller's role.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	claims, err := h.Auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}

	client := eventhub.NewWebSocketClient(h.Hub, conn, eventhub.Subscriber{UserID: claims.Subject, Role: claims.Role})
	h.Hub.Register(client)
	client.Run()
}
