// internal/handlers/websocket/websocket.go
package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"insurance-service/internal/pkg/response"
	ws "insurance-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	baseCtx  context.Context
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler ties every connection to baseCtx so server shutdown
// closes them. origins lists allowed browser origins; "*" allows any.
func NewWebSocketHandler(baseCtx context.Context, hub *ws.Hub, origins []string, logger *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &WebSocketHandler{
		baseCtx: baseCtx,
		hub:     hub,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleConnection authenticates before upgrading so failures get a normal
// JSON error response.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := extractToken(c)
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		return
	}

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("websocket authentication failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.Error(c, http.StatusUnauthorized, "authentication failed", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		return
	}

	client := ws.NewClient(h.baseCtx, h.hub, conn, auth)
	if !h.hub.Register(client) {
		h.logger.Error("websocket hub not accepting clients")
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetStats reports live connection counts (admin only).
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", gin.H{
		"total_connections": h.hub.TotalClients(),
		"timestamp":         time.Now(),
	})
}
