package handler

import (
	"Vista/internal/pkg/response"
	"Vista/internal/pkg/security"
	"Vista/internal/pkg/ws"
	"Vista/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	registry *ws.Registry
}

func NewWsHandler(registry *ws.Registry) *WsHandler {
	return &WsHandler{registry: registry}
}

// Connect 建立实时通道，连接期间该用户视为在线
func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.WarnContext(c.Request.Context(), "ws auth failed", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "ws upgrade failed", "err", err)
		return
	}

	client := ws.NewClient(userID, conn)
	s.registry.Register(client)
	defer s.registry.Unregister(client)

	log.InfoContext(c.Request.Context(), "ws connected", "userID", userID, "clientID", client.ID)
	client.Serve(c.Request.Context())
	log.InfoContext(c.Request.Context(), "ws disconnected", "userID", userID, "clientID", client.ID)
}
