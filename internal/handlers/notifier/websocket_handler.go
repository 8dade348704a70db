package notifier

import (
	"net/http"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	ws "catalog-admin/internal/websocket"
)

// WebSocketHandler 负责处理目录变更推送的 WebSocket 连接请求。
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。blacklist 可以为 nil。
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, blacklist: blacklist, cfg: cfg}
}

// ServeHTTP 将连接升级为 WebSocket 并注册到 hub。
// 事件只包含目录名与订单号，允许匿名订阅；如果带了 token 查询参数则必须有效。
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if token := r.URL.Query().Get("token"); token != "" {
		if _, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist); err != nil {
			logging.WithContext(r.Context()).Info("WebSocket 连接尝试失败：令牌无效", logging.Err(err))
			http.Error(w, "令牌无效", http.StatusUnauthorized)
			return
		}
	}
	ws.ServeWs(h.hub, w, r, h.cfg.WebSocket)
}
