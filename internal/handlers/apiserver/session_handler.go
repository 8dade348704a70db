package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/services"
)

// SessionHandler 封装了管理员会话相关的 HTTP 处理器方法。
type SessionHandler struct {
	sessionService services.SessionService
}

// NewSessionHandler 创建一个新的 SessionHandler 实例。
func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// LoginRequest 是登录请求体。
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse 是登录成功后的响应体。
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login 处理 POST /api/session。
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorDetail(w, "无效的请求体", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		writeJSONError(w, "密码是必填项", http.StatusBadRequest)
		return
	}

	token, expiresAt, err := h.sessionService.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPassword) {
			writeJSONError(w, "密码错误", http.StatusUnauthorized)
			return
		}
		writeInternalError(w, r, "登录失败", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt.UTC()})
}

// Logout 处理 DELETE /api/session。路由必须挂在会话中间件之后。
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "未登录", http.StatusUnauthorized)
		return
	}
	if err := h.sessionService.Logout(r.Context(), claims); err != nil {
		if errors.Is(err, services.ErrInvalidSession) {
			writeJSONErrorDetail(w, "登出失败", err.Error(), http.StatusBadRequest)
			return
		}
		writeInternalError(w, r, "登出失败", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, MessageResponse{Message: "已登出"})
}
