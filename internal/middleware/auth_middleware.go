package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
)

// contextKey 是用于在 context.Context 中存储值的自定义类型，以避免键冲突。
type contextKey string

// ClaimsKey 是用于在上下文中存储会话声明的键。
const ClaimsKey contextKey = "sessionClaims"

// SessionMiddleware 验证 Bearer 会话令牌并将声明放入请求上下文。
// authCfg.RequireSession 为 false 时直接放行（仅用于本地开发）。
func SessionMiddleware(authCfg config.AuthConfig, blacklist auth.TokenBlacklist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authCfg.RequireSession {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := BearerToken(r)
			if !ok {
				writeJSONError(w, "请求未包含有效的授权令牌", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateToken(r.Context(), tokenString, authCfg.JWTSecretKey, blacklist)
			if err != nil {
				logging.WithContext(r.Context()).Info("会话令牌无效", logging.Err(err))
				writeJSONError(w, "会话无效或已过期", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken 从 Authorization 头部提取 "Bearer {token}"。
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	headerParts := strings.SplitN(authHeader, " ", 2)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(headerParts[1])
	return token, token != ""
}

// GetClaimsFromContext 从上下文中获取会话声明。
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":     http.StatusText(statusCode),
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
