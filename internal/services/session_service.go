package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
)

var (
	ErrInvalidPassword = errors.New("密码错误")
	ErrInvalidSession  = errors.New("会话缺少 JTI 或过期时间")
)

// SessionService 定义了管理员会话服务的接口：用共享密钥换取会话令牌，登出时吊销令牌。
type SessionService interface {
	Login(ctx context.Context, password string) (token string, expiresAt time.Time, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

// sessionService 是 SessionService 的实现。
type sessionService struct {
	cfg       config.AuthConfig
	blacklist auth.TokenBlacklist
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService(cfg config.AuthConfig, blacklist auth.TokenBlacklist) SessionService {
	return &sessionService{cfg: cfg, blacklist: blacklist}
}

// Login 校验管理员密码并签发令牌。没有锁定或限流。
func (s *sessionService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if !auth.CheckAdminPassword(password, s.cfg.AdminPassword, s.cfg.AdminPasswordHash) {
		metrics.RecordAuthAttempt(false)
		logging.WithContext(ctx).Info("管理员登录失败")
		return "", time.Time{}, ErrInvalidPassword
	}
	token, expiresAt, err := auth.GenerateToken(s.cfg)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("签发会话令牌失败: %w", err)
	}
	metrics.RecordAuthAttempt(true)
	logging.WithContext(ctx).Info("管理员登录成功", logging.String("expires_at", expiresAt.UTC().Format(time.RFC3339)))
	return token, expiresAt, nil
}

// Logout 将令牌的 jti 加入黑名单直到其原始过期时间。
func (s *sessionService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidSession
	}
	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("吊销会话失败: %w", err)
	}
	logging.WithContext(ctx).Info("管理员已登出")
	return nil
}
