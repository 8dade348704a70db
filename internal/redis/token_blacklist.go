package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
)

// redisTokenBlacklist 是 auth.TokenBlacklist 接口的 Redis 实现，多个 apiserver 实例共享吊销状态。
type redisTokenBlacklist struct {
	client redis.Cmdable
}

// NewRedisTokenBlacklist 创建一个新的 redisTokenBlacklist 实例。
func NewRedisTokenBlacklist(client redis.Cmdable) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client}
}

// NewClient 根据配置创建 Redis 客户端并执行一次 PING。
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败 (%s): %w", cfg.Addr, err)
	}
	return client, nil
}

const blacklistKeyPrefix = "catalog:bl:jti:"

// Add 将 jti 加入黑名单，并设置其在 Redis 中的过期时间为 Token 的原始过期时间点。
func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	duration := time.Until(originalTokenExpTime)
	if duration <= 0 {
		// Token 已经过期，JWT 验证本身会拒绝它。
		return nil
	}

	key := blacklistKeyPrefix + jti
	if err := r.client.Set(ctx, key, "revoked", duration).Err(); err != nil {
		return fmt.Errorf("添加到 Redis 黑名单失败 for JTI %s: %w", jti, err)
	}
	return nil
}

// IsBlacklisted 检查 jti 是否在黑名单中。
func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := blacklistKeyPrefix + jti
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("从 Redis 黑名单检查失败 for JTI %s: %w", jti, err)
	}
	return val == "revoked", nil
}
