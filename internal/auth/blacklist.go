package auth

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist 定义了 Token 黑名单的存储操作接口
type TokenBlacklist interface {
	// Add 将 jti 加入黑名单，并使其在 Token 的原始过期时间点之后自动从黑名单中移除。
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	// IsBlacklisted 检查 jti 是否存在于黑名单中。
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// memoryBlacklist 是进程内的黑名单实现，未配置 Redis 时使用。
type memoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryTokenBlacklist 创建一个进程内黑名单。重启后黑名单清空。
func NewMemoryTokenBlacklist() TokenBlacklist {
	return &memoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (m *memoryBlacklist) Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if !originalTokenExpTime.After(now) {
		return nil
	}
	m.entries[jti] = originalTokenExpTime
	// 顺带清理过期条目
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}
