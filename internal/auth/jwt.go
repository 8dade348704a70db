package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"catalog-admin/internal/config"
)

const (
	// AdminSubject 是会话令牌的 sub 声明。系统只有一个共享的管理员身份。
	AdminSubject = "admin"
	tokenIssuer  = "catalog-admin"
)

// ErrTokenRevoked is returned by ValidateToken for a blacklisted token.
var ErrTokenRevoked = errors.New("JWT 已被吊销")

// Claims 是会话令牌中的声明，只使用标准声明 (sub, jti, iat, exp, iss)。
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 为管理员会话签发一个新的 JWT，返回令牌字符串与过期时间。
func GenerateToken(authCfg config.AuthConfig) (string, time.Time, error) {
	jwtID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("生成 JWT ID 失败: %w", err)
	}

	now := time.Now()
	expiry := authCfg.JWTExpiry
	if expiry <= 0 {
		expiry = 8 * time.Hour
	}
	expirationTime := now.Add(expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			ID:        jwtID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(authCfg.JWTSecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("生成 JWT 失败: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken 验证给定的 JWT 字符串的有效性。
// 如果令牌有效，它会返回 Claims。否则返回错误。
// blacklist 为 nil 时不检查吊销状态。
func ValidateToken(ctx context.Context, tokenString string, jwtKey string, blacklist TokenBlacklist) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", token.Header["alg"])
		}
		return []byte(jwtKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithSubject(AdminSubject))
	if err != nil {
		return nil, fmt.Errorf("解析或验证 JWT 失败: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("JWT 无效")
	}

	if blacklist != nil {
		if claims.ID == "" {
			return nil, errors.New("JWT 缺少 JTI (ID) 声明，无法检查黑名单")
		}
		isRevoked, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			// 黑名单不可用时拒绝
			return nil, fmt.Errorf("检查 Token 黑名单失败: %w", err)
		}
		if isRevoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}
