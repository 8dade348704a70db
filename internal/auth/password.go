package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 使用 bcrypt 对密码进行哈希处理，用于生成 AUTH.ADMIN_PASSWORD_HASH。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash 验证提供的密码是否与其 bcrypt 哈希值匹配。
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckSharedSecret 以常量时间比较密码与配置中的共享密钥。空密钥永远不匹配。
func CheckSharedSecret(password, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(secret)) == 1
}

// CheckAdminPassword 优先使用 bcrypt 哈希，未配置哈希时退回明文共享密钥。
func CheckAdminPassword(password, plain, hash string) bool {
	if hash != "" {
		return CheckPasswordHash(password, hash)
	}
	return CheckSharedSecret(password, plain)
}
