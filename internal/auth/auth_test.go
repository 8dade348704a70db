package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-admin/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AdminPassword: "s3cret",
		JWTSecretKey:  "test-signing-key",
		JWTExpiry:     time.Hour,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testAuthConfig()
	token, exp, err := GenerateToken(cfg)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("Expected expiry in the future, got %v", exp)
	}

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, NewMemoryTokenBlacklist())
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Subject != AdminSubject {
		t.Errorf("Expected subject %s, got %s", AdminSubject, claims.Subject)
	}
	if claims.ID == "" {
		t.Error("Expected jti to be set")
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	cfg := testAuthConfig()
	token, _, err := GenerateToken(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(context.Background(), token, "other-key", nil); err == nil {
		t.Error("Expected validation to fail with a different key")
	}
}

func TestGenerateTokenDefaultExpiry(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTExpiry = 0
	token, exp, err := GenerateToken(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Until(exp); d < 7*time.Hour || d > 8*time.Hour {
		t.Errorf("Expected 8h default expiry, got %v", d)
	}
	if _, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil); err != nil {
		t.Errorf("Expected token to be valid, got %v", err)
	}
}

func TestValidateTokenRevoked(t *testing.T) {
	cfg := testAuthConfig()
	ctx := context.Background()
	bl := NewMemoryTokenBlacklist()

	token, exp, err := GenerateToken(cfg)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ValidateToken(ctx, token, cfg.JWTSecretKey, bl)
	if err != nil {
		t.Fatal(err)
	}
	if err := bl.Add(ctx, claims.ID, exp); err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(ctx, token, cfg.JWTSecretKey, bl); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("Expected ErrTokenRevoked, got %v", err)
	}
}

func TestMemoryBlacklistExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	bl := &memoryBlacklist{entries: map[string]time.Time{}, now: func() time.Time { return now }}
	ctx := context.Background()

	if err := bl.Add(ctx, "past", now.Add(-time.Second)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := bl.IsBlacklisted(ctx, "past"); ok {
		t.Error("Expected already-expired jti to be ignored")
	}

	bl.Add(ctx, "live", now.Add(time.Minute))
	if ok, _ := bl.IsBlacklisted(ctx, "live"); !ok {
		t.Error("Expected live jti to be blacklisted")
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := bl.IsBlacklisted(ctx, "live"); ok {
		t.Error("Expected jti to leave the blacklist after expiry")
	}
}

func TestCheckAdminPassword(t *testing.T) {
	if !CheckAdminPassword("s3cret", "s3cret", "") {
		t.Error("Expected plain secret to match")
	}
	if CheckAdminPassword("wrong", "s3cret", "") {
		t.Error("Expected wrong password to fail")
	}
	if CheckSharedSecret("", "") {
		t.Error("Expected empty secret never to match")
	}

	hash, err := HashPassword("hashed")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckAdminPassword("hashed", "ignored", hash) {
		t.Error("Expected bcrypt hash to take precedence")
	}
	if CheckAdminPassword("ignored", "ignored", hash) {
		t.Error("Expected plain secret to be ignored when a hash is set")
	}
}
