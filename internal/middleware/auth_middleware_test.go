package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/config"
)

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetClaimsFromContext(r.Context()); !ok {
			t.Error("Expected claims in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestSessionMiddleware(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "k", JWTExpiry: time.Hour, RequireSession: true}
	bl := auth.NewMemoryTokenBlacklist()
	handler := SessionMiddleware(cfg, bl)(protectedHandler(t))

	token, exp, err := auth.GenerateToken(cfg)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}

	claims, err := auth.ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	if err != nil {
		t.Fatal(err)
	}
	bl.Add(context.Background(), claims.ID, exp)

	req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected revoked token to be rejected, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if body["message"] == "" || body["timestamp"] == "" {
		t.Errorf("Expected {error, message, timestamp}, got %v", body)
	}
}

func TestSessionMiddlewareDisabled(t *testing.T) {
	cfg := config.AuthConfig{RequireSession: false}
	called := false
	handler := SessionMiddleware(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/files", nil))
	if !called {
		t.Error("Expected request to pass through when sessions are not required")
	}
}
