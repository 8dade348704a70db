package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/config"
	ws "catalog-admin/internal/websocket"
)

func TestPageWatchReloadsCurrentDir(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r, config.WebSocketConfig{})
	}))
	defer srv.Close()

	api := newFakeAPI()
	page := NewPage(api, openGate(t), PageOptions{StartDir: "Shoes"})

	watchErr := make(chan error, 1)
	go func() { watchErr <- page.Watch(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")) }()

	waitUntil(t, func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastEvent(catalogtypes.Event{Type: catalogtypes.FolderCreatedEvent, Dir: "Bags", Name: "x"})
	hub.BroadcastEvent(catalogtypes.Event{Type: catalogtypes.ImageUploadedEvent, Dir: "Shoes", Name: "A1.jpg"})
	waitUntil(t, func() bool { return api.count("list") == 1 })

	// 只有当前目录的事件触发重新加载
	time.Sleep(50 * time.Millisecond)
	if n := api.count("list"); n != 1 {
		t.Errorf("Expected exactly one reload, got %d", n)
	}

	cancel()
	select {
	case err := <-watchErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatchDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	err := Watch(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "", func(catalogtypes.Event) {})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected dial failure with status 404, got %v", err)
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
