package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/logging"
)

// Watch dials the catalog event WebSocket at wsURL and calls handle for every event
// until ctx is cancelled or the connection drops. A non-empty token is sent as the
// "token" query parameter.
func Watch(ctx context.Context, wsURL, token string, handle func(catalogtypes.Event)) error {
	u, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("invalid websocket url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("websocket dial: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// ReadMessage 不支持 context，取消时关闭连接使其返回
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}
		var event catalogtypes.Event
		if err := json.Unmarshal(data, &event); err != nil {
			logging.Debug("忽略无法解析的目录事件", logging.Err(err))
			continue
		}
		handle(event)
	}
}

// Watch subscribes the page to catalog events and reloads when the Current Directory
// changes on the server.
func (p *Page) Watch(ctx context.Context, wsURL string) error {
	return Watch(ctx, wsURL, p.gate.Token(), func(event catalogtypes.Event) {
		p.HandleEvent(ctx, event)
	})
}
