package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
)

// Hub maintains the set of active clients and broadcasts catalog events to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound event payloads for every client.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	count atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// ClientCount 返回当前连接数。
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Publish 实现 catalogtypes.EventPublisher，事件会被推送给所有连接。
func (h *Hub) Publish(ctx context.Context, event catalogtypes.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化目录事件失败: %w", err)
	}
	// 非阻塞发送，防止阻塞调用方 (HTTP handler / Kafka consumer)
	select {
	case h.broadcast <- payload:
		return nil
	default:
		return fmt.Errorf("hub 广播通道已满，丢弃事件 %s", event.Type)
	}
}

// BroadcastEvent 发布事件，失败只记录日志。供 Kafka consumer 使用。
func (h *Hub) BroadcastEvent(event catalogtypes.Event) {
	if err := h.Publish(context.Background(), event); err != nil {
		logging.Warn("广播目录事件失败", logging.Err(err))
	}
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	metrics.SetWSClients(len(h.clients))
}

// Run starts the hub and listens on its channels until ctx is cancelled.
// 退出时关闭所有客户端的发送通道。
func (h *Hub) Run(ctx context.Context) {
	logging.Info("WebSocket Hub Run loop started.")
	defer func() {
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
		h.setCount()
		logging.Info("WebSocket Hub Run loop stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			logging.Debug("客户端已注册", logging.String("remote", client.remote))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setCount()
				logging.Debug("客户端已注销", logging.String("remote", client.remote))
			}

		case payload := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// 发送缓冲区已满，视为慢客户端并移除
					logging.Warn("客户端发送通道已满，移除客户端", logging.String("remote", client.remote))
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.setCount()
		}
	}
}
