package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
)

// Client is a middleman between the websocket connection and the hub.
// 连接是单向的：服务端推送事件，客户端发来的数据帧只用于保活并被丢弃。
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	remote string
}

func durationOr(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// readPump drains the connection so that pongs and close frames are processed.
func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	pongWait := durationOr(wsCfg.PongWaitSeconds, 60*time.Second)
	if wsCfg.MaxMessageSizeBytes > 0 {
		c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("WebSocket 连接异常关闭", logging.String("remote", c.remote), logging.Err(err))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection, one event per frame.
func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	writeWait := durationOr(wsCfg.WriteWaitSeconds, 10*time.Second)
	ticker := time.NewTicker(durationOr(wsCfg.PingPeriodSeconds, 54*time.Second))
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub 关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs 将 HTTP 请求升级为 WebSocket 连接并注册到 hub。
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, wsCfg config.WebSocketConfig) {
	bufSize := wsCfg.MaxMessageSizeBytes
	if bufSize <= 0 {
		bufSize = 1024
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  bufSize,
		WriteBufferSize: bufSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket Upgrade 失败", logging.Err(err))
		return
	}
	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		remote: r.RemoteAddr,
	}
	client.hub.register <- client

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)
}
