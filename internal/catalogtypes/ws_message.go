package catalogtypes

import (
	"context"
	"time"
)

// EventType defines the type of a catalog event.
type EventType string

const (
	FolderCreatedEvent  EventType = "folder.created"
	ImageUploadedEvent  EventType = "image.uploaded"
	EntryDeletedEvent   EventType = "entry.deleted"
	OrderCreatedEvent   EventType = "order.created"
	OrderCompletedEvent EventType = "order.completed"
)

// Event 描述一次目录或订单变更，经 Kafka 与 WebSocket 推送给打开的管理页面。
type Event struct {
	Type      EventType `json:"type"`
	Dir       string    `json:"dir"`            // 发生变更的目录，订单事件为空
	Name      string    `json:"name,omitempty"` // 文件夹/文件名，或订单号
	OrderID   uint      `json:"orderId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsCatalogChange reports whether the event changes a directory listing.
func (e Event) IsCatalogChange() bool {
	switch e.Type {
	case FolderCreatedEvent, ImageUploadedEvent, EntryDeletedEvent:
		return true
	}
	return false
}

// EventPublisher 发布目录事件。实现不得因下游不可用而阻塞调用方太久。
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
