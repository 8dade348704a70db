package kafkahandlers

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"catalog-admin/internal/catalogtypes"
	kafkapkg "catalog-admin/internal/kafka"
	"catalog-admin/internal/logging"
)

// EventBroadcaster 将事件推送给所有已连接的 WebSocket 客户端。
type EventBroadcaster interface {
	BroadcastEvent(event catalogtypes.Event)
}

// CatalogEventConsumerLogic 处理从 Kafka 消费到的目录事件。
type CatalogEventConsumerLogic struct {
	broadcaster EventBroadcaster
}

// NewCatalogEventConsumerLogic creates a new instance of CatalogEventConsumerLogic.
func NewCatalogEventConsumerLogic(b EventBroadcaster) *CatalogEventConsumerLogic {
	if b == nil {
		logging.Fatal("EventBroadcaster cannot be nil")
	}
	return &CatalogEventConsumerLogic{broadcaster: b}
}

// HandleCatalogEvent is the kafka.MessageHandler passed to the consumer.
// 无法解析的消息被记录并跳过（返回 nil 以提交偏移量），不会被重试。
func (h *CatalogEventConsumerLogic) HandleCatalogEvent(ctx context.Context, msg *kafka.Message) error {
	event, err := kafkapkg.DecodeEvent(msg.Value)
	if err != nil {
		logging.Warn("跳过无法解析的目录事件",
			logging.String("key", string(msg.Key)),
			logging.Err(err),
		)
		return nil
	}

	logging.Debug("收到目录事件",
		logging.String("type", string(event.Type)),
		logging.String("dir", event.Dir),
	)
	h.broadcaster.BroadcastEvent(event)
	return nil
}
