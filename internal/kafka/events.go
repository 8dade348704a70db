package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-admin/internal/catalogtypes"
)

// eventPublisher 将目录事件以 JSON 写入 Kafka 主题，key 为事件目录，保证同一目录的事件有序。
type eventPublisher struct {
	producer MessageProducer
	topic    string
}

// NewEventPublisher 创建一个发布到 topic 的 catalogtypes.EventPublisher。
func NewEventPublisher(producer MessageProducer, topic string) catalogtypes.EventPublisher {
	return &eventPublisher{producer: producer, topic: topic}
}

func (p *eventPublisher) Publish(ctx context.Context, event catalogtypes.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化目录事件失败: %w", err)
	}
	return p.producer.SendMessage(ctx, p.topic, []byte(event.Dir), payload)
}

// DecodeEvent 解析 Kafka 消息体中的目录事件。
func DecodeEvent(payload []byte) (catalogtypes.Event, error) {
	var event catalogtypes.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("解析目录事件失败: %w", err)
	}
	if event.Type == "" {
		return event, fmt.Errorf("目录事件缺少 type 字段")
	}
	return event, nil
}
