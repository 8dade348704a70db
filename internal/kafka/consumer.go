package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"catalog-admin/internal/config"
	"catalog-admin/internal/logging"
)

// MessageHandler is a function type for processing consumed Kafka messages.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// MessageConsumer defines the interface for a Kafka message consumer.
type MessageConsumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

// confluentKafkaConsumer is an implementation of MessageConsumer using confluent-kafka-go.
type confluentKafkaConsumer struct {
	consumer *kafka.Consumer
	cfg      config.KafkaConfig
	groupID  string
}

// NewConfluentKafkaConsumer creates a new Kafka consumer. The underlying client is
// created in Consume, once the group id is known.
func NewConfluentKafkaConsumer(cfg config.KafkaConfig) (MessageConsumer, error) {
	return &confluentKafkaConsumer{cfg: cfg}, nil
}

// Consume starts consuming messages from the specified topics and group.
// It blocks until the context is canceled or a fatal error occurs. Offsets are
// committed only after the handler succeeds.
func (c *confluentKafkaConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("kafka consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "latest", // 只关心启动之后的目录变更
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		c.consumer = nil
		return fmt.Errorf("failed to subscribe to topics %v for group %s: %w", topics, groupID, err)
	}

	log := logging.L().With(logging.String("group", groupID))
	log.Info("Kafka consumer started", logging.Strings("topics", topics))

	for {
		select {
		case <-ctx.Done():
			log.Info("Context canceled, stopping Kafka consumer")
			return nil
		default:
		}

		ev := c.consumer.Poll(1000)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			topic := ""
			if e.TopicPartition.Topic != nil {
				topic = *e.TopicPartition.Topic
			}
			if err := handler(ctx, e); err != nil {
				log.Warn("Error processing Kafka message",
					logging.String("topic", topic),
					logging.String("offset", e.TopicPartition.Offset.String()),
					logging.Err(err),
				)
				continue
			}
			if _, err := c.consumer.CommitMessage(e); err != nil {
				log.Warn("Failed to commit offset", logging.String("topic", topic), logging.Err(err))
			}
		case kafka.Error:
			log.Warn("Kafka consumer error",
				logging.Int("code", int(e.Code())),
				logging.Bool("fatal", e.IsFatal()),
				logging.Err(e),
			)
			if e.IsFatal() {
				return e
			}
		case kafka.AssignedPartitions:
			log.Info("Partitions assigned", logging.Int("count", len(e.Partitions)))
			c.consumer.Assign(e.Partitions)
		case kafka.RevokedPartitions:
			log.Info("Partitions revoked", logging.Int("count", len(e.Partitions)))
			c.consumer.Unassign()
		}
	}
}

// Close closes the Kafka consumer.
func (c *confluentKafkaConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		logging.Warn("Error closing Kafka consumer", logging.String("group", c.groupID), logging.Err(err))
	} else {
		logging.Info("Kafka consumer closed", logging.String("group", c.groupID))
	}
	c.consumer = nil
}
