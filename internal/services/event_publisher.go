package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-admin/internal/catalogtypes"
	"catalog-admin/internal/logging"
	"catalog-admin/internal/metrics"
)

// publishTimeout 限制单个下游 (Kafka 投递确认等) 对请求的拖延。
const publishTimeout = 5 * time.Second

// EventSink 是一个具名的事件发布目标，名称用于日志与指标标签。
type EventSink struct {
	Name      string
	Publisher catalogtypes.EventPublisher
}

// fanoutPublisher 依次发布到所有 sink，一个 sink 失败不影响其他 sink。
type fanoutPublisher struct {
	sinks []EventSink
}

// NewFanoutPublisher 创建一个发布到多个 sink 的 EventPublisher。nil Publisher 会被忽略。
func NewFanoutPublisher(sinks ...EventSink) catalogtypes.EventPublisher {
	var active []EventSink
	for _, s := range sinks {
		if s.Publisher != nil {
			active = append(active, s)
		}
	}
	return &fanoutPublisher{sinks: active}
}

func (p *fanoutPublisher) Publish(ctx context.Context, event catalogtypes.Event) error {
	var errs []error
	for _, sink := range p.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := sink.Publisher.Publish(sinkCtx, event)
		cancel()
		metrics.RecordEventPublished(sink.Name, err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name, err))
		}
	}
	return errors.Join(errs...)
}

// publishEvent 发布事件；失败只记录日志，不影响已经成功的变更。
func publishEvent(ctx context.Context, publisher catalogtypes.EventPublisher, event catalogtypes.Event) {
	if publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	// 请求可能已结束，事件发布不随请求取消
	if err := publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logging.WithContext(ctx).Warn("发布目录事件失败",
			logging.String("type", string(event.Type)),
			logging.String("dir", event.Dir),
			logging.Err(err),
		)
	}
}
