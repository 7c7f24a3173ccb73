package service

import (
	"context"

	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// producerName 事件头中的生产者标识.
const producerName = "marketvault"

// publishEvent 发布事件，尽力而为：MQ 缺失或发布失败只记日志，不影响主流程.
func (s *StorageService) publishEvent(ctx context.Context, topic string, build func() (any, error)) {
	if s.mq == nil || !s.events.Enabled {
		return
	}

	payload, err := build()
	if err != nil || payload == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(topic, payload, queue.WithProducer(producerName))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("encode event failed")
		return
	}

	if err := s.mq.Publish(ctx, topic, msg); err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

func (s *StorageService) publishStored(ctx context.Context, p queue.ObjectStoredPayload) {
	if !s.events.Object.Stored {
		return
	}

	s.publishEvent(ctx, queue.TopicObjectStored, func() (any, error) { return p, nil })
}

func (s *StorageService) publishDeleted(ctx context.Context, p queue.ObjectDeletedPayload) {
	if !s.events.Object.Deleted {
		return
	}

	s.publishEvent(ctx, queue.TopicObjectDeleted, func() (any, error) { return p, nil })
}

func (s *StorageService) publishAccessed(ctx context.Context, p queue.ObjectAccessedPayload) {
	if !s.events.Object.Accessed {
		return
	}

	s.publishEvent(ctx, queue.TopicObjectAccessed, func() (any, error) { return p, nil })
}

func (s *StorageService) publishQuotaWarning(ctx context.Context, p queue.QuotaWarningPayload) {
	if !s.events.Admin.QuotaWarning {
		return
	}

	s.publishEvent(ctx, queue.TopicQuotaWarning, func() (any, error) { return p, nil })
}

func (s *StorageService) publishQuotaExceeded(ctx context.Context, p queue.QuotaExceededPayload) {
	if !s.events.Admin.QuotaWarning {
		return
	}

	s.publishEvent(ctx, queue.TopicQuotaExceeded, func() (any, error) { return p, nil })
}
