package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

func publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishObjectStored 发布 mv.object.stored 事件.
// 对象写入存储且元数据入库后调用，通知下游（审计、报表等）.
func PublishObjectStored(pub message.Publisher, payload ObjectStoredPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicObjectStored, payload, opts...)
}

// PublishObjectDeleted 发布 mv.object.deleted 事件.
func PublishObjectDeleted(pub message.Publisher, payload ObjectDeletedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicObjectDeleted, payload, opts...)
}

// PublishObjectAccessed 发布 mv.object.accessed 事件.
func PublishObjectAccessed(pub message.Publisher, payload ObjectAccessedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicObjectAccessed, payload, opts...)
}

// PublishQuotaWarning 发布 mv.quota.warning 事件.
func PublishQuotaWarning(pub message.Publisher, payload QuotaWarningPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicQuotaWarning, payload, opts...)
}

// PublishQuotaExceeded 发布 mv.quota.exceeded 事件.
func PublishQuotaExceeded(pub message.Publisher, payload QuotaExceededPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicQuotaExceeded, payload, opts...)
}

// PublishCleanupFinished 发布 mv.cleanup.finished 事件.
func PublishCleanupFinished(pub message.Publisher, payload CleanupFinishedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicCleanupFinished, payload, opts...)
}

// PublishComplianceReported 发布 mv.compliance.reported 事件.
func PublishComplianceReported(pub message.Publisher, payload ComplianceReportedPayload, opts ...func(*EventHeader)) error {
	return publish(pub, TopicComplianceReported, payload, opts...)
}

// ParseObjectStored 将 Watermill 消息解析为强类型信封.
func ParseObjectStored(msg *message.Message) (Message[ObjectStoredPayload], error) {
	return ParseWatermillMessage[ObjectStoredPayload](msg)
}

// ParseCleanupFinished 将 Watermill 消息解析为强类型信封.
func ParseCleanupFinished(msg *message.Message) (Message[CleanupFinishedPayload], error) {
	return ParseWatermillMessage[CleanupFinishedPayload](msg)
}
