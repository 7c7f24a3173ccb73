package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 对象生命周期 --------------------------

// ObjectRef 标识一个已放置的存储对象.
type ObjectRef struct {
	StorageKey  string `json:"storage_key"`
	ETag        string `json:"etag,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// ObjectStoredPayload 对象已写入存储且元数据入库.
type ObjectStoredPayload struct {
	Object         ObjectRef `json:"object"`
	FileID         string    `json:"file_id"`
	FileType       string    `json:"file_type"`
	OwnerID        string    `json:"owner_id"`
	OwnerKind      string    `json:"owner_kind"`
	Classification string    `json:"classification,omitempty"`
	AccessPattern  string    `json:"access_pattern,omitempty"`
}

// ObjectDeletedPayload 对象已从存储与目录中删除.
type ObjectDeletedPayload struct {
	Object  ObjectRef `json:"object"`
	FileID  string    `json:"file_id"`
	OwnerID string    `json:"owner_id"`
	// Reason 删除原因（user_request、temp_cleanup、retention_policy、gdpr_deletion 等）.
	Reason string `json:"reason,omitempty"`
}

// ObjectAccessedPayload 对象被访问（下发下载 URL）.
type ObjectAccessedPayload struct {
	FileID     string `json:"file_id"`
	StorageKey string `json:"storage_key"`
	Requester  string `json:"requester,omitempty"`
	CacheHit   bool   `json:"cache_hit"`
}

// -------------------------- 配额 --------------------------

// QuotaWarningPayload 用量达到告警阈值.
type QuotaWarningPayload struct {
	OwnerID    string  `json:"owner_id"`
	OwnerKind  string  `json:"owner_kind"`
	TotalSize  int64   `json:"total_size"`
	QuotaLimit int64   `json:"quota_limit"`
	UsedRatio  float64 `json:"used_ratio"`
}

// QuotaExceededPayload 上传因配额超限被拒绝.
type QuotaExceededPayload struct {
	OwnerID    string `json:"owner_id"`
	OwnerKind  string `json:"owner_kind"`
	TotalSize  int64  `json:"total_size"`
	QuotaLimit int64  `json:"quota_limit"`
	Requested  int64  `json:"requested"`
}

// -------------------------- 清理与合规 --------------------------

// CleanupFinishedPayload 清理任务到达终态.
type CleanupFinishedPayload struct {
	JobID           string `json:"job_id"`
	JobType         string `json:"job_type"`
	Status          string `json:"status"`
	FilesFound      int    `json:"files_found"`
	FilesDeleted    int    `json:"files_deleted"`
	FilesAnonymized int    `json:"files_anonymized"`
	BytesFreed      int64  `json:"bytes_freed"`
}

// ComplianceReportedPayload 合规报告生成完成.
type ComplianceReportedPayload struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	FilesScanned int64          `json:"files_scanned"`
	Violations   int            `json:"violations"`
	BySeverity   map[string]int `json:"by_severity"`
}
