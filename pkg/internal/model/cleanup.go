package model

import "time"

// CleanupJobType 清理任务类型.
type CleanupJobType string

const (
	JobTempCleanup     CleanupJobType = "temp_cleanup"
	JobRetentionPolicy CleanupJobType = "retention_policy"
	JobOrphanCleanup   CleanupJobType = "orphan_cleanup"
	JobUserDeletion    CleanupJobType = "user_deletion"
	JobGDPRDeletion    CleanupJobType = "gdpr_deletion"
)

// CleanupJobStatus 任务状态机：pending -> in_progress -> {completed|failed|partial}.
// 终态记录是不可变历史，重试永远创建新任务.
type CleanupJobStatus string

const (
	JobPending    CleanupJobStatus = "pending"
	JobInProgress CleanupJobStatus = "in_progress"
	JobCompleted  CleanupJobStatus = "completed"
	JobFailed     CleanupJobStatus = "failed"
	// JobPartial 扫描成功但部分单项操作失败的终态，
	// 与 completed 区分，避免带着错误清单却上报全部成功.
	JobPartial CleanupJobStatus = "partial"
)

// CleanupJob 一次清理任务调用的持久化记录.
type CleanupJob struct {
	// ID ULID，按创建时间可排序.
	ID         string           `gorm:"primaryKey;size:26" json:"id"`
	JobType    CleanupJobType   `gorm:"size:32;index"      json:"job_type"`
	TargetID   string           `gorm:"size:255"           json:"target_id,omitempty"`
	TargetKind string           `gorm:"size:32"            json:"target_kind,omitempty"`
	Status     CleanupJobStatus `gorm:"size:16;index"      json:"status"`

	FilesFound       int   `json:"files_found"`
	FilesDeleted     int   `json:"files_deleted"`
	FilesAnonymized  int   `json:"files_anonymized"`
	FilesTransferred int   `json:"files_transferred"`
	BytesFreed       int64 `json:"bytes_freed"`
	// Progress 0-100，可选.
	Progress int `json:"progress"`

	// ErrorsJSON / WarningsJSON 自由文本列表，JSON 存储.
	ErrorsJSON   string `gorm:"type:text" json:"errors_json,omitempty"`
	WarningsJSON string `gorm:"type:text" json:"warnings_json,omitempty"`

	RequestedBy string `gorm:"size:255" json:"requested_by,omitempty"`
	ApprovedBy  string `gorm:"size:255" json:"approved_by,omitempty"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (CleanupJob) TableName() string { return "cleanup_jobs" }

// Terminal 判断任务是否已处于终态.
func (s CleanupJobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobPartial
}
