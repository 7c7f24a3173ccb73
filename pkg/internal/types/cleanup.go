package types

import (
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// CleanupRequest 手工触发清理任务的请求.
type CleanupRequest struct {
	JobType    string `json:"job_type" validate:"required,oneof=temp_cleanup retention_policy orphan_cleanup user_deletion gdpr_deletion"`
	TargetID   string `json:"target_id,omitempty"`
	TargetKind string `json:"target_kind,omitempty"`
	// DeepScan 孤儿清理时反向核对存储端多余对象，代价高，默认关.
	DeepScan    bool   `json:"deep_scan,omitempty"`
	RequestedBy string `json:"-"`
	// ApprovedBy GDPR 删除等敏感任务需要的二次确认人.
	ApprovedBy string `json:"approved_by,omitempty"`
}

// CleanupJobInfo 清理任务记录的对外视图.
type CleanupJobInfo struct {
	ID               string     `json:"id"`
	JobType          string     `json:"job_type"`
	TargetID         string     `json:"target_id,omitempty"`
	TargetKind       string     `json:"target_kind,omitempty"`
	Status           string     `json:"status"`
	FilesFound       int        `json:"files_found"`
	FilesDeleted     int        `json:"files_deleted"`
	FilesAnonymized  int        `json:"files_anonymized"`
	FilesTransferred int        `json:"files_transferred"`
	BytesFreed       int64      `json:"bytes_freed"`
	Progress         int        `json:"progress"`
	ErrorsJSON       string     `json:"errors_json,omitempty"`
	WarningsJSON     string     `json:"warnings_json,omitempty"`
	RequestedBy      string     `json:"requested_by,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewCleanupJobInfo 从持久化模型构建视图.
func NewCleanupJobInfo(j *model.CleanupJob) CleanupJobInfo {
	return CleanupJobInfo{
		ID:               j.ID,
		JobType:          string(j.JobType),
		TargetID:         j.TargetID,
		TargetKind:       j.TargetKind,
		Status:           string(j.Status),
		FilesFound:       j.FilesFound,
		FilesDeleted:     j.FilesDeleted,
		FilesAnonymized:  j.FilesAnonymized,
		FilesTransferred: j.FilesTransferred,
		BytesFreed:       j.BytesFreed,
		Progress:         j.Progress,
		ErrorsJSON:       j.ErrorsJSON,
		WarningsJSON:     j.WarningsJSON,
		RequestedBy:      j.RequestedBy,
		ApprovedBy:       j.ApprovedBy,
		CreatedAt:        j.CreatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
	}
}
