// Package model 定义元数据目录的持久化模型.
package model

import (
	"time"
)

// FileMetadata 文件元数据，每个存储对象一条记录.
// 元数据目录是该表的唯一属主，缓存层只持有其 URL 的派生副本.
type FileMetadata struct {
	// ID 文件唯一标识（UUID）.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// FileName 展示用的原始文件名.
	FileName string `gorm:"size:512;index" json:"file_name"`
	// StorageKey 对象存储键，由 policy.Place 推导，全局唯一.
	StorageKey  string `gorm:"size:1024;uniqueIndex" json:"storage_key"`
	DownloadURL string `gorm:"size:2048"             json:"download_url"`
	// FileType 声明的文件用途标签（如 personal/avatar）.
	FileType    string `gorm:"size:128;index" json:"file_type"`
	ContentType string `gorm:"size:255"       json:"content_type"`
	Size        int64  `gorm:"index"          json:"size"`
	// UploadedBy 上传者身份，匿名化时会被替换为确定性占位符.
	UploadedBy string `gorm:"size:255" json:"uploaded_by"`
	// OwnerID/OwnerKind 所属实体；OrganizationID 为结构化的组织上下文，
	// 不允许编码进存储键.
	OwnerID        string `gorm:"size:255;index:idx_owner_type" json:"owner_id"`
	OwnerKind      string `gorm:"size:32;index"                 json:"owner_kind"`
	OrganizationID string `gorm:"size:255;index"                json:"organization_id,omitempty"`

	IsPublic    bool   `json:"is_public"`
	AccessLevel string `gorm:"size:32" json:"access_level"`
	// AccessPattern hot/warm/cold 放置层级.
	AccessPattern string `gorm:"size:16;index" json:"access_pattern"`
	// Classification 与 RetentionBasis 必须在保留任务处理该记录前设置，
	// 缺失本身是合规违规而不是隐式默认值.
	Classification  string `gorm:"size:32;index" json:"classification"`
	RetentionBasis  string `gorm:"size:32;index" json:"retention_basis"`
	BusinessPurpose string `gorm:"type:text"     json:"business_purpose,omitempty"`

	IsAnonymized bool       `gorm:"index" json:"is_anonymized"`
	AnonymizedAt *time.Time `json:"anonymized_at,omitempty"`

	IsCompressed bool   `json:"is_compressed"`
	ThumbnailURL string `gorm:"size:2048" json:"thumbnail_url,omitempty"`

	Version         int    `json:"version"`
	ParentVersionID string `gorm:"size:36" json:"parent_version_id,omitempty"`

	DownloadCount  int64      `json:"download_count"`
	ExpiresAt      *time.Time `gorm:"index" json:"expires_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 固定表名，避免复数推导差异.
func (FileMetadata) TableName() string { return "file_metadata" }
