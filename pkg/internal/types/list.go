package types

import (
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// ListRequest 文件列表/搜索请求.
type ListRequest struct {
	OwnerID        string `form:"owner_id"        json:"owner_id"`
	OwnerKind      string `form:"owner_kind"      json:"owner_kind"`
	OrganizationID string `form:"organization_id" json:"organization_id"`
	FileType       string `form:"file_type"       json:"file_type"`
	Classification string `form:"classification"  json:"classification"`
	AccessPattern  string `form:"access_pattern"  json:"access_pattern"`
	UploadedBy     string `form:"uploaded_by"     json:"uploaded_by"`
	Page           int    `form:"page"            json:"page"`
	Size           int    `form:"size"            json:"size"`
}

// FileInfo 对外暴露的文件元数据视图.
type FileInfo struct {
	ID             string     `json:"id"`
	FileName       string     `json:"file_name"`
	StorageKey     string     `json:"storage_key"`
	FileType       string     `json:"file_type"`
	ContentType    string     `json:"content_type"`
	Size           int64      `json:"size"`
	OwnerID        string     `json:"owner_id"`
	OwnerKind      string     `json:"owner_kind"`
	OrganizationID string     `json:"organization_id,omitempty"`
	AccessLevel    string     `json:"access_level"`
	AccessPattern  string     `json:"access_pattern"`
	Classification string     `json:"classification"`
	RetentionBasis string     `json:"retention_basis"`
	IsPublic       bool       `json:"is_public"`
	IsAnonymized   bool       `json:"is_anonymized"`
	IsCompressed   bool       `json:"is_compressed"`
	DownloadCount  int64      `json:"download_count"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewFileInfo 从持久化模型构建视图.
func NewFileInfo(f *model.FileMetadata) FileInfo {
	return FileInfo{
		ID:             f.ID,
		FileName:       f.FileName,
		StorageKey:     f.StorageKey,
		FileType:       f.FileType,
		ContentType:    f.ContentType,
		Size:           f.Size,
		OwnerID:        f.OwnerID,
		OwnerKind:      f.OwnerKind,
		OrganizationID: f.OrganizationID,
		AccessLevel:    f.AccessLevel,
		AccessPattern:  f.AccessPattern,
		Classification: f.Classification,
		RetentionBasis: f.RetentionBasis,
		IsPublic:       f.IsPublic,
		IsAnonymized:   f.IsAnonymized,
		IsCompressed:   f.IsCompressed,
		DownloadCount:  f.DownloadCount,
		ExpiresAt:      f.ExpiresAt,
		LastAccessedAt: f.LastAccessedAt,
		CreatedAt:      f.CreatedAt,
	}
}

// ListResponse 文件列表响应.
type ListResponse struct {
	Files   []FileInfo `json:"files"`
	Total   int64      `json:"total"`
	HasMore bool       `json:"has_more"`
	Page    int        `json:"page"`
	Size    int        `json:"size"`
}
