// Package types 定义服务层与 HTTP 层共享的请求/响应结构.
package types

// UploadRequest 单文件上传请求.文件内容以 io.Reader 形式单独传给服务层.
type UploadRequest struct {
	OwnerID        string `form:"owner_id"        json:"owner_id"        validate:"required"`
	OwnerKind      string `form:"owner_kind"      json:"owner_kind"      validate:"required,oneof=individual organization project public"`
	OrganizationID string `form:"organization_id" json:"organization_id" validate:"omitempty"`
	FileType       string `form:"file_type"       json:"file_type"       validate:"required"`
	FileName       string `form:"file_name"       json:"file_name"       validate:"required"`
	ContentType    string `form:"content_type"    json:"content_type"`
	Size           int64  `form:"size"            json:"size"            validate:"gte=0"`
	UploadedBy     string `form:"-"               json:"-"`
	IsPublic       bool   `form:"is_public"       json:"is_public"`
	AccessLevel    string `form:"access_level"    json:"access_level"    validate:"omitempty,oneof=private organization project public"`
	// RetentionBasis 留空时按同意（consent）处理.
	RetentionBasis  string `form:"retention_basis"  json:"retention_basis"  validate:"omitempty,oneof=consent contract legal_obligation legitimate_interest"`
	BusinessPurpose string `form:"business_purpose" json:"business_purpose"`
	// PlanTier 配额档位，留空用默认档.
	PlanTier string `form:"plan_tier" json:"plan_tier"`
}

// UploadResult 单文件上传结果.
type UploadResult struct {
	ID             string `json:"id"`
	FileName       string `json:"file_name"`
	StorageKey     string `json:"storage_key"`
	DownloadURL    string `json:"download_url"`
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
	AccessPattern  string `json:"access_pattern"`
	Classification string `json:"classification"`
	Size           int64  `json:"size"`
	ETag           string `json:"etag,omitempty"`
	IsCompressed   bool   `json:"is_compressed"`
	// QuotaWarning 用量达到告警阈值时的提示文本，不阻断上传.
	QuotaWarning string `json:"quota_warning,omitempty"`
}

// BatchFailure 批量操作中单项失败的描述.
type BatchFailure struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// BatchUploadResult 批量上传结果，成功与失败分列.
type BatchUploadResult struct {
	Succeeded []UploadResult `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
	// TotalTimeMs 整批耗时；AvgThroughputKBps 成功字节数的平均吞吐.
	TotalTimeMs       int64   `json:"total_time_ms"`
	AvgThroughputKBps float64 `json:"avg_throughput_kbps"`
}
