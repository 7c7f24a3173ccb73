package types

// DownloadRequest 下载 URL 请求.
type DownloadRequest struct {
	FileID string `json:"file_id" validate:"required"`
	// Variant 派生形态标识（如 thumb-200），空串表示原始对象.
	// 只影响响应头与缓存键，底层对象相同.
	Variant string `form:"variant" json:"variant,omitempty"`
	// ExpirySeconds 自定义 URL 有效期，0 用服务端默认.
	ExpirySeconds int `form:"expiry_seconds" json:"expiry_seconds,omitempty" validate:"gte=0,lte=86400"`
	// Requester 请求者身份，用于访问审计.
	Requester string `form:"-" json:"-"`
}

// DownloadResult 下载 URL 响应.
type DownloadResult struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
	ExpiresIn   int    `json:"expires_in"`
	CacheHit    bool   `json:"cache_hit"`
}
