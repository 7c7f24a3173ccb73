package types

// BatchDeleteRequest 批量删除请求.
type BatchDeleteRequest struct {
	FileIDs     []string `json:"file_ids" validate:"required,min=1,max=500"`
	RequestedBy string   `json:"-"`
}

// BatchDeleteResult 批量删除结果.
type BatchDeleteResult struct {
	Deleted    []string       `json:"deleted"`
	Failed     []BatchFailure `json:"failed"`
	BytesFreed int64          `json:"bytes_freed"`
}
