package service

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound 目录中不存在该文件.
	ErrFileNotFound = errors.New("service: file not found")
	// ErrInvalidRequest 请求参数不合法.
	ErrInvalidRequest = errors.New("service: invalid request")
)

// QuotaExceededError 上传会超出所有者配额.
// 携带用量细节，便于调用方生成准确的拒绝响应.
type QuotaExceededError struct {
	OwnerID   string
	Used      int64
	Limit     int64
	Requested int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: used %d + requested %d > limit %d",
		e.OwnerID, e.Used, e.Requested, e.Limit)
}

// IsQuotaExceeded 判断错误是否为配额超限.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
