package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"
)

// ErrObjectMissing 表示后端确认对象不存在（区别于暂时不可达）.
// 孤儿清理只信任这个错误：网络或权限问题绝不能触发元数据删除.
var ErrObjectMissing = errors.New("storage: object missing")

// PutInfo 写入后端成功后的回执.
type PutInfo struct {
	Key       string
	ETag      string
	VersionID string
	Size      int64
}

// ObjectStat 后端对象的基本信息.
type ObjectStat struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Backend 字节存储后端抽象：按键的 put/stat/delete/presign/list 原语.
// 物理实现（S3/MinIO 等）可插拔，业务层只依赖本接口.
type Backend interface {
	// Put 写入对象.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutInfo, error)
	// Stat 查询对象；对象不存在时返回 ErrObjectMissing.
	Stat(ctx context.Context, key string) (ObjectStat, error)
	// Remove 删除对象；删除不存在的对象不是错误.
	Remove(ctx context.Context, key string) error
	// PresignGet 生成带可选响应参数的预签名下载 URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration, params url.Values) (string, error)
	// List 遍历指定前缀下的对象，fn 返回错误时终止.
	List(ctx context.Context, prefix string, fn func(ObjectStat) error) error
}
