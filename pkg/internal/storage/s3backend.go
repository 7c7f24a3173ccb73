package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"

	s3c "github.com/rshetty-99/marketvault/pkg/internal/storage/s3"
)

// s3Backend 把 MinIO 客户端适配为 Backend 原语.
type s3Backend struct {
	cli *s3c.Client
}

// NewS3Backend 基于 S3 客户端构造对象存储后端.
func NewS3Backend(cli *s3c.Client) Backend {
	return &s3Backend{cli: cli}
}

func (b *s3Backend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutInfo, error) {
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}

	info, err := b.cli.PutObject(ctx, b.cli.Bucket(), key, r, size, opts)
	if err != nil {
		return PutInfo{}, err
	}

	return PutInfo{
		Key:       key,
		ETag:      strings.Trim(info.ETag, "\""),
		VersionID: info.VersionID,
		Size:      info.Size,
	}, nil
}

func (b *s3Backend) Stat(ctx context.Context, key string) (ObjectStat, error) {
	info, err := b.cli.StatObject(ctx, b.cli.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isMissing(err) {
			return ObjectStat{}, ErrObjectMissing
		}

		return ObjectStat{}, err
	}

	return ObjectStat{
		Key:          key,
		Size:         info.Size,
		ETag:         strings.Trim(info.ETag, "\""),
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (b *s3Backend) Remove(ctx context.Context, key string) error {
	err := b.cli.RemoveObject(ctx, b.cli.Bucket(), key, minio.RemoveObjectOptions{})
	if err != nil && !isMissing(err) {
		return err
	}

	return nil
}

func (b *s3Backend) PresignGet(ctx context.Context, key string, expiry time.Duration, params url.Values) (string, error) {
	u, err := b.cli.PresignedGetObject(ctx, b.cli.Bucket(), key, expiry, params)
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

func (b *s3Backend) List(ctx context.Context, prefix string, fn func(ObjectStat) error) error {
	ch := b.cli.ListObjects(ctx, b.cli.Bucket(), minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range ch {
		if obj.Err != nil {
			return obj.Err
		}

		stat := ObjectStat{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         strings.Trim(obj.ETag, "\""),
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		}

		if err := fn(stat); err != nil {
			return err
		}
	}

	return nil
}

// isMissing 判断 MinIO 错误是否为"对象确认不存在".
func isMissing(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}

	return false
}
