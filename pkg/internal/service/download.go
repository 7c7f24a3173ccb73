package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/metrics"
	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// DownloadURL 下发文件的预签名下载 URL：先查缓存，未命中再向后端签发.
// 缓存条目只是派生副本，丢失只意味着重新签一次.
func (s *StorageService) DownloadURL(ctx context.Context, req types.DownloadRequest) (types.DownloadResult, error) {
	if req.FileID == "" {
		return types.DownloadResult{}, fmt.Errorf("%w: file_id required", ErrInvalidRequest)
	}

	meta, err := s.catalog.FileByID(ctx, req.FileID)
	if errors.Is(err, catalog.ErrNotFound) {
		return types.DownloadResult{}, ErrFileNotFound
	}

	if err != nil {
		return types.DownloadResult{}, err
	}

	start := s.now()

	expiry := s.presignExpiry
	if req.ExpirySeconds > 0 {
		expiry = time.Duration(req.ExpirySeconds) * time.Second
	}

	result := types.DownloadResult{
		FileID:      meta.ID,
		FileName:    meta.FileName,
		ContentType: meta.ContentType,
		ExpiresIn:   int(expiry.Seconds()),
	}

	// 自定义有效期的 URL 不走缓存，避免把短命 URL 当长命发出去
	useCache := req.ExpirySeconds == 0

	if useCache {
		if u, ok := s.urls.Get(ctx, meta.StorageKey, req.Variant); ok {
			result.URL = u
			result.CacheHit = true

			metrics.URLCacheLookups.WithLabelValues("hit").Inc()
		} else {
			metrics.URLCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	if result.URL == "" {
		u, err := s.backend.PresignGet(ctx, meta.StorageKey, expiry, variantParams(req.Variant, meta.FileName))
		if err != nil {
			return types.DownloadResult{}, fmt.Errorf("presign download: %w", err)
		}

		result.URL = u

		if useCache {
			ttl := s.urlTTL()
			if expiry < ttl {
				ttl = expiry
			}

			if err := s.urls.Put(ctx, meta.StorageKey, req.Variant, u, ttl); err != nil {
				nlog.Logger().Debug().Err(err).Str("key", meta.StorageKey).Msg("cache url failed")
			}
		}
	}

	if err := s.catalog.TouchAccess(ctx, meta.ID, s.now().UTC()); err != nil {
		nlog.Logger().Debug().Err(err).Str("id", meta.ID).Msg("touch access failed")
	}

	if err := s.catalog.RecordMetric(ctx, "download_url", meta.StorageKey, s.now().Sub(start), meta.Size, result.CacheHit); err != nil {
		nlog.Logger().Debug().Err(err).Msg("record download metric failed")
	}

	s.publishAccessed(ctx, queue.ObjectAccessedPayload{
		FileID:     meta.ID,
		StorageKey: meta.StorageKey,
		Requester:  req.Requester,
		CacheHit:   result.CacheHit,
	})

	return result, nil
}

// variantParams 按变体构造预签名响应头参数.变体只改响应头，
// 底层对象始终相同.
func variantParams(variant, fileName string) url.Values {
	if variant == "" {
		if fileName == "" {
			return nil
		}

		return url.Values{
			"response-content-disposition": []string{fmt.Sprintf("attachment; filename=%q", fileName)},
		}
	}

	return url.Values{
		"response-content-disposition": []string{"inline"},
	}
}
