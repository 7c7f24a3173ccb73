package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/metrics"
	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

const (
	// compressMinSize 小于该尺寸的对象不值得压缩.
	compressMinSize = 4 << 10
	// defaultContentType 未声明时的内容类型.
	defaultContentType = "application/octet-stream"
	// thumbVariant 图片缩略 URL 的缓存变体名.
	thumbVariant = "thumb"
)

// Upload 上传单个文件：配额校验、放置、写入后端、元数据入库、
// 汇总增量与 URL 预热.r 为文件内容.
func (s *StorageService) Upload(ctx context.Context, req types.UploadRequest, r io.Reader) (types.UploadResult, error) {
	if err := validateUpload(&req); err != nil {
		return types.UploadResult{}, err
	}

	// 配额预检用声明尺寸，拒绝要发生在写入后端之前
	used, limit, err := s.quotaState(ctx, req.OwnerID, req.OwnerKind, req.PlanTier)
	if err != nil {
		return types.UploadResult{}, err
	}

	if used+req.Size > limit {
		s.publishQuotaExceeded(ctx, queue.QuotaExceededPayload{
			OwnerID: req.OwnerID, OwnerKind: req.OwnerKind,
			TotalSize: used, QuotaLimit: limit, Requested: req.Size,
		})

		return types.UploadResult{}, &QuotaExceededError{
			OwnerID: req.OwnerID, Used: used, Limit: limit, Requested: req.Size,
		}
	}

	now := s.now().UTC()
	id := uuid.NewString()
	// 存储名带 UUID 前缀，同名上传互不覆盖
	storedName := id + "_" + req.FileName
	placement := policy.Place(policy.OwnerKind(req.OwnerKind), req.OwnerID, req.FileType, storedName, now)

	body, storedSize, compressed, err := s.prepareBody(r, req.Size, req.ContentType)
	if err != nil {
		return types.UploadResult{}, fmt.Errorf("prepare upload body: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	start := s.now()

	info, err := s.backend.Put(ctx, placement.StorageKey, body, storedSize, contentType)
	if err != nil {
		return types.UploadResult{}, fmt.Errorf("store object: %w", err)
	}

	downloadURL := s.presignAndCache(ctx, placement.StorageKey, "", nil)

	thumbnailURL := ""
	if strings.HasPrefix(contentType, "image/") {
		thumbnailURL = s.presignAndCache(ctx, placement.StorageKey, thumbVariant,
			url.Values{"response-content-disposition": []string{"inline"}})
	}

	basis := req.RetentionBasis
	if basis == "" {
		basis = string(policy.BasisConsent)
	}

	level := req.AccessLevel
	if level == "" {
		level = string(policy.LevelPrivate)
	}

	meta := &model.FileMetadata{
		ID:              id,
		FileName:        req.FileName,
		StorageKey:      placement.StorageKey,
		DownloadURL:     downloadURL,
		FileType:        req.FileType,
		ContentType:     contentType,
		Size:            info.Size,
		UploadedBy:      req.UploadedBy,
		OwnerID:         req.OwnerID,
		OwnerKind:       req.OwnerKind,
		OrganizationID:  req.OrganizationID,
		IsPublic:        req.IsPublic,
		AccessLevel:     level,
		AccessPattern:   string(placement.AccessPattern),
		Classification:  string(placement.Classification),
		RetentionBasis:  basis,
		BusinessPurpose: req.BusinessPurpose,
		IsCompressed:    compressed,
		ThumbnailURL:    thumbnailURL,
		Version:         1,
		ExpiresAt:       s.expiryFor(req.FileType, now),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.catalog.SaveFile(ctx, meta); err != nil {
		// 元数据入库失败时回收已写入的对象，避免产生孤儿
		if rmErr := s.backend.Remove(ctx, placement.StorageKey); rmErr != nil {
			nlog.Logger().Warn().Err(rmErr).Str("key", placement.StorageKey).Msg("rollback object failed")
		}

		return types.UploadResult{}, fmt.Errorf("save metadata: %w", err)
	}

	warning := s.bumpSummary(ctx, req, info.Size, limit)

	metrics.ObjectOperations.WithLabelValues("upload", "success").Inc()
	metrics.UploadDuration.Observe(s.now().Sub(start).Seconds())

	if err := s.catalog.RecordMetric(ctx, "upload", placement.StorageKey, s.now().Sub(start), info.Size, false); err != nil {
		nlog.Logger().Debug().Err(err).Msg("record upload metric failed")
	}

	s.publishStored(ctx, queue.ObjectStoredPayload{
		Object: queue.ObjectRef{
			StorageKey:  placement.StorageKey,
			ETag:        info.ETag,
			Size:        info.Size,
			ContentType: contentType,
		},
		FileID:         id,
		FileType:       req.FileType,
		OwnerID:        req.OwnerID,
		OwnerKind:      req.OwnerKind,
		Classification: string(placement.Classification),
		AccessPattern:  string(placement.AccessPattern),
	})

	return types.UploadResult{
		ID:             id,
		FileName:       req.FileName,
		StorageKey:     placement.StorageKey,
		DownloadURL:    downloadURL,
		ThumbnailURL:   thumbnailURL,
		AccessPattern:  string(placement.AccessPattern),
		Classification: string(placement.Classification),
		Size:           info.Size,
		ETag:           info.ETag,
		IsCompressed:   compressed,
		QuotaWarning:   warning,
	}, nil
}

func validateUpload(req *types.UploadRequest) error {
	switch {
	case req.OwnerID == "":
		return fmt.Errorf("%w: owner_id required", ErrInvalidRequest)
	case req.OwnerKind == "":
		return fmt.Errorf("%w: owner_kind required", ErrInvalidRequest)
	case req.FileType == "":
		return fmt.Errorf("%w: file_type required", ErrInvalidRequest)
	case req.FileName == "":
		return fmt.Errorf("%w: file_name required", ErrInvalidRequest)
	case req.Size < 0:
		return fmt.Errorf("%w: negative size", ErrInvalidRequest)
	}

	return nil
}

// quotaState 返回所有者当前用量与配额上限.
func (s *StorageService) quotaState(ctx context.Context, ownerID, ownerKind, planTier string) (used, limit int64, err error) {
	limit = s.quota.LimitFor(ownerKind, planTier)

	sum, err := s.catalog.SummaryFor(ctx, ownerID)
	if errors.Is(err, catalog.ErrNotFound) {
		return 0, limit, nil
	}

	if err != nil {
		return 0, 0, err
	}

	if sum.QuotaLimit > 0 {
		limit = sum.QuotaLimit
	}

	return sum.TotalSize, limit, nil
}

// prepareBody 决定上传体：可压缩的文本类内容 gzip 后入库，其余原样流式上传.
func (s *StorageService) prepareBody(r io.Reader, declared int64, contentType string) (io.Reader, int64, bool, error) {
	if !compressible(contentType) || declared < compressMinSize {
		return r, declared, false, nil
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, false, err
	}

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, 0, false, err
	}

	if err := gz.Close(); err != nil {
		return nil, 0, false, err
	}

	// 压缩无收益时退回原始字节
	if buf.Len() >= len(raw) {
		return bytes.NewReader(raw), int64(len(raw)), false, nil
	}

	return bytes.NewReader(buf.Bytes()), int64(buf.Len()), true, nil
}

func compressible(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "text/"):
		return true
	case contentType == "application/json",
		contentType == "application/xml",
		contentType == "image/svg+xml":
		return true
	default:
		return false
	}
}

// expiryFor 推导保留到期时间：临时类型按最大存活时间，
// 其余按保留周期表；无配置的类型不设过期.
func (s *StorageService) expiryFor(fileType string, now time.Time) *time.Time {
	if strings.HasPrefix(fileType, "temp/") {
		t := now.Add(s.retention.TempMaxAge())
		return &t
	}

	if period, ok := s.retention.PeriodFor(fileType); ok {
		t := now.Add(period)
		return &t
	}

	return nil
}

// presignAndCache 生成预签名 GET URL 并写入缓存，失败返回空串（延迟到下载时再签）.
func (s *StorageService) presignAndCache(ctx context.Context, storageKey, variant string, params url.Values) string {
	u, err := s.backend.PresignGet(ctx, storageKey, s.presignExpiry, params)
	if err != nil {
		nlog.Logger().Debug().Err(err).Str("key", storageKey).Msg("presign at upload failed")
		return ""
	}

	if err := s.urls.Put(ctx, storageKey, variant, u, s.urlTTL()); err != nil {
		nlog.Logger().Debug().Err(err).Str("key", storageKey).Msg("cache url failed")
	}

	return u
}

// bumpSummary 写汇总增量并返回配额告警文本（未触发时为空）.
func (s *StorageService) bumpSummary(ctx context.Context, req types.UploadRequest, size, limit int64) string {
	sum, err := s.catalog.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID:    req.OwnerID,
		OwnerKind:  req.OwnerKind,
		FileType:   req.FileType,
		Files:      1,
		Bytes:      size,
		QuotaLimit: limit,
	})
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("owner", req.OwnerID).Msg("summary delta failed")
		return ""
	}

	if limit <= 0 {
		return ""
	}

	ratio := float64(sum.TotalSize) / float64(limit)
	metrics.QuotaUsedRatio.WithLabelValues(req.OwnerKind).Set(ratio)

	warnRatio := s.quota.WarnRatio

	if warnRatio <= 0 {
		warnRatio = 0.9
	}

	if ratio < warnRatio {
		return ""
	}

	s.publishQuotaWarning(ctx, queue.QuotaWarningPayload{
		OwnerID:    req.OwnerID,
		OwnerKind:  req.OwnerKind,
		TotalSize:  sum.TotalSize,
		QuotaLimit: limit,
		UsedRatio:  ratio,
	})

	return fmt.Sprintf("storage usage at %.0f%% of quota", ratio*100)
}
