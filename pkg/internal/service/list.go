package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
)

// List 按条件分页列文件.
func (s *StorageService) List(ctx context.Context, req types.ListRequest) (types.ListResponse, error) {
	rows, total, hasMore, err := s.catalog.ListPage(ctx, catalog.ListFilter{
		OwnerID:        req.OwnerID,
		OwnerKind:      req.OwnerKind,
		OrganizationID: req.OrganizationID,
		FileType:       req.FileType,
		Classification: req.Classification,
		AccessPattern:  req.AccessPattern,
		UploadedBy:     req.UploadedBy,
	}, req.Page, req.Size)
	if err != nil {
		return types.ListResponse{}, err
	}

	files := make([]types.FileInfo, 0, len(rows))
	for i := range rows {
		files = append(files, types.NewFileInfo(&rows[i]))
	}

	page := req.Page
	if page <= 0 {
		page = 1
	}

	size := req.Size
	if size <= 0 || size > 200 {
		size = 50
	}

	// 首页浏览时顺带预热该所有者热层文件的下载 URL
	if page == 1 && req.OwnerID != "" {
		s.PreloadHotURLs(req.OwnerID)
	}

	return types.ListResponse{Files: files, Total: total, HasMore: hasMore, Page: page, Size: size}, nil
}

// FileInfo 单个文件的元数据视图.
func (s *StorageService) FileInfo(ctx context.Context, fileID string) (types.FileInfo, error) {
	meta, err := s.catalog.FileByID(ctx, fileID)
	if errors.Is(err, catalog.ErrNotFound) {
		return types.FileInfo{}, ErrFileNotFound
	}

	if err != nil {
		return types.FileInfo{}, err
	}

	return types.NewFileInfo(meta), nil
}

// QuotaSummary 所有者的配额用量视图.尚无汇总行时返回零用量加配置上限.
func (s *StorageService) QuotaSummary(ctx context.Context, ownerID, ownerKind, planTier string) (types.QuotaSummary, error) {
	if ownerID == "" {
		return types.QuotaSummary{}, fmt.Errorf("%w: owner_id required", ErrInvalidRequest)
	}

	limit := s.quota.LimitFor(ownerKind, planTier)

	sum, err := s.catalog.SummaryFor(ctx, ownerID)
	if errors.Is(err, catalog.ErrNotFound) {
		return types.QuotaSummary{
			OwnerID:    ownerID,
			OwnerKind:  ownerKind,
			QuotaLimit: limit,
			ByType:     map[string]model.TypeUsage{},
			UpdatedAt:  s.now().UTC(),
		}, nil
	}

	if err != nil {
		return types.QuotaSummary{}, err
	}

	if sum.QuotaLimit > 0 {
		limit = sum.QuotaLimit
	}

	byType, err := catalog.ByType(sum)
	if err != nil {
		return types.QuotaSummary{}, err
	}

	out := types.QuotaSummary{
		OwnerID:    sum.OwnerID,
		OwnerKind:  sum.OwnerKind,
		FileCount:  sum.FileCount,
		TotalSize:  sum.TotalSize,
		QuotaLimit: limit,
		ByType:     byType,
		UpdatedAt:  sum.UpdatedAt,
	}

	if limit > 0 {
		out.UsedRatio = float64(sum.TotalSize) / float64(limit)

		warnRatio := s.quota.WarnRatio
		if warnRatio <= 0 {
			warnRatio = 0.9
		}

		out.Warning = out.UsedRatio >= warnRatio
	}

	return out, nil
}

// RebuildQuotaSummary 管理操作：重扫文件表修复汇总漂移.
func (s *StorageService) RebuildQuotaSummary(ctx context.Context, ownerID, ownerKind, planTier string) (types.QuotaSummary, error) {
	if ownerID == "" {
		return types.QuotaSummary{}, fmt.Errorf("%w: owner_id required", ErrInvalidRequest)
	}

	limit := s.quota.LimitFor(ownerKind, planTier)

	if _, err := s.catalog.RebuildSummary(ctx, ownerID, ownerKind, limit); err != nil {
		return types.QuotaSummary{}, err
	}

	return s.QuotaSummary(ctx, ownerID, ownerKind, planTier)
}

// SweepURLCache 清扫过期的 URL 缓存条目，返回删除数.由后台任务周期调用.
func (s *StorageService) SweepURLCache(ctx context.Context) int {
	return s.urls.EvictExpired(ctx)
}
