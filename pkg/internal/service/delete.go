package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/metrics"
	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// batchDeleteGroup 批量删除的分组大小.
const batchDeleteGroup = 10

// Delete 删除单个文件：先删后端对象，再删目录记录、回退汇总并清缓存.
// 后端里本就不存在的对象按已删除处理.
func (s *StorageService) Delete(ctx context.Context, fileID, requestedBy string) (int64, error) {
	meta, err := s.catalog.FileByID(ctx, fileID)
	if errors.Is(err, catalog.ErrNotFound) {
		return 0, ErrFileNotFound
	}

	if err != nil {
		return 0, err
	}

	if err := s.backend.Remove(ctx, meta.StorageKey); err != nil {
		return 0, fmt.Errorf("remove object: %w", err)
	}

	removed, err := s.catalog.DeleteFile(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("delete metadata: %w", err)
	}

	if !removed {
		// 并发删除同一记录，另一方已经完成收尾
		return 0, nil
	}

	if _, err := s.catalog.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID:   meta.OwnerID,
		OwnerKind: meta.OwnerKind,
		FileType:  meta.FileType,
		Files:     -1,
		Bytes:     -meta.Size,
	}); err != nil {
		nlog.Logger().Warn().Err(err).Str("owner", meta.OwnerID).Msg("summary delta failed")
	}

	if err := s.urls.Evict(ctx, meta.StorageKey); err != nil {
		nlog.Logger().Debug().Err(err).Str("key", meta.StorageKey).Msg("evict url failed")
	}

	metrics.ObjectOperations.WithLabelValues("delete", "success").Inc()

	s.publishDeleted(ctx, queue.ObjectDeletedPayload{
		Object:  queue.ObjectRef{StorageKey: meta.StorageKey, Size: meta.Size},
		FileID:  meta.ID,
		OwnerID: meta.OwnerID,
		Reason:  "user_request",
	})

	nlog.Logger().Info().
		Str("id", meta.ID).
		Str("key", meta.StorageKey).
		Str("requested_by", requestedBy).
		Int64("size", meta.Size).
		Msg("file deleted")

	return meta.Size, nil
}

// BatchDelete 按 10 个一组顺序删除.单项失败只记录，不中断其余项.
func (s *StorageService) BatchDelete(ctx context.Context, req types.BatchDeleteRequest) types.BatchDeleteResult {
	result := types.BatchDeleteResult{
		Deleted: make([]string, 0, len(req.FileIDs)),
	}

	for offset := 0; offset < len(req.FileIDs); offset += batchDeleteGroup {
		end := offset + batchDeleteGroup
		if end > len(req.FileIDs) {
			end = len(req.FileIDs)
		}

		for _, id := range req.FileIDs[offset:end] {
			if err := ctx.Err(); err != nil {
				result.Failed = append(result.Failed, types.BatchFailure{Ref: id, Error: err.Error()})
				continue
			}

			freed, err := s.Delete(ctx, id, req.RequestedBy)
			if err != nil {
				result.Failed = append(result.Failed, types.BatchFailure{Ref: id, Error: err.Error()})
				continue
			}

			result.Deleted = append(result.Deleted, id)
			result.BytesFreed += freed
		}
	}

	return result
}
