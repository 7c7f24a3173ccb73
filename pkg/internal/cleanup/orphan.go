package cleanup

import (
	"context"
	"errors"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// runOrphanCleanup 删除后端对象已确认不存在的元数据记录.
// 只有明确的"不存在"才算孤儿；后端不可达或其它错误一律跳过，
// 绝不因为一次网络抖动删掉有效元数据.
func (e *Engine) runOrphanCleanup(ctx context.Context, req types.CleanupRequest, st *jobState) error {
	filter := catalog.ListFilter{}
	if req.TargetID != "" {
		filter.OwnerID = req.TargetID
	}

	var rows []model.FileMetadata

	if err := e.catalog.ForEach(ctx, filter, scanBatchSize, func(f model.FileMetadata) error {
		rows = append(rows, f)
		return nil
	}); err != nil {
		return err
	}

	st.found = len(rows)

	for i := range rows {
		f := &rows[i]

		_, err := e.backend.Stat(ctx, f.StorageKey)
		if err == nil {
			continue
		}

		if !errors.Is(err, storage.ErrObjectMissing) {
			st.errorf("stat %s: %v", f.StorageKey, err)
			continue
		}

		// 孤儿是告警级事件：元数据在，字节不在
		nlog.Logger().Warn().Str("id", f.ID).Str("key", f.StorageKey).Msg("orphaned metadata detected")
		st.warnf("orphaned metadata %s (%s)", f.ID, f.StorageKey)

		if removed, err := e.catalog.DeleteFile(ctx, f.ID); err != nil {
			st.errorf("delete orphan %s: %v", f.ID, err)
		} else if removed {
			if _, err := e.catalog.ApplySummaryDelta(ctx, catalog.SummaryDelta{
				OwnerID:   f.OwnerID,
				OwnerKind: f.OwnerKind,
				FileType:  f.FileType,
				Files:     -1,
				Bytes:     -f.Size,
			}); err != nil {
				st.warnf("summary delta for %s: %v", f.OwnerID, err)
			}

			if err := e.urls.Evict(ctx, f.StorageKey); err != nil {
				nlog.Logger().Debug().Err(err).Str("key", f.StorageKey).Msg("evict url failed")
			}

			st.deleted++
		}
	}

	if req.DeepScan {
		if err := e.deepScan(ctx, st); err != nil {
			st.errorf("deep scan: %v", err)
		}
	}

	return nil
}

// deepScan 反向核对：列举后端对象，清除没有元数据记录的残留.
// 代价高，只在显式要求时运行.只处理当前月份之前的键桶，
// 避免把"对象已写入、元数据尚未入库"的进行中上传误判为残留.
func (e *Engine) deepScan(ctx context.Context, st *jobState) error {
	currentBucket := e.now().UTC().Format("2006-01")

	var strays []storage.ObjectStat

	err := e.backend.List(ctx, "files/", func(obj storage.ObjectStat) error {
		if bucketOf(obj.Key) >= currentBucket {
			return nil
		}

		if _, err := e.catalog.FileByKey(ctx, obj.Key); errors.Is(err, catalog.ErrNotFound) {
			strays = append(strays, obj)
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, obj := range strays {
		st.warnf("stray object without metadata: %s", obj.Key)

		if err := e.backend.Remove(ctx, obj.Key); err != nil {
			st.errorf("remove stray %s: %v", obj.Key, err)
			continue
		}

		st.deleted++
		st.bytesFreed += obj.Size
	}

	return nil
}

// bucketOf 取存储键中的年月桶（files/<yyyy-mm>/...），格式异常返回空串.
func bucketOf(key string) string {
	const prefix = "files/"
	if len(key) < len(prefix)+len("2006-01") {
		return ""
	}

	return key[len(prefix) : len(prefix)+len("2006-01")]
}
