package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// summaryCASRetries CAS 冲突时的重试上限.并发上传同一所有者时
// 乐观锁会偶发失败，重读后重试即可收敛.
const summaryCASRetries = 5

// ErrSummaryConflict 汇总行版本冲突且重试耗尽.
var ErrSummaryConflict = errors.New("catalog: summary version conflict")

// SummaryFor 取所有者的配额汇总，不存在时返回 ErrNotFound.
func (c *Catalog) SummaryFor(ctx context.Context, ownerID string) (*model.StorageSummary, error) {
	var s model.StorageSummary
	if err := c.db.WithContext(ctx).First(&s, "owner_id = ?", ownerID).Error; err != nil {
		return nil, wrapNotFound(err)
	}

	return &s, nil
}

// SummaryDelta 一次汇总增量.删除时传负值.
type SummaryDelta struct {
	OwnerID   string
	OwnerKind string
	FileType  string
	Files     int64
	Bytes     int64
	// QuotaLimit 新建汇总行时写入的配额上限，已存在的行不覆盖.
	QuotaLimit int64
}

// ApplySummaryDelta 以读-改-写 + 版本校验的方式更新汇总计数器.
// 并发写同一行时 UPDATE ... WHERE lock_version = ? 只会有一个成功，
// 失败方重读最新行后重试.计数永不减到负数.
func (c *Catalog) ApplySummaryDelta(ctx context.Context, d SummaryDelta) (*model.StorageSummary, error) {
	for attempt := 0; attempt < summaryCASRetries; attempt++ {
		cur, err := c.SummaryFor(ctx, d.OwnerID)
		if errors.Is(err, ErrNotFound) {
			created, cerr := c.createSummary(ctx, d)
			if cerr == nil {
				return created, nil
			}

			// 并发首建撞了唯一键，重读走更新路径
			continue
		}

		if err != nil {
			return nil, err
		}

		next, err := applyDelta(cur, d)
		if err != nil {
			return nil, err
		}

		tx := c.db.WithContext(ctx).Model(&model.StorageSummary{}).
			Where("owner_id = ? AND lock_version = ?", d.OwnerID, cur.LockVersion).
			Updates(map[string]any{
				"file_count":   next.FileCount,
				"total_size":   next.TotalSize,
				"by_type_json": next.ByTypeJSON,
				"lock_version": cur.LockVersion + 1,
				"updated_at":   time.Now().UTC(),
			})
		if tx.Error != nil {
			return nil, tx.Error
		}

		if tx.RowsAffected == 1 {
			next.LockVersion = cur.LockVersion + 1
			return next, nil
		}
	}

	return nil, ErrSummaryConflict
}

func (c *Catalog) createSummary(ctx context.Context, d SummaryDelta) (*model.StorageSummary, error) {
	byType := map[string]model.TypeUsage{}
	if d.FileType != "" && (d.Files > 0 || d.Bytes > 0) {
		byType[d.FileType] = model.TypeUsage{Count: maxI64(d.Files, 0), Size: maxI64(d.Bytes, 0)}
	}

	raw, err := sonic.Marshal(byType)
	if err != nil {
		return nil, fmt.Errorf("marshal by_type: %w", err)
	}

	s := &model.StorageSummary{
		OwnerID:     d.OwnerID,
		OwnerKind:   d.OwnerKind,
		FileCount:   maxI64(d.Files, 0),
		TotalSize:   maxI64(d.Bytes, 0),
		ByTypeJSON:  string(raw),
		QuotaLimit:  d.QuotaLimit,
		LockVersion: 1,
		UpdatedAt:   time.Now().UTC(),
	}

	if err := c.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}

	return s, nil
}

func applyDelta(cur *model.StorageSummary, d SummaryDelta) (*model.StorageSummary, error) {
	byType := map[string]model.TypeUsage{}
	if cur.ByTypeJSON != "" {
		if err := sonic.Unmarshal([]byte(cur.ByTypeJSON), &byType); err != nil {
			return nil, fmt.Errorf("unmarshal by_type: %w", err)
		}
	}

	if d.FileType != "" {
		u := byType[d.FileType]
		u.Count = maxI64(u.Count+d.Files, 0)
		u.Size = maxI64(u.Size+d.Bytes, 0)

		if u.Count == 0 && u.Size == 0 {
			delete(byType, d.FileType)
		} else {
			byType[d.FileType] = u
		}
	}

	raw, err := sonic.Marshal(byType)
	if err != nil {
		return nil, fmt.Errorf("marshal by_type: %w", err)
	}

	next := *cur
	next.FileCount = maxI64(cur.FileCount+d.Files, 0)
	next.TotalSize = maxI64(cur.TotalSize+d.Bytes, 0)
	next.ByTypeJSON = string(raw)

	return &next, nil
}

// RebuildSummary 重扫文件表重建汇总行，用于汇总漂移后的管理修复.
// quotaLimit <= 0 时保留现有配额上限.
func (c *Catalog) RebuildSummary(ctx context.Context, ownerID, ownerKind string, quotaLimit int64) (*model.StorageSummary, error) {
	type row struct {
		FileType string `gorm:"column:file_type"`
		Cnt      int64  `gorm:"column:cnt"`
		Sum      int64  `gorm:"column:sum"`
	}

	var rows []row
	if err := c.db.WithContext(ctx).Model(&model.FileMetadata{}).
		Select("file_type, COUNT(*) AS cnt, COALESCE(SUM(size),0) AS sum").
		Where("owner_id = ?", ownerID).
		Group("file_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byType := make(map[string]model.TypeUsage, len(rows))

	var files, bytes int64

	for _, r := range rows {
		byType[r.FileType] = model.TypeUsage{Count: r.Cnt, Size: r.Sum}
		files += r.Cnt
		bytes += r.Sum
	}

	raw, err := sonic.Marshal(byType)
	if err != nil {
		return nil, fmt.Errorf("marshal by_type: %w", err)
	}

	if quotaLimit <= 0 {
		if cur, err := c.SummaryFor(ctx, ownerID); err == nil {
			quotaLimit = cur.QuotaLimit
		}
	}

	s := &model.StorageSummary{
		OwnerID:     ownerID,
		OwnerKind:   ownerKind,
		FileCount:   files,
		TotalSize:   bytes,
		ByTypeJSON:  string(raw),
		QuotaLimit:  quotaLimit,
		LockVersion: 1,
		UpdatedAt:   time.Now().UTC(),
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.StorageSummary{}, "owner_id = ?", ownerID).Error; err != nil {
			return err
		}

		return tx.Create(s).Error
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// ByType 解析汇总行的按类型细分.
func ByType(s *model.StorageSummary) (map[string]model.TypeUsage, error) {
	byType := map[string]model.TypeUsage{}
	if s.ByTypeJSON == "" {
		return byType, nil
	}

	if err := sonic.Unmarshal([]byte(s.ByTypeJSON), &byType); err != nil {
		return nil, fmt.Errorf("unmarshal by_type: %w", err)
	}

	return byType, nil
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
