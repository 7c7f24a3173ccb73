package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// CreateJob 插入一条清理任务记录.
func (c *Catalog) CreateJob(ctx context.Context, j *model.CleanupJob) error {
	return c.db.WithContext(ctx).Create(j).Error
}

// UpdateJob 全量保存任务记录.终态记录不可再改.
func (c *Catalog) UpdateJob(ctx context.Context, j *model.CleanupJob) error {
	cur, err := c.JobByID(ctx, j.ID)
	if err != nil {
		return err
	}

	if cur.Status.Terminal() {
		return fmt.Errorf("catalog: job %s already terminal (%s)", j.ID, cur.Status)
	}

	return c.db.WithContext(ctx).Save(j).Error
}

// JobByID 按 ID 取任务记录.
func (c *Catalog) JobByID(ctx context.Context, id string) (*model.CleanupJob, error) {
	var j model.CleanupJob
	if err := c.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}

	return &j, nil
}

// ListJobs 按类型（可空）倒序分页列任务.ULID 主键按时间有序，
// 直接按 ID 排序即为创建时间序.
func (c *Catalog) ListJobs(ctx context.Context, jobType model.CleanupJobType, page, size int) ([]model.CleanupJob, int64, error) {
	if page <= 0 {
		page = 1
	}

	if size <= 0 || size > 100 {
		size = 20
	}

	dbx := c.db.WithContext(ctx).Model(&model.CleanupJob{})
	if jobType != "" {
		dbx = dbx.Where("job_type = ?", jobType)
	}

	var total int64
	if err := dbx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.CleanupJob
	if err := dbx.Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// EncodeStrings 把错误/警告清单序列化进任务记录的 JSON 列.
func EncodeStrings(items []string) string {
	if len(items) == 0 {
		return ""
	}

	raw, err := sonic.Marshal(items)
	if err != nil {
		return ""
	}

	return string(raw)
}

// RecordMetric 落一条性能记录.失败只影响观测，不影响主流程，
// 调用方通常忽略返回错误.
func (c *Catalog) RecordMetric(ctx context.Context, op, storageKey string, dur time.Duration, bytes int64, cacheHit bool) error {
	m := model.PerformanceMetric{
		Operation:  op,
		StorageKey: storageKey,
		DurationMs: dur.Milliseconds(),
		Bytes:      bytes,
		CacheHit:   cacheHit,
		CreatedAt:  time.Now().UTC(),
	}

	if ms := dur.Milliseconds(); ms > 0 {
		m.ThroughputKBps = float64(bytes) / 1024 / (float64(ms) / 1000)
	}

	return c.db.WithContext(ctx).Create(&m).Error
}
