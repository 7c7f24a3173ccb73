package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// SaveFile 插入一条文件元数据记录.
func (c *Catalog) SaveFile(ctx context.Context, f *model.FileMetadata) error {
	return c.db.WithContext(ctx).Create(f).Error
}

// UpdateFile 全量更新一条已存在的记录.
func (c *Catalog) UpdateFile(ctx context.Context, f *model.FileMetadata) error {
	return c.db.WithContext(ctx).Save(f).Error
}

// FileByID 按主键取文件元数据.
func (c *Catalog) FileByID(ctx context.Context, id string) (*model.FileMetadata, error) {
	var f model.FileMetadata
	if err := c.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}

	return &f, nil
}

// FileByKey 按存储键取文件元数据.
func (c *Catalog) FileByKey(ctx context.Context, storageKey string) (*model.FileMetadata, error) {
	var f model.FileMetadata
	if err := c.db.WithContext(ctx).First(&f, "storage_key = ?", storageKey).Error; err != nil {
		return nil, wrapNotFound(err)
	}

	return &f, nil
}

// DeleteFile 硬删元数据记录，返回是否确有删除.
func (c *Catalog) DeleteFile(ctx context.Context, id string) (bool, error) {
	tx := c.db.WithContext(ctx).Delete(&model.FileMetadata{}, "id = ?", id)
	return tx.RowsAffected > 0, tx.Error
}

// TouchAccess 记录一次访问：下载计数 +1 并刷新最后访问时间.
// 用原子 SQL 表达式而不是读-改-写，避免并发下载互相覆盖计数.
func (c *Catalog) TouchAccess(ctx context.Context, id string, at time.Time) error {
	return c.db.WithContext(ctx).Model(&model.FileMetadata{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_accessed_at": at,
		}).Error
}

// ListFilter 文件列表查询条件，零值字段不参与过滤.
type ListFilter struct {
	OwnerID        string
	OwnerKind      string
	OrganizationID string
	FileType       string
	// FileTypePrefix 按类型命名空间前缀过滤，如 "temp/".
	FileTypePrefix string
	Classification string
	AccessPattern  string
	UploadedBy     string
	// CreatedBefore 只取该时间点之前创建的记录.
	CreatedBefore *time.Time
	// ExpiredBefore 只取保留期在该时间点前到期的记录.
	ExpiredBefore *time.Time
	Anonymized    *bool
}

func (c *Catalog) applyFilter(ctx context.Context, f ListFilter) *gorm.DB {
	dbx := c.db.WithContext(ctx).Model(&model.FileMetadata{})

	if f.OwnerID != "" {
		dbx = dbx.Where("owner_id = ?", f.OwnerID)
	}

	if f.OwnerKind != "" {
		dbx = dbx.Where("owner_kind = ?", f.OwnerKind)
	}

	if f.OrganizationID != "" {
		dbx = dbx.Where("organization_id = ?", f.OrganizationID)
	}

	if f.FileType != "" {
		dbx = dbx.Where("file_type = ?", f.FileType)
	}

	if f.FileTypePrefix != "" {
		dbx = dbx.Where("file_type LIKE ?", f.FileTypePrefix+"%")
	}

	if f.Classification != "" {
		dbx = dbx.Where("classification = ?", f.Classification)
	}

	if f.AccessPattern != "" {
		dbx = dbx.Where("access_pattern = ?", f.AccessPattern)
	}

	if f.UploadedBy != "" {
		dbx = dbx.Where("uploaded_by = ?", f.UploadedBy)
	}

	if f.CreatedBefore != nil {
		dbx = dbx.Where("created_at < ?", *f.CreatedBefore)
	}

	if f.ExpiredBefore != nil {
		dbx = dbx.Where("expires_at IS NOT NULL AND expires_at < ?", *f.ExpiredBefore)
	}

	if f.Anonymized != nil {
		dbx = dbx.Where("is_anonymized = ?", *f.Anonymized)
	}

	return dbx
}

// ListPage 分页查询文件，按创建时间倒序.limit 上限 200.
// 多取一条再裁掉来判定是否还有下一页，总数单独统计.
func (c *Catalog) ListPage(ctx context.Context, f ListFilter, page, size int) ([]model.FileMetadata, int64, bool, error) {
	if page <= 0 {
		page = 1
	}

	if size <= 0 || size > 200 {
		size = 50
	}

	dbx := c.applyFilter(ctx, f)

	var total int64
	if err := dbx.Count(&total).Error; err != nil {
		return nil, 0, false, err
	}

	var rows []model.FileMetadata
	if err := dbx.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size + 1).
		Find(&rows).Error; err != nil {
		return nil, 0, false, err
	}

	hasMore := len(rows) > size
	if hasMore {
		rows = rows[:size]
	}

	return rows, total, hasMore, nil
}

// ForEach 按过滤条件分批遍历，回调返回错误即中止.
// 清理任务用它扫描大结果集而不把全表拉进内存.
func (c *Catalog) ForEach(ctx context.Context, f ListFilter, batchSize int, fn func(model.FileMetadata) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var rows []model.FileMetadata

	return c.applyFilter(ctx, f).Order("id").FindInBatches(&rows, batchSize, func(_ *gorm.DB, _ int) error {
		for i := range rows {
			if err := fn(rows[i]); err != nil {
				return err
			}
		}

		return nil
	}).Error
}

// CountFiles 统计满足条件的文件数.
func (c *Catalog) CountFiles(ctx context.Context, f ListFilter) (int64, error) {
	var total int64
	err := c.applyFilter(ctx, f).Count(&total).Error

	return total, err
}
