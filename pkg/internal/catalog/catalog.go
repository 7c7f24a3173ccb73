// Package catalog 是元数据目录：文件元数据、配额汇总、清理任务与性能
// 记录的唯一持久化入口.对象存储内容之外的所有事实都经由这里读写.
package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// ErrNotFound 目录中不存在请求的记录.
var ErrNotFound = errors.New("catalog: record not found")

// Catalog 基于 GORM 的目录实现.
type Catalog struct {
	db *gorm.DB
}

// New 创建目录实例.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// AutoMigrate 建表/补列，启动时调用一次.
func (c *Catalog) AutoMigrate() error {
	return c.db.AutoMigrate(
		&model.FileMetadata{},
		&model.StorageSummary{},
		&model.CleanupJob{},
		&model.PerformanceMetric{},
	)
}

// wrapNotFound 将 gorm 的未找到错误映射为目录哨兵错误.
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	return err
}
