package model

import "time"

// StorageSummary 每个所有者一条的配额聚合计数器.
// 只能通过目录层的 CAS 更新（读-改-写 + 版本校验），禁止盲写；
// 它是 FileMetadata 的派生聚合，任何时刻都可以通过重扫重建.
type StorageSummary struct {
	OwnerID   string `gorm:"primaryKey;size:255" json:"owner_id"`
	OwnerKind string `gorm:"size:32"             json:"owner_kind"`
	FileCount int64  `json:"file_count"`
	TotalSize int64  `json:"total_size"`
	// ByTypeJSON 按文件类型的 {count,size} 细分，JSON 存储.
	ByTypeJSON string `gorm:"type:text" json:"by_type_json"`
	// QuotaLimit 字节上限，来自配额配置表（所有者类型 × 套餐档位）.
	QuotaLimit int64 `json:"quota_limit"`
	// LockVersion 乐观锁版本号，并发增量更新靠它避免丢失写.
	LockVersion int64     `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (StorageSummary) TableName() string { return "storage_summaries" }

// TypeUsage 单个文件类型的聚合用量.
type TypeUsage struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}
