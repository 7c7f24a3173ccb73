package model

import "time"

// PerformanceMetric 单次存储操作的性能记录（上传/下载等）.
type PerformanceMetric struct {
	ID         uint   `gorm:"primaryKey"    json:"id"`
	Operation  string `gorm:"size:32;index" json:"operation"`
	StorageKey string `gorm:"size:1024"     json:"storage_key"`
	DurationMs int64  `json:"duration_ms"`
	Bytes      int64  `json:"bytes"`
	// ThroughputKBps 吞吐量 KB/s，duration 为 0 时记 0.
	ThroughputKBps float64   `json:"throughput_kbps"`
	CacheHit       bool      `json:"cache_hit"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (PerformanceMetric) TableName() string { return "performance_metrics" }
