package jobs

// 任务名称常量，便于统一管理与引用.
const (
	JobTempCleanup   = "cleanup.temp"
	JobRetention     = "cleanup.retention"
	JobOrphanCleanup = "cleanup.orphan"
	JobURLCacheSweep = "cache.url_sweep"
)

// Cron 表达式常量（集中管理）.
const (
	// CronTempCleanup 每小时 15 分清理超龄临时对象.
	CronTempCleanup = "15 * * * *"
	// CronRetention 每天 03:00 执行保留策略.
	CronRetention = "0 3 * * *"
	// CronOrphanCleanup 每周日 04:45 清理孤儿元数据.
	CronOrphanCleanup = "45 4 * * 0"
	// CronURLCacheSweep 每 5 分钟清扫一次过期的预签名 URL 缓存.
	CronURLCacheSweep = "*/5 * * * *"
)
