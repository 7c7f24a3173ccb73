// Package jobs 负责注册与实现业务定时任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"

	ctxPkg "github.com/rshetty-99/marketvault/pkg/context"
	"github.com/rshetty-99/marketvault/pkg/internal/cleanup"
	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
	"github.com/rshetty-99/marketvault/pkg/scheduler"
)

// RegisterCronJobs 配置业务定时任务：
//   - 每小时 15 分清理超龄的临时上传
//   - 每天 03:00 执行按类型的保留策略
//   - 每周日 04:45 清理孤儿元数据
//   - 每 5 分钟清扫过期的预签名 URL 缓存
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	_ = sched.AddCron(JobTempCleanup, CronTempCleanup, func(ctx context.Context) {
		runCleanupJob(ctx, "temp_cleanup")
	}, baseCtx)

	_ = sched.AddCron(JobRetention, CronRetention, func(ctx context.Context) {
		runCleanupJob(ctx, "retention_policy")
	}, baseCtx)

	_ = sched.AddCron(JobOrphanCleanup, CronOrphanCleanup, func(ctx context.Context) {
		runCleanupJob(ctx, "orphan_cleanup")
	}, baseCtx)

	_ = sched.AddCron(JobURLCacheSweep, CronURLCacheSweep, runURLCacheSweep, baseCtx)

	return nil
}

// runCleanupJob 执行一次定时触发的清理任务.
// 重叠运行（上一轮还没跑完）按 debug 记录后跳过，等下一轮.
func runCleanupJob(ctx context.Context, jobType string) {
	l := log.Logger().With().Str("job", "cleanup."+jobType).Logger()

	eng := cleanup.NewEngine(ctx)

	info, err := eng.Run(ctx, types.CleanupRequest{
		JobType:     jobType,
		RequestedBy: "scheduler",
	})
	if err != nil {
		if err == cleanup.ErrJobOverlap {
			l.Debug().Msg("previous run still active, skipped")
			return
		}

		l.Error().Err(err).Msg("cleanup job failed")

		return
	}

	l.Info().
		Str("id", info.ID).
		Str("status", info.Status).
		Int("found", info.FilesFound).
		Int("deleted", info.FilesDeleted).
		Int64("bytes_freed", info.BytesFreed).
		Msg("scheduled cleanup finished")
}

// runURLCacheSweep 清扫过期的预签名 URL 缓存项.
func runURLCacheSweep(ctx context.Context) {
	l := log.Logger().With().Str("job", JobURLCacheSweep).Logger()

	svc := service.NewStorageService(ctx)

	if n := svc.SweepURLCache(ctx); n > 0 {
		l.Info().Int("removed", n).Msg("swept expired url cache entries")
	}
}
