// Package cleanup 实现清理与合规引擎：临时对象清理、保留策略执行、
// 孤儿元数据清理、用户删除与 GDPR 删除，以及只读的合规报告生成.
// 每次调用都落一条 CleanupJob 记录，终态后不可变.
package cleanup

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid"

	"github.com/rshetty-99/marketvault/pkg/cache"
	"github.com/rshetty-99/marketvault/pkg/configs"
	ctxPkg "github.com/rshetty-99/marketvault/pkg/context"
	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/storage/mq"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/metrics"
	"github.com/rshetty-99/marketvault/pkg/queue"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

var (
	// ErrJobOverlap 同类型任务已在运行.同一类型同时只允许一个活动任务.
	ErrJobOverlap = errors.New("cleanup: job of this type already running")
	// ErrApprovalRequired GDPR 删除需要二次确认人.
	ErrApprovalRequired = errors.New("cleanup: gdpr deletion requires approved_by")
	// ErrUnknownJobType 未知任务类型.
	ErrUnknownJobType = errors.New("cleanup: unknown job type")
)

// Engine 清理任务执行器.
type Engine struct {
	backend   storage.Backend
	catalog   *catalog.Catalog
	urls      cache.URLCache
	mq        *mq.Client
	retention configs.RetentionConfig
	events    configs.EventsConfig
	now       func() time.Time

	// locks 每个任务类型一把锁，TryLock 失败即拒绝重叠运行.
	locks map[model.CleanupJobType]*sync.Mutex

	ulidMu sync.Mutex
}

// New 以显式依赖构建引擎.mqClient 允许为 nil.
func New(backend storage.Backend, cat *catalog.Catalog, urls cache.URLCache, mqClient *mq.Client, cfg *configs.AppConfig) *Engine {
	locks := map[model.CleanupJobType]*sync.Mutex{}
	for _, t := range []model.CleanupJobType{
		model.JobTempCleanup,
		model.JobRetentionPolicy,
		model.JobOrphanCleanup,
		model.JobUserDeletion,
		model.JobGDPRDeletion,
	} {
		locks[t] = &sync.Mutex{}
	}

	return &Engine{
		backend:   backend,
		catalog:   cat,
		urls:      urls,
		mq:        mqClient,
		retention: cfg.Retention,
		events:    cfg.Events,
		now:       time.Now,
		locks:     locks,
	}
}

// NewEngine 从请求上下文中的存储管理器构建引擎.
func NewEngine(c context.Context) *Engine {
	mgr := ctxPkg.GetManager(c)
	cfg := configs.GetConfig()

	if mgr == nil {
		return New(nil, nil, nil, nil, cfg)
	}

	var (
		cat  *catalog.Catalog
		urls cache.URLCache
	)

	if dbc := mgr.GetDBClient(); dbc != nil {
		cat = catalog.New(dbc.GetDB())
	}

	if kvc := mgr.GetKVClient(); kvc != nil {
		urls = cache.NewURLCache(kvc)
	}

	return New(mgr.GetBackend(), cat, urls, mgr.GetMQClient(), cfg)
}

// jobState 单次任务运行的累积状态.
type jobState struct {
	found       int
	deleted     int
	anonymized  int
	transferred int
	bytesFreed  int64
	errs        []string
	warnings    []string
}

func (st *jobState) errorf(format string, args ...any) {
	st.errs = append(st.errs, fmt.Sprintf(format, args...))
}

func (st *jobState) warnf(format string, args ...any) {
	st.warnings = append(st.warnings, fmt.Sprintf(format, args...))
}

// Run 执行一次清理任务.任务记录先以 pending 落库，随后推进状态机；
// 返回的是终态记录的视图.
func (e *Engine) Run(ctx context.Context, req types.CleanupRequest) (types.CleanupJobInfo, error) {
	jobType := model.CleanupJobType(req.JobType)

	lock, ok := e.locks[jobType]
	if !ok {
		return types.CleanupJobInfo{}, fmt.Errorf("%w: %s", ErrUnknownJobType, req.JobType)
	}

	if jobType == model.JobGDPRDeletion && req.ApprovedBy == "" {
		return types.CleanupJobInfo{}, ErrApprovalRequired
	}

	if !lock.TryLock() {
		return types.CleanupJobInfo{}, ErrJobOverlap
	}
	defer lock.Unlock()

	now := e.now().UTC()

	job := &model.CleanupJob{
		ID:          e.newJobID(now),
		JobType:     jobType,
		TargetID:    req.TargetID,
		TargetKind:  req.TargetKind,
		Status:      model.JobPending,
		RequestedBy: req.RequestedBy,
		ApprovedBy:  req.ApprovedBy,
		CreatedAt:   now,
	}

	if err := e.catalog.CreateJob(ctx, job); err != nil {
		return types.CleanupJobInfo{}, fmt.Errorf("create job record: %w", err)
	}

	started := e.now().UTC()
	job.Status = model.JobInProgress
	job.StartedAt = &started

	if err := e.catalog.UpdateJob(ctx, job); err != nil {
		return types.CleanupJobInfo{}, fmt.Errorf("start job: %w", err)
	}

	st := &jobState{}

	var scanErr error

	switch jobType {
	case model.JobTempCleanup:
		scanErr = e.runTempCleanup(ctx, st)
	case model.JobRetentionPolicy:
		scanErr = e.runRetention(ctx, st)
	case model.JobOrphanCleanup:
		scanErr = e.runOrphanCleanup(ctx, req, st)
	case model.JobUserDeletion:
		scanErr = e.runUserDeletion(ctx, req, st)
	case model.JobGDPRDeletion:
		scanErr = e.runGDPRDeletion(ctx, req, st)
	}

	e.finishJob(ctx, job, st, scanErr)

	return types.NewCleanupJobInfo(job), nil
}

// finishJob 收敛终态：扫描失败为 failed，单项错误为 partial，否则 completed.
func (e *Engine) finishJob(ctx context.Context, job *model.CleanupJob, st *jobState, scanErr error) {
	completed := e.now().UTC()

	job.FilesFound = st.found
	job.FilesDeleted = st.deleted
	job.FilesAnonymized = st.anonymized
	job.FilesTransferred = st.transferred
	job.BytesFreed = st.bytesFreed
	job.WarningsJSON = catalog.EncodeStrings(st.warnings)
	job.CompletedAt = &completed
	job.Progress = 100

	switch {
	case scanErr != nil:
		job.Status = model.JobFailed
		job.ErrorsJSON = catalog.EncodeStrings(append([]string{scanErr.Error()}, st.errs...))
	case len(st.errs) > 0:
		job.Status = model.JobPartial
		job.ErrorsJSON = catalog.EncodeStrings(st.errs)
	default:
		job.Status = model.JobCompleted
	}

	if err := e.catalog.UpdateJob(ctx, job); err != nil {
		nlog.Logger().Error().Err(err).Str("job", job.ID).Msg("persist job terminal state failed")
	}

	if st.deleted > 0 {
		metrics.CleanupDeletions.WithLabelValues(string(job.JobType)).Add(float64(st.deleted))
	}

	nlog.Logger().Info().
		Str("job", job.ID).
		Str("type", string(job.JobType)).
		Str("status", string(job.Status)).
		Int("found", st.found).
		Int("deleted", st.deleted).
		Int("anonymized", st.anonymized).
		Int64("bytes_freed", st.bytesFreed).
		Msg("cleanup job finished")

	e.publishFinished(ctx, job)
}

func (e *Engine) publishFinished(ctx context.Context, job *model.CleanupJob) {
	if e.mq == nil || !e.events.Enabled || !e.events.Admin.CleanupFinished {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicCleanupFinished, queue.CleanupFinishedPayload{
		JobID:           job.ID,
		JobType:         string(job.JobType),
		Status:          string(job.Status),
		FilesFound:      job.FilesFound,
		FilesDeleted:    job.FilesDeleted,
		FilesAnonymized: job.FilesAnonymized,
		BytesFreed:      job.BytesFreed,
	}, queue.WithProducer("marketvault"))
	if err != nil {
		return
	}

	if err := e.mq.Publish(ctx, queue.TopicCleanupFinished, msg); err != nil {
		nlog.Logger().Warn().Err(err).Msg("publish cleanup finished failed")
	}
}

// newJobID 生成按创建时间可排序的 ULID.熵源读取需要串行化.
func (e *Engine) newJobID(now time.Time) string {
	e.ulidMu.Lock()
	defer e.ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// deleteFile 删除单个文件（后端对象 + 目录记录 + 汇总回退 + 缓存失效）.
// 后端里本就不存在的对象按已删除继续.
func (e *Engine) deleteFile(ctx context.Context, f *model.FileMetadata, st *jobState, reason string) {
	if err := e.backend.Remove(ctx, f.StorageKey); err != nil {
		st.errorf("remove object %s: %v", f.StorageKey, err)
		return
	}

	removed, err := e.catalog.DeleteFile(ctx, f.ID)
	if err != nil {
		st.errorf("delete metadata %s: %v", f.ID, err)
		return
	}

	if !removed {
		return
	}

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
	st.bytesFreed += f.Size

	e.publishDeleted(ctx, f, reason)
}

func (e *Engine) publishDeleted(ctx context.Context, f *model.FileMetadata, reason string) {
	if e.mq == nil || !e.events.Enabled || !e.events.Object.Deleted {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicObjectDeleted, queue.ObjectDeletedPayload{
		Object:  queue.ObjectRef{StorageKey: f.StorageKey, Size: f.Size},
		FileID:  f.ID,
		OwnerID: f.OwnerID,
		Reason:  reason,
	}, queue.WithProducer("marketvault"))
	if err != nil {
		return
	}

	_ = e.mq.Publish(ctx, queue.TopicObjectDeleted, msg)
}

// JobInfo 查询单条任务记录.
func (e *Engine) JobInfo(ctx context.Context, id string) (types.CleanupJobInfo, error) {
	job, err := e.catalog.JobByID(ctx, id)
	if err != nil {
		return types.CleanupJobInfo{}, err
	}

	return types.NewCleanupJobInfo(job), nil
}

// ListJobs 分页列任务记录.
func (e *Engine) ListJobs(ctx context.Context, jobType string, page, size int) ([]types.CleanupJobInfo, int64, error) {
	rows, total, err := e.catalog.ListJobs(ctx, model.CleanupJobType(jobType), page, size)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.CleanupJobInfo, 0, len(rows))
	for i := range rows {
		out = append(out, types.NewCleanupJobInfo(&rows[i]))
	}

	return out, total, nil
}
