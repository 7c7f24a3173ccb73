package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
)

// newTestCatalog 基于内存 SQLite 构建目录实例.
func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 共享内存库在多个测试间串表，用独立表前缀不现实，直接清掉
	for _, tbl := range []string{"file_metadata", "storage_summaries", "cleanup_jobs", "performance_metrics"} {
		db.Exec("DROP TABLE IF EXISTS " + tbl)
	}

	c := catalog.New(db)
	if err := c.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return c
}

func sampleFile(id, owner, fileType string, size int64) *model.FileMetadata {
	return &model.FileMetadata{
		ID:             id,
		FileName:       "sample.bin",
		StorageKey:     "files/2026-03/er/individual/" + owner + "/" + fileType + "/" + id + ".bin",
		FileType:       fileType,
		ContentType:    "application/octet-stream",
		Size:           size,
		UploadedBy:     owner,
		OwnerID:        owner,
		OwnerKind:      "individual",
		AccessPattern:  "warm",
		Classification: "personal",
		RetentionBasis: "consent",
		CreatedAt:      time.Now().UTC(),
	}
}

// TestFileRoundTrip 文件元数据的保存与按键/按 ID 读取.
func TestFileRoundTrip(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	f := sampleFile("f-001", "user-1", "personal/document", 1024)
	if err := c.SaveFile(ctx, f); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := c.FileByID(ctx, "f-001")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}

	if got.StorageKey != f.StorageKey {
		t.Fatalf("storage key = %q, want %q", got.StorageKey, f.StorageKey)
	}

	byKey, err := c.FileByKey(ctx, f.StorageKey)
	if err != nil {
		t.Fatalf("by key: %v", err)
	}

	if byKey.ID != "f-001" {
		t.Fatalf("id = %q, want f-001", byKey.ID)
	}

	if _, err := c.FileByID(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("missing file error = %v, want ErrNotFound", err)
	}
}

// TestDeleteFile 删除存在与不存在的记录.
func TestDeleteFile(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if err := c.SaveFile(ctx, sampleFile("f-010", "user-1", "temp/upload", 10)); err != nil {
		t.Fatalf("save: %v", err)
	}

	removed, err := c.DeleteFile(ctx, "f-010")
	if err != nil || !removed {
		t.Fatalf("delete = (%v, %v), want (true, nil)", removed, err)
	}

	removed, err = c.DeleteFile(ctx, "f-010")
	if err != nil || removed {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", removed, err)
	}
}

// TestTouchAccess 访问计数递增与最后访问时间刷新.
func TestTouchAccess(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if err := c.SaveFile(ctx, sampleFile("f-020", "user-1", "personal/avatar", 10)); err != nil {
		t.Fatalf("save: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		if err := c.TouchAccess(ctx, "f-020", at); err != nil {
			t.Fatalf("touch: %v", err)
		}
	}

	got, err := c.FileByID(ctx, "f-020")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}

	if got.DownloadCount != 3 {
		t.Fatalf("download count = %d, want 3", got.DownloadCount)
	}

	if got.LastAccessedAt == nil {
		t.Fatal("last accessed at not set")
	}
}

// TestListPageFilter 过滤与分页.
func TestListPageFilter(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f := sampleFile(fmt.Sprintf("f-1%02d", i), "user-1", "personal/document", 100)
		if err := c.SaveFile(ctx, f); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := c.SaveFile(ctx, sampleFile("f-200", "user-2", "business/contract", 100)); err != nil {
		t.Fatalf("save: %v", err)
	}

	rows, total, hasMore, err := c.ListPage(ctx, catalog.ListFilter{OwnerID: "user-1"}, 1, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if total != 5 || len(rows) != 3 {
		t.Fatalf("total=%d len=%d, want 5/3", total, len(rows))
	}

	if !hasMore {
		t.Fatal("first page of 5 rows with size 3 must report more")
	}

	rows, _, hasMore, err = c.ListPage(ctx, catalog.ListFilter{OwnerID: "user-1"}, 2, 3)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}

	if len(rows) != 2 || hasMore {
		t.Fatalf("last page len=%d hasMore=%v, want 2/false", len(rows), hasMore)
	}

	rows, total, hasMore, err = c.ListPage(ctx, catalog.ListFilter{FileType: "business/contract"}, 1, 10)
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}

	if total != 1 || rows[0].OwnerID != "user-2" {
		t.Fatalf("filter by type got total=%d", total)
	}

	if hasMore {
		t.Fatal("single match must not report more")
	}

	if err := c.SaveFile(ctx, sampleFile("f-300", "user-1", "temp/upload", 10)); err != nil {
		t.Fatalf("save temp: %v", err)
	}

	n, err := c.CountFiles(ctx, catalog.ListFilter{FileTypePrefix: "temp/"})
	if err != nil {
		t.Fatalf("count by prefix: %v", err)
	}

	if n != 1 {
		t.Fatalf("prefix count = %d, want 1", n)
	}
}

// TestSummaryDeltaLifecycle 首建、增量与减量（不为负）.
func TestSummaryDeltaLifecycle(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	s, err := c.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: "user-1", OwnerKind: "individual",
		FileType: "personal/document", Files: 1, Bytes: 500, QuotaLimit: 1000,
	})
	if err != nil {
		t.Fatalf("first delta: %v", err)
	}

	if s.FileCount != 1 || s.TotalSize != 500 || s.QuotaLimit != 1000 {
		t.Fatalf("summary after create = %+v", s)
	}

	s, err = c.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: "user-1", OwnerKind: "individual",
		FileType: "personal/document", Files: 1, Bytes: 300,
	})
	if err != nil {
		t.Fatalf("second delta: %v", err)
	}

	if s.FileCount != 2 || s.TotalSize != 800 {
		t.Fatalf("summary after add = %+v", s)
	}

	byType, err := catalog.ByType(s)
	if err != nil {
		t.Fatalf("by type: %v", err)
	}

	if u := byType["personal/document"]; u.Count != 2 || u.Size != 800 {
		t.Fatalf("type usage = %+v", u)
	}

	// 减过头也不允许出现负计数
	s, err = c.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: "user-1", OwnerKind: "individual",
		FileType: "personal/document", Files: -5, Bytes: -10000,
	})
	if err != nil {
		t.Fatalf("negative delta: %v", err)
	}

	if s.FileCount != 0 || s.TotalSize != 0 {
		t.Fatalf("summary after over-delete = %+v", s)
	}
}

// TestSummaryDeltaConcurrent 并发增量不得丢写.
func TestSummaryDeltaConcurrent(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	const workers = 8

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := c.ApplySummaryDelta(ctx, catalog.SummaryDelta{
				OwnerID: "org-1", OwnerKind: "organization",
				FileType: "business/contract", Files: 1, Bytes: 100, QuotaLimit: 1 << 30,
			})
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var failed int

	for err := range errs {
		if err != nil {
			failed++
		}
	}

	s, err := c.SummaryFor(ctx, "org-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	// CAS 重试耗尽的调用可以失败，但成功的调用必须恰好计入一次
	want := int64(workers - failed)
	if s.FileCount != want || s.TotalSize != want*100 {
		t.Fatalf("file count = %d size = %d, want %d/%d", s.FileCount, s.TotalSize, want, want*100)
	}
}

// TestRebuildSummary 从文件表重扫重建汇总.
func TestRebuildSummary(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.SaveFile(ctx, sampleFile(fmt.Sprintf("f-3%02d", i), "user-9", "personal/document", 200)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := c.SaveFile(ctx, sampleFile("f-310", "user-9", "personal/avatar", 50)); err != nil {
		t.Fatalf("save: %v", err)
	}

	s, err := c.RebuildSummary(ctx, "user-9", "individual", 5000)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if s.FileCount != 4 || s.TotalSize != 650 {
		t.Fatalf("rebuilt summary = %+v", s)
	}

	byType, _ := catalog.ByType(s)
	if u := byType["personal/avatar"]; u.Count != 1 || u.Size != 50 {
		t.Fatalf("avatar usage = %+v", u)
	}
}

// TestJobLifecycle 任务创建、更新与终态不可变.
func TestJobLifecycle(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	j := &model.CleanupJob{
		ID:        "01JXAMPLE0000000000000TEST",
		JobType:   model.JobTempCleanup,
		Status:    model.JobPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.CreateJob(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}

	j.Status = model.JobInProgress
	if err := c.UpdateJob(ctx, j); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}

	j.Status = model.JobCompleted
	j.FilesFound = 10
	j.FilesDeleted = 10

	if err := c.UpdateJob(ctx, j); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	j.FilesDeleted = 99
	if err := c.UpdateJob(ctx, j); err == nil {
		t.Fatal("update of terminal job must fail")
	}

	got, err := c.JobByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}

	if got.Status != model.JobCompleted || got.FilesDeleted != 10 {
		t.Fatalf("job = %+v", got)
	}
}

// TestRecordMetric 性能记录与吞吐量推导.
func TestRecordMetric(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if err := c.RecordMetric(ctx, "upload", "files/x", 500*time.Millisecond, 1024*1024, false); err != nil {
		t.Fatalf("record: %v", err)
	}
}
