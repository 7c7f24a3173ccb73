package cleanup_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rshetty-99/marketvault/pkg/cache"
	"github.com/rshetty-99/marketvault/pkg/configs"
	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/cleanup"
	"github.com/rshetty-99/marketvault/pkg/internal/model"
	"github.com/rshetty-99/marketvault/pkg/internal/policy"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/storage/kv"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
)

// fakeBackend 内存对象后端.
type fakeBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	// statErr 非空时 Stat 对所有键返回该错误（模拟后端不可达）.
	statErr error
	// removeEntered/removeGate 配置后 Remove 先通知再阻塞，
	// 用来把一次任务卡在运行中.
	removeEntered chan struct{}
	removeGate    chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string][]byte{}}
}

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (storage.PutInfo, error) {
	data, _ := io.ReadAll(r)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data

	return storage.PutInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBackend) Stat(_ context.Context, key string) (storage.ObjectStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.statErr != nil {
		return storage.ObjectStat{}, f.statErr
	}

	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectStat{}, storage.ErrObjectMissing
	}

	return storage.ObjectStat{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBackend) Remove(_ context.Context, key string) error {
	if f.removeEntered != nil {
		select {
		case f.removeEntered <- struct{}{}:
		default:
		}
		<-f.removeGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)

	return nil
}

func (f *fakeBackend) PresignGet(_ context.Context, key string, expiry time.Duration, _ url.Values) (string, error) {
	return "https://backend.test/" + key, nil
}

func (f *fakeBackend) List(_ context.Context, prefix string, fn func(storage.ObjectStat) error) error {
	f.mu.Lock()
	keys := make([]string, 0, len(f.objects))

	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()

	for _, k := range keys {
		if err := fn(storage.ObjectStat{Key: k, Size: int64(len(f.objects[k]))}); err != nil {
			return err
		}
	}

	return nil
}

func testConfig() *configs.AppConfig {
	cfg := &configs.AppConfig{}
	cfg.Retention.TempMaxAgeHours = 24
	cfg.Retention.PeriodsDays = map[string]int{
		"personal/document":  30,
		"business/contract":  30,
		"business/portfolio": 30,
	}

	return cfg
}

func newTestEngine(t *testing.T, cfg *configs.AppConfig) (*cleanup.Engine, *fakeBackend, *catalog.Catalog) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	for _, tbl := range []string{"file_metadata", "storage_summaries", "cleanup_jobs", "performance_metrics"} {
		db.Exec("DROP TABLE IF EXISTS " + tbl)
	}

	cat := catalog.New(db)
	if err := cat.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	backend := newFakeBackend()

	return cleanup.New(backend, cat, cache.NewURLCache(store), nil, cfg), backend, cat
}

// seedFile 造一条元数据记录，并按需在后端放置对象.
func seedFile(t *testing.T, cat *catalog.Catalog, backend *fakeBackend, id, owner, fileType, class, basis string, age time.Duration, withObject bool) *model.FileMetadata {
	t.Helper()

	created := time.Now().UTC().Add(-age)
	f := &model.FileMetadata{
		ID:             id,
		FileName:       id + ".bin",
		StorageKey:     fmt.Sprintf("files/%s/98/individual/%s/%s/%s.bin", created.Format("2006-01"), owner, strings.ReplaceAll(fileType, "/", "-"), id),
		FileType:       fileType,
		ContentType:    "application/octet-stream",
		Size:           100,
		UploadedBy:     owner,
		OwnerID:        owner,
		OwnerKind:      "individual",
		Classification: class,
		RetentionBasis: basis,
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	if err := cat.SaveFile(context.Background(), f); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}

	if withObject {
		if _, err := backend.Put(context.Background(), f.StorageKey, strings.NewReader("x"), 1, ""); err != nil {
			t.Fatalf("seed object: %v", err)
		}
	}

	if _, err := cat.ApplySummaryDelta(context.Background(), catalog.SummaryDelta{
		OwnerID: owner, OwnerKind: "individual", FileType: fileType, Files: 1, Bytes: f.Size,
	}); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	return f
}

// TestActionFor 处置动作是 (classification, basis) 的纯函数.
func TestActionFor(t *testing.T) {
	cases := []struct {
		class policy.Classification
		basis policy.RetentionBasis
		want  cleanup.RetentionAction
	}{
		{policy.ClassPersonal, policy.BasisConsent, cleanup.ActionDelete},
		{policy.ClassBusiness, policy.BasisContract, cleanup.ActionAnonymize},
		{policy.ClassPersonal, policy.BasisLegalObligation, cleanup.ActionRetain},
		{policy.ClassBusiness, policy.BasisLegalObligation, cleanup.ActionRetain},
		{policy.ClassShared, policy.BasisConsent, cleanup.ActionRetain},
		{policy.ClassSystem, policy.BasisConsent, cleanup.ActionRetain},
		{"", policy.BasisConsent, cleanup.ActionWarn},
		{policy.ClassPersonal, "", cleanup.ActionWarn},
	}

	for _, c := range cases {
		if got := cleanup.ActionFor(c.class, c.basis); got != c.want {
			t.Errorf("ActionFor(%q, %q) = %v, want %v", c.class, c.basis, got, c.want)
		}
	}
}

// TestTempCleanup 只删超龄的临时对象，其余不动.
func TestTempCleanup(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	old := seedFile(t, cat, backend, "tmp-old", "user-1", "temp/upload", "business", "consent", 48*time.Hour, true)
	fresh := seedFile(t, cat, backend, "tmp-new", "user-1", "temp/upload", "business", "consent", time.Hour, true)
	doc := seedFile(t, cat, backend, "doc-old", "user-1", "personal/document", "personal", "consent", 48*time.Hour, true)

	info, err := eng.Run(ctx, types.CleanupRequest{JobType: "temp_cleanup"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if info.Status != "completed" || info.FilesDeleted != 1 || info.BytesFreed != 100 {
		t.Fatalf("job = %+v", info)
	}

	if _, err := cat.FileByID(ctx, old.ID); err == nil {
		t.Fatal("expired temp record still present")
	}

	if _, err := cat.FileByID(ctx, fresh.ID); err != nil {
		t.Fatal("fresh temp record removed")
	}

	if _, err := cat.FileByID(ctx, doc.ID); err != nil {
		t.Fatal("non-temp record removed")
	}
}

// TestRetentionEnforcement 个人删除、业务匿名化、法定义务豁免、缺字段告警.
func TestRetentionEnforcement(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	expired := 60 * 24 * time.Hour

	personal := seedFile(t, cat, backend, "p-1", "user-r", "personal/document", "personal", "consent", expired, true)
	business := seedFile(t, cat, backend, "b-1", "user-r", "business/contract", "business", "contract", expired, true)
	legal := seedFile(t, cat, backend, "l-1", "user-r", "business/contract", "business", "legal_obligation", expired, true)
	noBasis := seedFile(t, cat, backend, "n-1", "user-r", "business/portfolio", "business", "", expired, true)
	young := seedFile(t, cat, backend, "y-1", "user-r", "personal/document", "personal", "consent", time.Hour, true)

	info, err := eng.Run(ctx, types.CleanupRequest{JobType: "retention_policy"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if info.Status != "completed" {
		t.Fatalf("status = %s, errors = %s", info.Status, info.ErrorsJSON)
	}

	if info.FilesDeleted != 1 || info.FilesAnonymized != 1 {
		t.Fatalf("job = %+v", info)
	}

	if info.WarningsJSON == "" {
		t.Fatal("missing basis must produce a warning")
	}

	if _, err := cat.FileByID(ctx, personal.ID); err == nil {
		t.Fatal("expired personal record still present")
	}

	got, err := cat.FileByID(ctx, business.ID)
	if err != nil {
		t.Fatalf("business record: %v", err)
	}

	if !got.IsAnonymized || got.RetentionBasis != "legitimate_interest" {
		t.Fatalf("business record = %+v", got)
	}

	if !strings.HasPrefix(got.UploadedBy, "anon-") {
		t.Fatalf("uploaded_by = %q, want anon placeholder", got.UploadedBy)
	}

	for _, keep := range []string{legal.ID, noBasis.ID, young.ID} {
		if _, err := cat.FileByID(ctx, keep); err != nil {
			t.Fatalf("record %s must be retained", keep)
		}
	}

	// 幂等：重跑不再产生新的匿名化或删除
	info2, err := eng.Run(ctx, types.CleanupRequest{JobType: "retention_policy"})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}

	if info2.FilesDeleted != 0 || info2.FilesAnonymized != 0 {
		t.Fatalf("rerun must be a no-op, got %+v", info2)
	}
}

// TestOrphanCleanup 后端确认缺失的记录被清除且不复活；
// 后端不可达不算孤儿.
func TestOrphanCleanup(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	orphan := seedFile(t, cat, backend, "o-1", "user-o", "personal/document", "personal", "consent", time.Hour, false)
	alive := seedFile(t, cat, backend, "a-1", "user-o", "personal/document", "personal", "consent", time.Hour, true)

	info, err := eng.Run(ctx, types.CleanupRequest{JobType: "orphan_cleanup"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if info.Status != "completed" || info.FilesDeleted != 1 {
		t.Fatalf("job = %+v", info)
	}

	if _, err := cat.FileByID(ctx, orphan.ID); err == nil {
		t.Fatal("orphan record still present")
	}

	if _, err := cat.FileByID(ctx, alive.ID); err != nil {
		t.Fatal("live record removed")
	}

	// 再跑一次：孤儿不会重新出现
	info2, err := eng.Run(ctx, types.CleanupRequest{JobType: "orphan_cleanup"})
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}

	if info2.FilesDeleted != 0 {
		t.Fatalf("rerun deleted %d, want 0", info2.FilesDeleted)
	}

	// 后端不可达：记录必须保留，任务以 partial 结束
	backend.statErr = fmt.Errorf("backend unreachable")

	info3, err := eng.Run(ctx, types.CleanupRequest{JobType: "orphan_cleanup"})
	if err != nil {
		t.Fatalf("unreachable run: %v", err)
	}

	if info3.Status != "partial" || info3.FilesDeleted != 0 {
		t.Fatalf("unreachable job = %+v", info3)
	}

	if _, err := cat.FileByID(ctx, alive.ID); err != nil {
		t.Fatal("record deleted while backend unreachable")
	}
}

// TestGDPRDeletion 被遗忘权：个人删、业务匿名化、法定义务保留并告警；
// 且必须有二次确认人.
func TestGDPRDeletion(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	seedFile(t, cat, backend, "g-p", "user-g", "personal/document", "personal", "consent", time.Hour, true)
	seedFile(t, cat, backend, "g-b", "user-g", "business/contract", "business", "contract", time.Hour, true)
	seedFile(t, cat, backend, "g-l", "user-g", "business/contract", "business", "legal_obligation", time.Hour, true)

	if _, err := eng.Run(ctx, types.CleanupRequest{JobType: "gdpr_deletion", TargetID: "user-g"}); err != cleanup.ErrApprovalRequired {
		t.Fatalf("error = %v, want ErrApprovalRequired", err)
	}

	info, err := eng.Run(ctx, types.CleanupRequest{
		JobType: "gdpr_deletion", TargetID: "user-g",
		RequestedBy: "user-g", ApprovedBy: "dpo-1",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if info.FilesDeleted != 1 || info.FilesAnonymized != 1 || info.WarningsJSON == "" {
		t.Fatalf("job = %+v", info)
	}
}

// TestUserDeletionTransfers 注销时业务文件移交组织，配额随之搬移.
func TestUserDeletionTransfers(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	f := seedFile(t, cat, backend, "u-b", "user-u", "business/contract", "business", "contract", time.Hour, true)
	f.OrganizationID = "org-7"

	if err := cat.UpdateFile(ctx, f); err != nil {
		t.Fatalf("set org: %v", err)
	}

	seedFile(t, cat, backend, "u-p", "user-u", "personal/document", "personal", "consent", time.Hour, true)

	info, err := eng.Run(ctx, types.CleanupRequest{JobType: "user_deletion", TargetID: "user-u"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if info.FilesTransferred != 1 || info.FilesDeleted != 1 {
		t.Fatalf("job = %+v", info)
	}

	got, err := cat.FileByID(ctx, "u-b")
	if err != nil {
		t.Fatalf("transferred record: %v", err)
	}

	if got.OwnerID != "org-7" || got.OwnerKind != "organization" {
		t.Fatalf("transferred record = %+v", got)
	}

	orgSum, err := cat.SummaryFor(ctx, "org-7")
	if err != nil {
		t.Fatalf("org summary: %v", err)
	}

	if orgSum.FileCount != 1 || orgSum.TotalSize != 100 {
		t.Fatalf("org summary = %+v", orgSum)
	}
}

// TestComplianceReport 三条规则、只读、密度建议；
// 法定义务豁免的过期记录仍被标为 critical.
func TestComplianceReport(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	// 过期的法定义务记录：保留任务跳过，报告必须标 critical
	legal := seedFile(t, cat, backend, "c-l", "user-c", "business/contract", "business", "legal_obligation", time.Hour, true)
	past := time.Now().UTC().Add(-24 * time.Hour)
	legal.ExpiresAt = &past

	if err := cat.UpdateFile(ctx, legal); err != nil {
		t.Fatalf("set expiry: %v", err)
	}

	seedFile(t, cat, backend, "c-nc", "user-c", "business/portfolio", "", "contract", time.Hour, true)
	seedFile(t, cat, backend, "c-nb", "user-c", "personal/document", "personal", "", time.Hour, true)

	report, err := eng.ComplianceReport(ctx, "user-c", "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	if report.FilesScanned != 3 || len(report.Violations) != 3 {
		t.Fatalf("report = %+v", report)
	}

	if report.BySeverity["critical"] != 1 || report.BySeverity["high"] != 1 || report.BySeverity["medium"] != 1 {
		t.Fatalf("by severity = %+v", report.BySeverity)
	}

	if len(report.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}

	// 只读：保留任务才处置，报告绝不动记录
	for _, id := range []string{"c-l", "c-nc", "c-nb"} {
		if _, err := cat.FileByID(ctx, id); err != nil {
			t.Fatalf("record %s mutated by report", id)
		}
	}

	// 同一条法定义务记录：保留任务必须跳过
	info, err := eng.Run(ctx, types.CleanupRequest{JobType: "retention_policy"})
	if err != nil {
		t.Fatalf("retention run: %v", err)
	}

	if info.FilesDeleted != 0 {
		t.Fatalf("legal obligation record must survive retention, job = %+v", info)
	}

	if _, err := cat.FileByID(ctx, "c-l"); err != nil {
		t.Fatal("legal obligation record deleted")
	}
}

// TestJobOverlapRejected 同类型任务同时只允许一个运行，其他类型不受影响.
func TestJobOverlapRejected(t *testing.T) {
	eng, backend, cat := newTestEngine(t, testConfig())
	ctx := context.Background()

	seedFile(t, cat, backend, "ol-tmp", "user-ol", "temp/upload", "business", "consent", 48*time.Hour, true)

	backend.removeEntered = make(chan struct{}, 1)
	backend.removeGate = make(chan struct{})

	done := make(chan error, 1)

	go func() {
		_, err := eng.Run(ctx, types.CleanupRequest{JobType: "temp_cleanup", RequestedBy: "tester"})
		done <- err
	}()

	select {
	case <-backend.removeEntered:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never reached the backend")
	}

	if _, err := eng.Run(ctx, types.CleanupRequest{JobType: "temp_cleanup", RequestedBy: "tester"}); !errors.Is(err, cleanup.ErrJobOverlap) {
		t.Fatalf("overlapping run err = %v, want ErrJobOverlap", err)
	}

	// 锁按任务类型隔离，保留策略可以照常运行
	if _, err := eng.Run(ctx, types.CleanupRequest{JobType: "retention_policy", RequestedBy: "tester"}); err != nil {
		t.Fatalf("other job type blocked: %v", err)
	}

	close(backend.removeGate)

	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}

	// 释放后同类型可再次触发
	if _, err := eng.Run(ctx, types.CleanupRequest{JobType: "temp_cleanup", RequestedBy: "tester"}); err != nil {
		t.Fatalf("rerun after release: %v", err)
	}
}
