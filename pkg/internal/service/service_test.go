package service_test

import (
	"bytes"
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
	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/storage/kv"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
)

// fakeBackend 内存对象后端，记录写入与签名次数.
type fakeBackend struct {
	mu       sync.Mutex
	objects  map[string][]byte
	presigns int
	// failKeys 写入这些键时返回错误，模拟单项失败.
	failKeys map[string]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{objects: map[string][]byte{}, failKeys: map[string]bool{}}
}

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (storage.PutInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.PutInfo{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failKeys[key] {
		return storage.PutInfo{}, fmt.Errorf("backend write failed for %s", key)
	}

	f.objects[key] = data

	return storage.PutInfo{Key: key, ETag: fmt.Sprintf("etag-%d", len(data)), Size: int64(len(data))}, nil
}

func (f *fakeBackend) Stat(_ context.Context, key string) (storage.ObjectStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return storage.ObjectStat{}, storage.ErrObjectMissing
	}

	return storage.ObjectStat{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeBackend) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, key)

	return nil
}

func (f *fakeBackend) PresignGet(_ context.Context, key string, expiry time.Duration, _ url.Values) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.presigns++

	return fmt.Sprintf("https://backend.test/%s?sig=%d&exp=%d", key, f.presigns, int(expiry.Seconds())), nil
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
		if err := fn(storage.ObjectStat{Key: k}); err != nil {
			return err
		}
	}

	return nil
}

func testConfig() *configs.AppConfig {
	cfg := &configs.AppConfig{}
	cfg.Quota.DefaultLimit = 1 << 20
	cfg.Quota.WarnRatio = 0.9
	cfg.Cache.URLTTLSeconds = 3600
	cfg.S3.PresignExpirySeconds = 4 * 3600

	return cfg
}

func newTestService(t *testing.T, cfg *configs.AppConfig) (*service.StorageService, *fakeBackend, *catalog.Catalog) {
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

	return service.New(backend, cat, cache.NewURLCache(store), nil, cfg), backend, cat
}

func uploadReq(owner, fileType, name string, size int64) types.UploadRequest {
	return types.UploadRequest{
		OwnerID:    owner,
		OwnerKind:  "individual",
		FileType:   fileType,
		FileName:   name,
		Size:       size,
		UploadedBy: owner,
	}
}

// TestUploadPersistsMetadata 上传后元数据入库、对象写入后端、汇总更新.
func TestUploadPersistsMetadata(t *testing.T) {
	svc, backend, cat := newTestService(t, testConfig())
	ctx := context.Background()

	content := []byte("hello vault")

	res, err := svc.Upload(ctx, uploadReq("user-1", "personal/document", "notes.txt", int64(len(content))), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if res.ID == "" || res.StorageKey == "" || res.DownloadURL == "" {
		t.Fatalf("incomplete result: %+v", res)
	}

	if res.Classification != "personal" || res.AccessPattern != "warm" {
		t.Fatalf("placement = %s/%s", res.Classification, res.AccessPattern)
	}

	if _, ok := backend.objects[res.StorageKey]; !ok {
		t.Fatal("object not written to backend")
	}

	meta, err := cat.FileByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}

	if meta.StorageKey != res.StorageKey || meta.RetentionBasis != "consent" {
		t.Fatalf("metadata = %+v", meta)
	}

	sum, err := cat.SummaryFor(ctx, "user-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if sum.FileCount != 1 || sum.TotalSize != res.Size {
		t.Fatalf("summary = %+v", sum)
	}
}

// TestUploadQuotaEnforced 超限上传在写入后端前被拒绝；未超限但越过
// 告警阈值的上传附带告警.
func TestUploadQuotaEnforced(t *testing.T) {
	cfg := testConfig()
	cfg.Quota.DefaultLimit = 1000000

	svc, backend, cat := newTestService(t, cfg)
	ctx := context.Background()

	// 预置用量 900000
	if _, err := cat.ApplySummaryDelta(ctx, catalog.SummaryDelta{
		OwnerID: "user-q", OwnerKind: "individual",
		FileType: "personal/document", Files: 9, Bytes: 900000, QuotaLimit: 1000000,
	}); err != nil {
		t.Fatalf("seed summary: %v", err)
	}

	// 50000 放得下，但用量到 95%，要带告警
	res, err := svc.Upload(ctx, uploadReq("user-q", "personal/document", "ok.bin", 50000), bytes.NewReader(make([]byte, 50000)))
	if err != nil {
		t.Fatalf("upload within quota: %v", err)
	}

	if res.QuotaWarning == "" {
		t.Fatal("expected quota warning at 95% usage")
	}

	before := len(backend.objects)

	// 100000 放不下，必须整单拒绝且不写后端
	_, err = svc.Upload(ctx, uploadReq("user-q", "personal/document", "big.bin", 100000), bytes.NewReader(make([]byte, 100000)))
	if !service.IsQuotaExceeded(err) {
		t.Fatalf("error = %v, want quota exceeded", err)
	}

	var qe *service.QuotaExceededError
	if !errors.As(err, &qe) || qe.Used != 950000 || qe.Limit != 1000000 || qe.Requested != 100000 {
		t.Fatalf("quota error detail = %+v", qe)
	}

	if len(backend.objects) != before {
		t.Fatal("rejected upload must not write to backend")
	}

	// 拒绝不改变已记录的用量
	q, err := svc.QuotaSummary(ctx, "user-q", "individual", "")
	if err != nil {
		t.Fatalf("summary after rejection: %v", err)
	}

	if q.TotalSize != 950000 {
		t.Fatalf("usage after rejection = %d, want 950000", q.TotalSize)
	}
}

// TestUploadCompression 大文本对象压缩入库，二进制对象原样.
func TestUploadCompression(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	text := bytes.Repeat([]byte("compressible text payload. "), 1024)

	req := uploadReq("user-c", "personal/document", "big.txt", int64(len(text)))
	req.ContentType = "text/plain"

	res, err := svc.Upload(ctx, req, bytes.NewReader(text))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !res.IsCompressed {
		t.Fatal("large text must be compressed")
	}

	if res.Size >= int64(len(text)) {
		t.Fatalf("stored size %d not smaller than raw %d", res.Size, len(text))
	}

	binary := make([]byte, 8192)

	req = uploadReq("user-c", "personal/document", "raw.bin", int64(len(binary)))
	req.ContentType = "application/octet-stream"

	res, err = svc.Upload(ctx, req, bytes.NewReader(binary))
	if err != nil {
		t.Fatalf("upload binary: %v", err)
	}

	if res.IsCompressed {
		t.Fatal("binary content must not be compressed")
	}
}

// TestUploadTempExpiry 临时上传自动带到期时间.
func TestUploadTempExpiry(t *testing.T) {
	svc, _, cat := newTestService(t, testConfig())
	ctx := context.Background()

	res, err := svc.Upload(ctx, uploadReq("user-t", "temp/upload", "part.bin", 10), bytes.NewReader(make([]byte, 10)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	meta, err := cat.FileByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}

	if meta.ExpiresAt == nil {
		t.Fatal("temp upload must carry expiry")
	}

	if until := time.Until(*meta.ExpiresAt); until <= 0 || until > 25*time.Hour {
		t.Fatalf("expiry horizon = %v", until)
	}
}

// TestDownloadURLCaching 首次下载签名并缓存，再次下载命中缓存.
func TestDownloadURLCaching(t *testing.T) {
	svc, backend, _ := newTestService(t, testConfig())
	ctx := context.Background()

	res, err := svc.Upload(ctx, uploadReq("user-d", "business/contract", "deal.pdf", 5), bytes.NewReader([]byte("12345")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	// 上传时已预签并缓存，下载应直接命中
	dl, err := svc.DownloadURL(ctx, types.DownloadRequest{FileID: res.ID})
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	if !dl.CacheHit || dl.URL == "" {
		t.Fatalf("first download = %+v, want cache hit", dl)
	}

	signsBefore := backend.presigns

	dl2, err := svc.DownloadURL(ctx, types.DownloadRequest{FileID: res.ID})
	if err != nil {
		t.Fatalf("second download: %v", err)
	}

	if !dl2.CacheHit || backend.presigns != signsBefore {
		t.Fatal("repeat download must not re-sign")
	}

	// 自定义有效期绕过缓存
	dl3, err := svc.DownloadURL(ctx, types.DownloadRequest{FileID: res.ID, ExpirySeconds: 60})
	if err != nil {
		t.Fatalf("custom expiry download: %v", err)
	}

	if dl3.CacheHit {
		t.Fatal("custom expiry must bypass cache")
	}
}

// TestDownloadMissing 未知文件返回 ErrFileNotFound.
func TestDownloadMissing(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())

	_, err := svc.DownloadURL(context.Background(), types.DownloadRequest{FileID: "nope"})
	if err != service.ErrFileNotFound {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}
}

// TestDeleteReleasesQuota 删除回退汇总并清掉对象与缓存.
func TestDeleteReleasesQuota(t *testing.T) {
	svc, backend, cat := newTestService(t, testConfig())
	ctx := context.Background()

	res, err := svc.Upload(ctx, uploadReq("user-x", "personal/document", "gone.txt", 7), bytes.NewReader([]byte("deleted")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	freed, err := svc.Delete(ctx, res.ID, "user-x")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if freed != res.Size {
		t.Fatalf("freed = %d, want %d", freed, res.Size)
	}

	if _, ok := backend.objects[res.StorageKey]; ok {
		t.Fatal("object still in backend")
	}

	sum, err := cat.SummaryFor(ctx, "user-x")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if sum.FileCount != 0 || sum.TotalSize != 0 {
		t.Fatalf("summary after delete = %+v", sum)
	}
}

// TestBatchUploadIsolation 单项失败不拖垮整批.
func TestBatchUploadIsolation(t *testing.T) {
	svc, backend, _ := newTestService(t, testConfig())
	ctx := context.Background()

	items := make([]service.BatchItem, 0, 7)
	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("item-%d.bin", i)
		items = append(items, service.BatchItem{
			Req:  uploadReq("user-b", "personal/document", name, 4),
			Body: bytes.NewReader([]byte("data")),
		})
	}

	// 第 3 项的请求非法，必须单项失败
	items[3].Req.FileType = ""

	result := svc.BatchUpload(ctx, items)

	if len(result.Succeeded) != 6 || len(result.Failed) != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 6/1", len(result.Succeeded), len(result.Failed))
	}

	if result.Failed[0].Ref != "item-3.bin" {
		t.Fatalf("failed ref = %s", result.Failed[0].Ref)
	}

	if len(backend.objects) != 6 {
		t.Fatalf("backend objects = %d, want 6", len(backend.objects))
	}

	if result.TotalTimeMs < 0 {
		t.Fatalf("total time = %d", result.TotalTimeMs)
	}
}

// TestBatchDelete 批量删除的成功/失败分列与字节统计.
func TestBatchDelete(t *testing.T) {
	svc, _, _ := newTestService(t, testConfig())
	ctx := context.Background()

	ids := make([]string, 0, 3)

	for i := 0; i < 3; i++ {
		res, err := svc.Upload(ctx, uploadReq("user-bd", "personal/document", fmt.Sprintf("d%d.txt", i), 3), bytes.NewReader([]byte("abc")))
		if err != nil {
			t.Fatalf("upload: %v", err)
		}

		ids = append(ids, res.ID)
	}

	ids = append(ids, "missing-id")

	result := svc.BatchDelete(ctx, types.BatchDeleteRequest{FileIDs: ids, RequestedBy: "admin"})

	if len(result.Deleted) != 3 || len(result.Failed) != 1 {
		t.Fatalf("deleted=%d failed=%d, want 3/1", len(result.Deleted), len(result.Failed))
	}

	if result.BytesFreed != 9 {
		t.Fatalf("bytes freed = %d, want 9", result.BytesFreed)
	}
}

// TestQuotaSummaryView 配额视图：无汇总行返回零用量，有行返回比例与告警.
func TestQuotaSummaryView(t *testing.T) {
	cfg := testConfig()
	cfg.Quota.DefaultLimit = 1000

	svc, _, _ := newTestService(t, cfg)
	ctx := context.Background()

	q, err := svc.QuotaSummary(ctx, "nobody", "individual", "")
	if err != nil {
		t.Fatalf("empty summary: %v", err)
	}

	if q.TotalSize != 0 || q.QuotaLimit != 1000 || q.Warning {
		t.Fatalf("empty summary = %+v", q)
	}

	if _, err := svc.Upload(ctx, uploadReq("user-s", "personal/avatar", "a.png", 950), bytes.NewReader(make([]byte, 950))); err != nil {
		t.Fatalf("upload: %v", err)
	}

	q, err = svc.QuotaSummary(ctx, "user-s", "individual", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if !q.Warning || q.UsedRatio < 0.9 {
		t.Fatalf("summary = %+v, want warning", q)
	}

	if u := q.ByType["personal/avatar"]; u.Count != 1 || u.Size != 950 {
		t.Fatalf("by type = %+v", q.ByType)
	}
}
