// Package service 实现存储子系统的业务操作：上传、下载、删除、列表、
// 配额查询与预热.所有操作都经由放置策略（policy）、元数据目录（catalog）
// 与 URL 缓存协作完成.
package service

import (
	"context"
	"time"

	"github.com/rshetty-99/marketvault/pkg/cache"
	"github.com/rshetty-99/marketvault/pkg/configs"
	ctxPkg "github.com/rshetty-99/marketvault/pkg/context"
	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/internal/storage/mq"
)

// StorageService 存储操作的服务入口.
type StorageService struct {
	backend storage.Backend
	catalog *catalog.Catalog
	urls    cache.URLCache
	mq      *mq.Client

	quota     configs.QuotaConfig
	retention configs.RetentionConfig
	cacheCfg  configs.CacheConfig
	events    configs.EventsConfig

	presignExpiry time.Duration
	now           func() time.Time
}

// New 以显式依赖构建服务，测试与组合根都用它.mqClient 允许为 nil（事件降级）.
func New(backend storage.Backend, cat *catalog.Catalog, urls cache.URLCache, mqClient *mq.Client, cfg *configs.AppConfig) *StorageService {
	return &StorageService{
		backend:       backend,
		catalog:       cat,
		urls:          urls,
		mq:            mqClient,
		quota:         cfg.Quota,
		retention:     cfg.Retention,
		cacheCfg:      cfg.Cache,
		events:        cfg.Events,
		presignExpiry: time.Duration(cfg.S3.PresignExpirySeconds) * time.Second,
		now:           time.Now,
	}
}

// NewStorageService 从请求上下文中的存储管理器构建服务.
func NewStorageService(c context.Context) *StorageService {
	mgr := ctxPkg.GetManager(c)
	cfg := configs.GetConfig()

	var (
		cat  *catalog.Catalog
		urls cache.URLCache
		mqc  *mq.Client
	)

	if mgr != nil {
		if dbc := mgr.GetDBClient(); dbc != nil {
			cat = catalog.New(dbc.GetDB())
		}

		if kvc := mgr.GetKVClient(); kvc != nil {
			urls = cache.NewURLCache(kvc)
		}

		mqc = mgr.GetMQClient()

		return New(mgr.GetBackend(), cat, urls, mqc, cfg)
	}

	return New(nil, nil, nil, nil, cfg)
}

// urlTTL 下载 URL 缓存的 TTL，不允许超过预签名有效期.
func (s *StorageService) urlTTL() time.Duration {
	ttl := s.cacheCfg.URLTTL()
	if s.presignExpiry > 0 && ttl > s.presignExpiry {
		return s.presignExpiry
	}

	return ttl
}
