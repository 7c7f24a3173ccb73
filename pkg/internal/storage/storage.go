// Package storage 聚合对象存储后端、元数据数据库、KV 与消息队列资源.
//
// Example:
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//	    // 处理错误
//	}
//
//	backend := mgr.GetBackend()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"sync"

	"github.com/rshetty-99/marketvault/pkg/configs"
	dbc "github.com/rshetty-99/marketvault/pkg/internal/storage/db"
	kvc "github.com/rshetty-99/marketvault/pkg/internal/storage/kv"
	mqc "github.com/rshetty-99/marketvault/pkg/internal/storage/mq"
	s3c "github.com/rshetty-99/marketvault/pkg/internal/storage/s3"
	nlog "github.com/rshetty-99/marketvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	S3      *s3c.Client
	DB      *dbc.Client
	KV      *kvc.Client
	MQ      *mqc.Client
	backend Backend
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		// DB
		dbi, e := dbc.New(ctx)
		if e != nil {
			err = e
			return
		}

		m.DB = dbi

		// S3
		s3i, e := s3c.New(ctx)
		if e != nil {
			err = e
			return
		}

		m.S3 = s3i
		m.backend = NewBreakerBackend(NewS3Backend(s3i), cfg.CircuitBreak)

		// KV
		kvi, e := kvc.NewKVClient(ctx)
		if e != nil {
			err = e
			return
		}

		m.KV = kvi

		// MQ：允许缺失，事件发布降级为 no-op
		if mqi, e := mqc.New(ctx); e != nil {
			nlog.Logger().Warn().Err(e).Msg("mq unavailable, events disabled")
		} else {
			m.MQ = mqi
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetBackend 获取对象存储后端.
func (m *Manager) GetBackend() Backend {
	return m.backend
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}
