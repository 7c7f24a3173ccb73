package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rshetty-99/marketvault/pkg/configs"
)

// ErrBackendUnavailable 后端暂时不可用（熔断打开或连续失败）.
// 属于可重试错误，调用方可整体重试操作.
var ErrBackendUnavailable = errors.New("storage: backend unavailable")

// breakerBackend 用熔断器包装后端调用：后端持续出错时快速失败，
// 避免批量操作在已经不可用的后端上堆积请求.
type breakerBackend struct {
	inner Backend
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerBackend 包装 Backend；cfg.Enabled 为 false 时原样返回.
func NewBreakerBackend(inner Backend, cfg configs.CircuitBreakerConfig) Backend {
	if !cfg.Enabled {
		return inner
	}

	settings := gobreaker.Settings{
		Name:        "object-backend",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    time.Duration(cfg.IntervalSeconds) * time.Second,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		IsSuccessful: func(err error) bool {
			// 对象不存在是业务结果，不计入后端失败
			return err == nil || errors.Is(err, ErrObjectMissing)
		},
	}

	return &breakerBackend{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerBackend) exec(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) { return nil, fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBackendUnavailable
	}

	return err
}

func (b *breakerBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (PutInfo, error) {
	var info PutInfo

	err := b.exec(func() error {
		var e error
		info, e = b.inner.Put(ctx, key, r, size, contentType)

		return e
	})

	return info, err
}

func (b *breakerBackend) Stat(ctx context.Context, key string) (ObjectStat, error) {
	var stat ObjectStat

	err := b.exec(func() error {
		var e error
		stat, e = b.inner.Stat(ctx, key)

		return e
	})

	return stat, err
}

func (b *breakerBackend) Remove(ctx context.Context, key string) error {
	return b.exec(func() error { return b.inner.Remove(ctx, key) })
}

func (b *breakerBackend) PresignGet(ctx context.Context, key string, expiry time.Duration, params url.Values) (string, error) {
	var u string

	err := b.exec(func() error {
		var e error
		u, e = b.inner.PresignGet(ctx, key, expiry, params)

		return e
	})

	return u, err
}

func (b *breakerBackend) List(ctx context.Context, prefix string, fn func(ObjectStat) error) error {
	return b.exec(func() error { return b.inner.List(ctx, prefix, fn) })
}
