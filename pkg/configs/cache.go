package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultURLTTLSeconds 下载 URL 缓存的默认生存时间（1 小时量级）.
	DefaultURLTTLSeconds = 3600
	// DefaultSweepIntervalSeconds 过期条目清扫间隔.
	DefaultSweepIntervalSeconds = 300
)

// CacheConfig 进程内 URL 缓存配置.
type CacheConfig struct {
	URLTTLSeconds        int `mapstructure:"url_ttl_seconds"        rule:"min=1"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" rule:"min=1"`
}

// URLTTL 下载 URL 缓存的 TTL.
func (c *CacheConfig) URLTTL() time.Duration {
	if c.URLTTLSeconds <= 0 {
		return DefaultURLTTLSeconds * time.Second
	}

	return time.Duration(c.URLTTLSeconds) * time.Second
}

// SweepInterval 过期清扫周期.
func (c *CacheConfig) SweepInterval() time.Duration {
	if c.SweepIntervalSeconds <= 0 {
		return DefaultSweepIntervalSeconds * time.Second
	}

	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// setDefaults 设置缓存默认值.
func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.url_ttl_seconds", DefaultURLTTLSeconds)
	v.SetDefault("cache.sweep_interval_seconds", DefaultSweepIntervalSeconds)
}
