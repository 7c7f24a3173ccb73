package configs

import "github.com/spf13/viper"

const (
	gib = 1 << 30

	// DefaultQuotaLimit 未命中配额表时的兜底上限.
	DefaultQuotaLimit = 1 * gib
	// DefaultQuotaWarnRatio 触发接近配额告警的用量比例.
	DefaultQuotaWarnRatio = 0.9
	// DefaultPlanTier 上传方未声明套餐档位时使用的档位.
	DefaultPlanTier = "free"
)

// QuotaConfig 存储配额配置：按"所有者类型 × 套餐档位"的字节上限表.
type QuotaConfig struct {
	// Limits ownerKind -> planTier -> 字节上限.
	Limits map[string]map[string]int64 `mapstructure:"limits"`
	// DefaultLimit 表中无对应条目时的上限.
	DefaultLimit int64 `mapstructure:"default_limit" rule:"min=1"`
	// WarnRatio 用量达到该比例时发出接近配额告警（不阻塞上传）.
	WarnRatio float64 `mapstructure:"warn_ratio" rule:"min=0,max=1"`
}

// LimitFor 查询某所有者类型与套餐档位的配额上限.
func (c *QuotaConfig) LimitFor(ownerKind, planTier string) int64 {
	if planTier == "" {
		planTier = DefaultPlanTier
	}

	if tiers, ok := c.Limits[ownerKind]; ok {
		if limit, ok := tiers[planTier]; ok && limit > 0 {
			return limit
		}
	}

	if c.DefaultLimit > 0 {
		return c.DefaultLimit
	}

	return DefaultQuotaLimit
}

// setDefaults 设置配额默认值.
func (c *QuotaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("quota.default_limit", DefaultQuotaLimit)
	v.SetDefault("quota.warn_ratio", DefaultQuotaWarnRatio)
	v.SetDefault("quota.limits", map[string]map[string]int64{
		"individual":   {"free": 1 * gib, "pro": 10 * gib},
		"organization": {"free": 5 * gib, "pro": 50 * gib},
		"project":      {"free": 10 * gib, "pro": 100 * gib},
		"public":       {"free": 100 * gib},
	})
}
