package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	daysPerYear = 365

	// DefaultTempMaxAgeHours 临时对象的最大存活时间（小时）.
	DefaultTempMaxAgeHours = 24
)

// RetentionConfig 按文件类型配置的保留周期表.
// 天数为 0 或缺失表示"永不过期"，保留任务会完全跳过该类型.
type RetentionConfig struct {
	// PeriodsDays fileType -> 保留天数.
	PeriodsDays map[string]int `mapstructure:"periods_days"`
	// TempMaxAgeHours 临时上传的清理阈值（小时）.
	TempMaxAgeHours int `mapstructure:"temp_max_age_hours" rule:"min=1"`
}

// PeriodFor 返回文件类型的保留周期；第二个返回值为 false 表示不设限.
func (c *RetentionConfig) PeriodFor(fileType string) (time.Duration, bool) {
	days, ok := c.PeriodsDays[fileType]
	if !ok || days <= 0 {
		return 0, false
	}

	return time.Duration(days) * 24 * time.Hour, true
}

// TempMaxAge 临时对象的最大存活时间.
func (c *RetentionConfig) TempMaxAge() time.Duration {
	hours := c.TempMaxAgeHours
	if hours <= 0 {
		hours = DefaultTempMaxAgeHours
	}

	return time.Duration(hours) * time.Hour
}

// setDefaults 设置保留策略默认值.
func (c *RetentionConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("retention.temp_max_age_hours", DefaultTempMaxAgeHours)
	v.SetDefault("retention.periods_days", map[string]int{
		"personal/document":           2 * daysPerYear,
		"personal/message-attachment": daysPerYear,
		"business/portfolio":          3 * daysPerYear,
		"system/audit-export":         7 * daysPerYear,
	})
}
