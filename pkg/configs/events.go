package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool               `mapstructure:"enabled"` // 总开关
	Object  ObjectEventsConfig `mapstructure:"object"`
	Admin   AdminEventsConfig  `mapstructure:"admin"`
}

// ObjectEventsConfig 针对对象存储领域的事件开关。
type ObjectEventsConfig struct {
	Stored   bool `mapstructure:"stored"`
	Deleted  bool `mapstructure:"deleted"`
	Accessed bool `mapstructure:"accessed"`
}

// AdminEventsConfig 针对配额与清理领域的事件开关。
type AdminEventsConfig struct {
	QuotaWarning    bool `mapstructure:"quota_warning"`
	CleanupFinished bool `mapstructure:"cleanup_finished"`
	ReportGenerated bool `mapstructure:"report_generated"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 对象领域的事件：默认仅开启最小必要集，避免噪声过大
	v.SetDefault("events.object.stored", true)
	v.SetDefault("events.object.deleted", true)
	v.SetDefault("events.object.accessed", false) // 访问事件量可能很大，默认关闭

	// 配额告警与清理完成事件：运营侧关注，默认开启
	v.SetDefault("events.admin.quota_warning", true)
	v.SetDefault("events.admin.cleanup_finished", true)
	v.SetDefault("events.admin.report_generated", false)
}
