package queue

// 主题命名规范：mv.<域>.<动作>，尽量稳定且向后兼容.
// 域：object(对象生命周期)、quota(配额)、cleanup(清理)、compliance(合规)
const (
	// 对象生命周期.
	TopicObjectStored   = "mv.object.stored"   // 对象已写入存储且元数据入库
	TopicObjectDeleted  = "mv.object.deleted"  // 对象已从存储与目录中删除
	TopicObjectAccessed = "mv.object.accessed" // 对象被访问（下载 URL 下发）

	// 配额.
	TopicQuotaWarning  = "mv.quota.warning"  // 用量达到告警阈值
	TopicQuotaExceeded = "mv.quota.exceeded" // 上传因超限被拒绝

	// 清理与合规.
	TopicCleanupFinished    = "mv.cleanup.finished"    // 清理任务到达终态
	TopicComplianceReported = "mv.compliance.reported" // 合规报告生成完成
)

// TopicsAll 全部已定义主题，供订阅端与调试工具枚举.
var TopicsAll = []string{
	TopicObjectStored,
	TopicObjectDeleted,
	TopicObjectAccessed,
	TopicQuotaWarning,
	TopicQuotaExceeded,
	TopicCleanupFinished,
	TopicComplianceReported,
}
