package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/cleanup"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
	"github.com/rshetty-99/marketvault/pkg/rule"
)

// TriggerCleanup 手工触发一次清理任务.
//
//	@Summary		触发清理任务
//	@Description	同步执行一次清理任务并返回终态记录；同类型任务重叠运行返回 409
//	@Tags			清理与合规
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.CleanupRequest	true	"清理任务请求"
//	@Success		200		{object}	types.CleanupJobInfo	"任务终态记录"
//	@Failure		400		{object}	map[string]string		"请求参数错误"
//	@Failure		403		{object}	map[string]string		"GDPR 删除缺少二次确认人"
//	@Failure		409		{object}	map[string]string		"同类型任务正在运行"
//	@Router			/api/v1/storage/cleanup/jobs [post]
func TriggerCleanup(c *gin.Context) {
	l := log.Logger()

	var req types.CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := rule.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	req.RequestedBy = user

	eng := cleanup.NewEngine(c.Request.Context())

	info, err := eng.Run(c.Request.Context(), req)
	if err != nil {
		l.Warn().Err(err).Str("type", req.JobType).Msg("cleanup trigger failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}

// ListCleanupJobs 分页列清理任务记录.
//
//	@Summary	清理任务列表
//	@Tags		清理与合规
//	@Produce	json
//	@Param		job_type	query		string			false	"按任务类型过滤"
//	@Param		page		query		int				false	"页码，从 1 开始"
//	@Param		size		query		int				false	"每页条数"
//	@Success	200			{object}	map[string]any	"任务记录列表"
//	@Router		/api/v1/storage/cleanup/jobs [get]
func ListCleanupJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

	eng := cleanup.NewEngine(c.Request.Context())

	jobs, total, err := eng.ListJobs(c.Request.Context(), c.Query("job_type"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": total, "page": page, "size": size})
}

// GetCleanupJob 查询单条清理任务记录.
//
//	@Summary	清理任务详情
//	@Tags		清理与合规
//	@Produce	json
//	@Param		id	path		string					true	"任务 ID"
//	@Success	200	{object}	types.CleanupJobInfo	"任务记录"
//	@Failure	404	{object}	map[string]string		"任务不存在"
//	@Router		/api/v1/storage/cleanup/jobs/{id} [get]
func GetCleanupJob(c *gin.Context) {
	eng := cleanup.NewEngine(c.Request.Context())

	info, err := eng.JobInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetComplianceReport 生成合规报告.
//
//	@Summary		合规报告
//	@Description	只读扫描元数据并生成违规与建议报告，不修改任何记录
//	@Tags			清理与合规
//	@Produce		json
//	@Param			owner_id		query		string					false	"按所有者缩小范围"
//	@Param			organization_id	query		string					false	"按组织缩小范围"
//	@Success		200				{object}	types.ComplianceReport	"合规报告"
//	@Router			/api/v1/storage/compliance/report [get]
func GetComplianceReport(c *gin.Context) {
	eng := cleanup.NewEngine(c.Request.Context())

	report, err := eng.ComplianceReport(c.Request.Context(), c.Query("owner_id"), c.Query("organization_id"))
	if err != nil {
		log.Logger().Error().Err(err).Msg("compliance report failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, report)
}
