package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/log"
)

// GetQuotaSummary 查询所有者的配额用量.
//
//	@Summary		配额用量
//	@Description	返回所有者的文件数、总字节数、按类型细分与告警标记
//	@Tags			配额
//	@Produce		json
//	@Param			owner_id	path		string				true	"所有者 ID"
//	@Param			owner_kind	query		string				false	"所有者类型，默认 individual"
//	@Param			plan_tier	query		string				false	"套餐档位，默认 free"
//	@Success		200			{object}	types.QuotaSummary	"配额用量视图"
//	@Router			/api/v1/storage/quota/{owner_id} [get]
func GetQuotaSummary(c *gin.Context) {
	svc := service.NewStorageService(c.Request.Context())

	sum, err := svc.QuotaSummary(c.Request.Context(),
		c.Param("owner_id"), c.Query("owner_kind"), c.Query("plan_tier"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sum)
}

// RebuildQuotaSummary 从元数据目录重建汇总行.
//
//	@Summary		重建配额汇总
//	@Description	全量扫描该所有者的元数据并重建汇总行，用于修复漂移
//	@Tags			配额
//	@Produce		json
//	@Param			owner_id	path		string				true	"所有者 ID"
//	@Param			owner_kind	query		string				false	"所有者类型"
//	@Param			plan_tier	query		string				false	"套餐档位"
//	@Success		200			{object}	types.QuotaSummary	"重建后的配额视图"
//	@Router			/api/v1/storage/quota/{owner_id}/rebuild [post]
func RebuildQuotaSummary(c *gin.Context) {
	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	ownerID := c.Param("owner_id")

	svc := service.NewStorageService(c.Request.Context())

	sum, err := svc.RebuildQuotaSummary(c.Request.Context(),
		ownerID, c.Query("owner_kind"), c.Query("plan_tier"))
	if err != nil {
		log.Logger().Error().Err(err).Str("owner", ownerID).Msg("rebuild summary failed")
		writeError(c, err)

		return
	}

	log.Logger().Info().Str("owner", ownerID).Str("requested_by", user).Msg("quota summary rebuilt")
	c.JSON(http.StatusOK, sum)
}
