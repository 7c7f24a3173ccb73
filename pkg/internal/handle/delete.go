package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
)

// DeleteFile 删除单个文件.
//
//	@Summary		删除文件
//	@Description	删除后端对象与元数据记录，释放配额并失效缓存的下载 URL
//	@Tags			对象存储
//	@Produce		json
//	@Param			id	path		string				true	"文件 ID"
//	@Success		200	{object}	map[string]any		"释放的字节数"
//	@Failure		404	{object}	map[string]string	"文件不存在"
//	@Router			/api/v1/storage/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	fileID := c.Param("id")

	svc := service.NewStorageService(c.Request.Context())

	freed, err := svc.Delete(c.Request.Context(), fileID, user)
	if err != nil {
		l.Warn().Err(err).Str("file", fileID).Msg("delete failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": fileID, "bytes_freed": freed})
}

// BatchDeleteFiles 批量删除文件.
//
//	@Summary		批量删除文件
//	@Description	按 ID 列表删除，单项失败不影响其它项，返回成功与失败分列
//	@Tags			对象存储
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.BatchDeleteRequest	true	"批量删除请求"
//	@Success		200		{object}	types.BatchDeleteResult		"批量删除结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Router			/api/v1/storage/files/batch/delete [post]
func BatchDeleteFiles(c *gin.Context) {
	l := log.Logger()

	var req types.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file ids provided"})
		return
	}

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	req.RequestedBy = user

	svc := service.NewStorageService(c.Request.Context())
	res := svc.BatchDelete(c.Request.Context(), req)

	l.Info().
		Int("deleted", len(res.Deleted)).
		Int("failed", len(res.Failed)).
		Int64("bytes_freed", res.BytesFreed).
		Msg("batch delete finished")

	c.JSON(http.StatusOK, res)
}
