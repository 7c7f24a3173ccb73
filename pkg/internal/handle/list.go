package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
)

// ListFiles 按条件分页列文件元数据.
//
//	@Summary		文件列表
//	@Description	按所有者、类型、分类、访问热度等条件分页查询元数据
//	@Tags			对象存储
//	@Produce		json
//	@Param			owner_id		query		string				false	"所有者 ID"
//	@Param			file_type		query		string				false	"文件类型"
//	@Param			classification	query		string				false	"数据分类"
//	@Param			page			query		int					false	"页码，从 1 开始"
//	@Param			size			query		int					false	"每页条数，默认 50，上限 200"
//	@Success		200				{object}	types.ListResponse	"文件列表"
//	@Failure		400				{object}	map[string]string	"请求参数错误"
//	@Router			/api/v1/storage/files [get]
func ListFiles(c *gin.Context) {
	var req types.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := service.NewStorageService(c.Request.Context())

	res, err := svc.List(c.Request.Context(), req)
	if err != nil {
		log.Logger().Error().Err(err).Msg("list files failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}

// GetFileInfo 查询单个文件的元数据视图.
//
//	@Summary	文件详情
//	@Tags		对象存储
//	@Produce	json
//	@Param		id	path		string				true	"文件 ID"
//	@Success	200	{object}	types.FileInfo		"文件元数据"
//	@Failure	404	{object}	map[string]string	"文件不存在"
//	@Router		/api/v1/storage/files/{id} [get]
func GetFileInfo(c *gin.Context) {
	svc := service.NewStorageService(c.Request.Context())

	info, err := svc.FileInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
