package handle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/internal/types"
	"github.com/rshetty-99/marketvault/pkg/log"
)

// GetDownloadURL 获取文件的预签名下载 URL.
//
//	@Summary		获取下载URL
//	@Description	返回预签名下载 URL，默认有效期内走缓存；指定自定义有效期时绕过缓存
//	@Tags			对象存储
//	@Produce		json
//	@Param			id				path		string					true	"文件 ID"
//	@Param			variant			query		string					false	"派生形态标识，如 thumb"
//	@Param			expiry_seconds	query		int						false	"自定义有效期（秒），最大 86400"
//	@Success		200				{object}	types.DownloadResult	"下载 URL 响应"
//	@Failure		404				{object}	map[string]string		"文件不存在"
//	@Router			/api/v1/storage/files/{id}/url [get]
func GetDownloadURL(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	req := types.DownloadRequest{
		FileID:    c.Param("id"),
		Variant:   c.Query("variant"),
		Requester: user,
	}

	if v := c.Query("expiry_seconds"); v != "" {
		secs, parseErr := strconv.Atoi(v)
		if parseErr != nil || secs < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry_seconds"})
			return
		}

		req.ExpirySeconds = secs
	}

	svc := service.NewStorageService(c.Request.Context())

	res, err := svc.DownloadURL(c.Request.Context(), req)
	if err != nil {
		l.Warn().Err(err).Str("file", req.FileID).Msg("download url failed")
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, res)
}
