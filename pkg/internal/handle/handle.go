// Package handle 提供请求处理器的实现，用于处理HTTP请求.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/catalog"
	"github.com/rshetty-99/marketvault/pkg/internal/cleanup"
	"github.com/rshetty-99/marketvault/pkg/internal/service"
	"github.com/rshetty-99/marketvault/pkg/rule"
)

func DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"message": "Not Implemented"})
}

// checkUser 提取请求者身份：Header 优先 -> query 参数 -> 默认 test-user（便于测试）.
func checkUser(c *gin.Context) (string, error) {
	user := c.GetHeader("X-User")
	if user == "" {
		user = c.Query("user")
	}
	// 测试默认值，不为 Release 模式时
	if user == "" && gin.Mode() != gin.ReleaseMode {
		user = "test-user"
	}

	user = strings.TrimSpace(user)

	if err := rule.ValidateVar(user, "required,min=3"); err != nil {
		return "", err
	}

	return user, nil
}

// writeError 把服务层错误映射为 HTTP 状态码.
func writeError(c *gin.Context, err error) {
	var quota *service.QuotaExceededError

	switch {
	case errors.As(err, &quota):
		c.JSON(http.StatusInsufficientStorage, gin.H{
			"error": quota.Error(),
			"quota": gin.H{
				"used":      quota.Used,
				"limit":     quota.Limit,
				"requested": quota.Requested,
			},
		})
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, cleanup.ErrJobOverlap):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, cleanup.ErrApprovalRequired):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, cleanup.ErrUnknownJobType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
