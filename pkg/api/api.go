// Package api 汇总对外 HTTP 接口的注册入口.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/router"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
)

// RegisterGroup 注册对象存储相关的路由组到传入的 gin 引擎.
func RegisterGroup(e *gin.Engine, mgr *storage.Manager) *gin.Engine {
	router.RegisterAPIRoutes(e.Group("/api/v1"), mgr)
	router.RegisterSwaggerRoute(e)

	return e
}
