// Package router 管理路由配置，用于设置HTTP服务的路由规则.
// 只负责将路径和处理器绑定到 gin 引擎，处理器的实现由 pkg/internal/handle 提供.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/internal/storage"
)

// RegisterAPIRoutes 注册 /api/v1 下的全部业务路由.
func RegisterAPIRoutes(g *gin.RouterGroup, mgr *storage.Manager) {
	RegisterStorageRoutes(g, mgr)
	RegisterHealthCheckRoute(g)
	RegisterSchedulerRoutes(g)
}
