package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rshetty-99/marketvault/pkg/cache"
	"github.com/rshetty-99/marketvault/pkg/internal/handle"
	"github.com/rshetty-99/marketvault/pkg/internal/storage"
	"github.com/rshetty-99/marketvault/pkg/middleware"
)

// RegisterStorageRoutes 注册对象存储相关路由.
func RegisterStorageRoutes(g *gin.RouterGroup, mgr *storage.Manager) {
	storageRoutes := g.Group("/storage")
	{
		filesRoutes := storageRoutes.Group("/files")
		{
			// 上传与列表
			filesRoutes.POST("", handle.UploadFile)
			filesRoutes.GET("", handle.ListFiles)

			// 批量操作
			batchGroup := filesRoutes.Group("/batch")
			{
				batchGroup.POST("", handle.BatchUploadFiles)
				batchGroup.POST("/delete", handle.BatchDeleteFiles)
			}

			// 单个文件操作
			singleGroup := filesRoutes.Group("/:id")
			{
				singleGroup.GET("", handle.GetFileInfo)
				singleGroup.DELETE("", handle.DeleteFile)
				singleGroup.GET("/url", handle.GetDownloadURL)
			}
		}

		// 配额
		quotaRoutes := storageRoutes.Group("/quota")
		{
			quotaRoutes.GET("/:owner_id", handle.GetQuotaSummary)
			quotaRoutes.POST("/:owner_id/rebuild", handle.RebuildQuotaSummary)
		}

		// 清理与合规，管理员权限
		cleanupRoutes := storageRoutes.Group("/cleanup", middleware.RequireMinRole(middleware.RoleAdmin))
		{
			cleanupRoutes.POST("/jobs", handle.TriggerCleanup)
			cleanupRoutes.GET("/jobs", handle.ListCleanupJobs)
			cleanupRoutes.GET("/jobs/:id", handle.GetCleanupJob)
		}

		// 合规报告是全量扫描，结果短期缓存
		reportCache := middleware.DefaultCacheConfig(cache.NewCache(mgr.GetKVClient()))
		reportCache.TTL = 5 * time.Minute
		storageRoutes.GET("/compliance/report", middleware.CacheMiddleware(reportCache), handle.GetComplianceReport)
	}
}
