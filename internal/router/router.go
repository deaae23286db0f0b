// Package router 注册路由
package router

import (
	"net/http"

	"github.com/ashwinyue/roundtable/internal/database"
	"github.com/ashwinyue/roundtable/internal/handler"
	"github.com/ashwinyue/roundtable/internal/middleware"
	"github.com/ashwinyue/roundtable/internal/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(handlers *handler.Handlers, svc *service.Services, db *database.DB) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(svc.Config))
	{
		threads := api.Group("/threads")
		{
			threads.POST("", handlers.Thread.CreateThread)
			threads.GET("", handlers.Thread.ListThreads)
			threads.GET("/:id", handlers.Thread.GetThread)
			threads.PUT("/:id", handlers.Thread.RenameThread)
			threads.DELETE("/:id", handlers.Thread.DeleteThread)

			threads.POST("/:id/roles/:role_id", handlers.Thread.AssignRole)
			threads.DELETE("/:id/roles/:role_id", handlers.Thread.UnassignRole)

			threads.POST("/:id/messages", handlers.Message.PostMessage)
			threads.GET("/:id/messages", handlers.Message.ListMessages)

			threads.GET("/:id/state", handlers.Thread.GetState)
			threads.GET("/:id/interactions", handlers.Thread.ListInteractions)
		}

		roles := api.Group("/roles")
		{
			roles.POST("", handlers.Role.CreateRole)
			roles.GET("", handlers.Role.ListRoles)
			roles.GET("/:id", handlers.Role.GetRole)
			roles.PUT("/:id", handlers.Role.UpdateRole)
			roles.DELETE("/:id", handlers.Role.DeleteRole)

			roles.GET("/:id/memories", handlers.Memory.ListMemories)
			roles.POST("/:id/memories/consolidate", handlers.Memory.Consolidate)
			roles.POST("/:id/memories/prune", handlers.Memory.Prune)
		}
	}

	return r
}
