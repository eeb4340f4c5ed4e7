package api

import (
	"github.com/gin-gonic/gin"

	"github.com/filecrate/filecrate/internal/handlers"
	"github.com/filecrate/filecrate/internal/middleware"
	"github.com/filecrate/filecrate/internal/permissions"
)

// registerFileRoutes declares the required permission level of every
// file operation. Routes without a level (upload, list) are not about a
// single file and bypass the guard by design, never via a missing-id
// fallback.
func registerFileRoutes(api *gin.RouterGroup, guard *middleware.Guard, files *handlers.FileHandler, grants *handlers.GrantHandler) {
	group := api.Group("/files")
	{
		group.POST("", files.Upload)
		group.GET("", files.List)

		group.GET("/:id", guard.RequireLevel(permissions.LevelRead), files.Get)
		group.GET("/:id/download", guard.RequireLevel(permissions.LevelRead), files.Download)
		group.DELETE("/:id", guard.RequireLevel(permissions.LevelDelete), files.Delete)

		group.GET("/:id/permissions", guard.RequireLevel(permissions.LevelOwner), grants.List)
		group.PUT("/:id/permissions", guard.RequireLevel(permissions.LevelOwner), grants.Set)
		group.DELETE("/:id/permissions/:userId", guard.RequireLevel(permissions.LevelOwner), grants.Revoke)
	}
}
