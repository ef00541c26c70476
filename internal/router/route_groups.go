package router

import (
	"farm_backend/internal/handlers"
	"farm_backend/internal/middleware"
	"farm_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	anyRole      = []string{models.RoleAdmin, models.RoleSupervisor, models.RoleStaff}
	managerRoles = []string{models.RoleAdmin, models.RoleSupervisor}
)

// SetupPublicAuthRoutes sets up login, throttled per client IP when a limiter is given.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, limiter *middleware.IPRateLimiter) {
	if limiter != nil {
		group.POST("/login", middleware.RateLimit(limiter), authHandler.LoginUser)
		return
	}
	group.POST("/login", authHandler.LoginUser)
}

// SetupAuthenticatedAuthRoutes sets up the routes about the current caller.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupUserRoutes sets up account management. Admin only.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		userRoutes.POST("", authHandler.RegisterUser)
	}
}

// SetupReferenceRoutes sets up categories and suppliers. Everyone reads,
// managers write.
func SetupReferenceRoutes(authenticatedGroup *gin.RouterGroup, refHandler *handlers.ReferenceHandler) {
	authenticatedGroup.GET("/categories", middleware.RoleAuthMiddleware(anyRole...), refHandler.GetCategories)
	authenticatedGroup.POST("/categories", middleware.RoleAuthMiddleware(managerRoles...), refHandler.CreateCategory)
	authenticatedGroup.GET("/suppliers", middleware.RoleAuthMiddleware(anyRole...), refHandler.GetSuppliers)
	authenticatedGroup.POST("/suppliers", middleware.RoleAuthMiddleware(managerRoles...), refHandler.CreateSupplier)
}

// SetupItemRoutes sets up item records, their ledger and their batches.
func SetupItemRoutes(authenticatedGroup *gin.RouterGroup, invHandler *handlers.InventoryHandler, batchHandler *handlers.BatchHandler) {
	itemRoutes := authenticatedGroup.Group("/items")
	itemRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		itemRoutes.POST("", invHandler.CreateItem)
		itemRoutes.GET("", invHandler.ListItems)
		itemRoutes.GET("/:id", invHandler.GetItem)
		itemRoutes.PUT("/:id", invHandler.UpdateItem)
		itemRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(managerRoles...), invHandler.DeleteItem)

		itemRoutes.POST("/:id/ledger", invHandler.AppendLedgerEntry)
		itemRoutes.GET("/:id/ledger", invHandler.GetLedger)
		itemRoutes.GET("/:id/reconcile", middleware.RoleAuthMiddleware(models.RoleAdmin), invHandler.ReconcileItem)

		itemRoutes.POST("/:id/batches", batchHandler.CreateBatch)
		itemRoutes.GET("/:id/batches", batchHandler.ListBatches)
	}
}

// SetupBatchRoutes sets up batch lookups and quality checks.
func SetupBatchRoutes(authenticatedGroup *gin.RouterGroup, batchHandler *handlers.BatchHandler) {
	batchRoutes := authenticatedGroup.Group("/batches")
	batchRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		batchRoutes.GET("/:id", batchHandler.GetBatch)
		batchRoutes.POST("/:id/quality-checks", batchHandler.RecordQualityCheck)
		batchRoutes.GET("/:id/quality-checks", batchHandler.GetQualityChecks)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware(anyRole...))
	{
		reportRoutes.GET("/inventory-summary", reportHandler.GetInventorySummary)
	}
}
