package router

import (
	"database/sql"
	"net/http"

	"farm_backend/internal/events"
	"farm_backend/internal/handlers"
	"farm_backend/internal/middleware"
	"farm_backend/internal/repositories"
	"farm_backend/internal/services"
	"farm_backend/pkg/metrics"
	"farm_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth       services.AuthService
	Items      services.ItemService
	Ledger     services.LedgerService
	Batches    services.BatchService
	References services.ReferenceService
	Reports    services.ReportService
}

// NewServices wires repositories into services over one connection pool.
func NewServices(db *sql.DB, tokens *utils.TokenManager, notifier events.Notifier, m *metrics.Metrics) Services {
	authRepo := repositories.NewAuthRepository(db)
	itemRepo := repositories.NewItemRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	batchRepo := repositories.NewBatchRepository(db)
	refRepo := repositories.NewReferenceRepository(db)

	return Services{
		Auth:       services.NewAuthService(authRepo, db, tokens),
		Items:      services.NewItemService(db, itemRepo, ledgerRepo, refRepo, notifier, m),
		Ledger:     services.NewLedgerService(db, itemRepo, ledgerRepo, notifier, m),
		Batches:    services.NewBatchService(db, batchRepo, itemRepo, notifier, m),
		References: services.NewReferenceService(refRepo, db),
		Reports:    services.NewReportService(itemRepo, batchRepo),
	}
}

// Options carries the cross-cutting pieces of the HTTP stack.
type Options struct {
	Tokens       *utils.TokenManager
	Metrics      *metrics.Metrics
	LoginLimiter *middleware.IPRateLimiter
	CORSOrigins  []string
}

// Setup installs global middleware and every route on engine.
func Setup(engine *gin.Engine, svc Services, opts Options) {
	middleware.SetupValidator()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		utils.GinLogger(),
		opts.Metrics.GinMiddleware(),
		cors.New(corsConfig),
	)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svc.Auth)
	inventoryHandler := handlers.NewInventoryHandler(svc.Items, svc.Ledger)
	batchHandler := handlers.NewBatchHandler(svc.Batches)
	referenceHandler := handlers.NewReferenceHandler(svc.References)
	reportHandler := handlers.NewReportHandler(svc.Reports)

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler, opts.LoginLimiter)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(opts.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupUserRoutes(authenticated, authHandler)
		SetupReferenceRoutes(authenticated, referenceHandler)
		SetupItemRoutes(authenticated, inventoryHandler, batchHandler)
		SetupBatchRoutes(authenticated, batchHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
