package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"travelbill/internal/config"
	"travelbill/internal/domain"
	"travelbill/internal/handler"
	"travelbill/internal/middleware"
	"travelbill/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger zerolog.Logger,
	verifier service.TokenVerifier,
	invoiceH *handler.InvoiceHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(verifier))
	v1.Use(middleware.TenantGuard())

	invoices := v1.Group("/invoices")
	invoices.POST("", invoiceH.Create)
	invoices.GET("", invoiceH.List)
	invoices.GET("/export/csv", invoiceH.ExportCSV)
	invoices.GET("/export/xlsx", invoiceH.ExportXLSX)
	invoices.GET("/stats", statsH.GetStats)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.GET("/:id/pdf", invoiceH.DownloadPDF)
	invoices.POST("/:id/publish", invoiceH.Publish)
	invoices.POST("/:id/email", invoiceH.Email)
	invoices.POST("/:id/cancel", invoiceH.Cancel)
	invoices.POST("/:id/reconcile", middleware.RequireRole(domain.RoleAdmin), invoiceH.Reconcile)

	return r
}
