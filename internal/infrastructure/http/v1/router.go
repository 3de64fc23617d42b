// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"orderflow/internal/domain/documents/billing"
	"orderflow/internal/domain/pipeline"
	"orderflow/internal/infrastructure/backend"
	"orderflow/internal/infrastructure/cache"
	"orderflow/internal/infrastructure/http/v1/handlers"
	"orderflow/internal/infrastructure/http/v1/middleware"
	"orderflow/internal/infrastructure/metrics"
	"orderflow/internal/infrastructure/wire"
	"orderflow/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Service is the pipeline orchestrator
	Service *pipeline.Service

	// Logger for request logging
	Logger *logger.Logger

	// Idempotency guards POST requests; nil disables the middleware
	Idempotency cache.IdempotencyStore

	// Metrics records request durations and serves /metrics; optional
	Metrics *metrics.Recorder

	// Backend enables the /api/v1/backend proxy group; optional
	Backend    *backend.Client
	Normalizer *wire.Normalizer

	// Health reports dependency checks
	Health *handlers.HealthHandler

	// Clock renders invoice status; defaults to time.Now
	Clock handlers.Clock

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Health == nil {
		cfg.Health = handlers.NewHealthHandler("dev", "unknown", nil)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())
	if cfg.Metrics != nil {
		router.Use(middleware.Recovery(cfg.Metrics.Panicked))
	} else {
		router.Use(middleware.Recovery())
	}

	router.GET("/health", cfg.Health.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
		health.GET("/info", cfg.Health.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Handler())
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Actor())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerPurchaseRoutes(api, cfg)
	registerSalesRoutes(api, cfg)
	registerBackendRoutes(api, cfg)

	return router
}

// registerPurchaseRoutes registers requisitions, purchase orders, goods
// receipts and purchase invoices.
func registerPurchaseRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	purchase := rg.Group("/purchase")
	base := handlers.NewBaseHandler()

	// --- REQUISITIONS ---
	{
		h := handlers.NewRequisitionHandler(base, cfg.Service)
		group := purchase.Group("/requisitions")
		group.PUT("/:id/lines", h.UpdateLines)
		RegisterDocumentRoutes(group, h,
			Action{"submit", h.Submit},
			Action{"approve", h.Approve},
			Action{"reject", h.Reject},
			Action{"cancel", h.Cancel},
			Action{"convert-to-po", h.Convert},
		)
	}

	// --- PURCHASE ORDERS ---
	{
		h := handlers.NewPurchaseOrderHandler(base, cfg.Service, cfg.Clock)
		RegisterDocumentRoutes(purchase.Group("/orders"), h,
			Action{"submit", h.Submit},
			Action{"approve", h.Approve},
			Action{"confirm", h.Confirm},
			Action{"cancel", h.Cancel},
			Action{"invoices", h.Invoice},
		)
	}

	// --- GOODS RECEIPTS ---
	{
		h := handlers.NewGoodsReceiptHandler(base, cfg.Service)
		RegisterDocumentRoutes(purchase.Group("/receipts"), h,
			Action{"start", h.Start},
			Action{"inspect", h.Inspect},
			Action{"complete", h.Complete},
			Action{"cancel", h.Cancel},
		)
	}

	// --- PURCHASE INVOICES ---
	registerInvoiceRoutes(purchase.Group("/invoices"), handlers.NewInvoiceHandler(base, cfg.Service, billing.TypePurchase, cfg.Clock))
}

// registerSalesRoutes registers sales orders, picklists, dispatches and
// sales invoices.
func registerSalesRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	salesGroup := rg.Group("/sales")
	base := handlers.NewBaseHandler()

	// --- SALES ORDERS ---
	{
		h := handlers.NewSalesOrderHandler(base, cfg.Service, cfg.Clock)
		RegisterDocumentRoutes(salesGroup.Group("/orders"), h,
			Action{"confirm", h.Confirm},
			Action{"cancel", h.Cancel},
			Action{"picklists", h.Picklists},
			Action{"invoices", h.Invoice},
			Action{"complete", h.Complete},
		)
	}

	// --- PICKLISTS ---
	{
		h := handlers.NewPicklistHandler(base, cfg.Service)
		RegisterDocumentRoutes(salesGroup.Group("/picklists"), h,
			Action{"start", h.Start},
			Action{"picks", h.Pick},
			Action{"hold", h.Hold},
			Action{"resume", h.Resume},
			Action{"complete", h.Complete},
			Action{"cancel", h.Cancel},
			Action{"dispatch", h.Dispatch},
		)
	}

	// --- DISPATCHES ---
	{
		h := handlers.NewDispatchHandler(base, cfg.Service)
		group := salesGroup.Group("/dispatches")
		group.GET("/:id/tracking", h.Tracking)
		RegisterDocumentRoutes(group, h,
			Action{"ship", h.Ship},
			Action{"depart", h.Depart},
			Action{"track", h.Track},
			Action{"deliver", h.Deliver},
			Action{"cancel", h.Cancel},
		)
	}

	// --- SALES INVOICES ---
	registerInvoiceRoutes(salesGroup.Group("/invoices"), handlers.NewInvoiceHandler(base, cfg.Service, billing.TypeSales, cfg.Clock))
}

func registerInvoiceRoutes(group *gin.RouterGroup, h *handlers.InvoiceHandler) {
	RegisterDocumentRoutes(group, h,
		Action{"issue", h.Issue},
		Action{"payments", h.Pay},
		Action{"cancel", h.Cancel},
	)
}

// registerBackendRoutes exposes the ERP backend through the normalizer.
func registerBackendRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Backend == nil {
		return
	}
	normalizer := cfg.Normalizer
	if normalizer == nil {
		normalizer = wire.NewNormalizer(wire.DefaultCurrencyScale)
	}
	h := handlers.NewBackendHandler(handlers.NewBaseHandler(), cfg.Backend, normalizer)
	be := rg.Group("/backend")

	reqs := be.Group("/purchase/requisitions")
	reqs.GET("", h.ListRequisitions)
	reqs.POST("", h.CreateRequisition)
	reqs.GET("/:id", h.GetRequisition)
	reqs.POST("/:id/approve", h.ApproveRequisition)
	reqs.POST("/:id/convert-to-po", h.ConvertRequisition)

	orders := be.Group("/purchase/orders")
	orders.GET("", h.ListPurchaseOrders)
	orders.POST("", h.CreatePurchaseOrder)
	orders.GET("/:id", h.GetPurchaseOrder)
	orders.POST("/:id/confirm", h.ConfirmPurchaseOrder)

	receipts := be.Group("/purchase/receipts")
	receipts.GET("", h.ListGoodsReceipts)
	receipts.POST("", h.CreateGoodsReceipt)
	receipts.GET("/:id", h.GetGoodsReceipt)

	so := be.Group("/sales/orders")
	so.GET("", h.ListSalesOrders)
	so.POST("", h.CreateSalesOrder)
	so.GET("/:id", h.GetSalesOrder)
	so.POST("/:id/confirm", h.ConfirmSalesOrder)
}
