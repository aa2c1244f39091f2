// internal/router/router.go
package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/digital-marketplace/internal/config"
	"github.com/javajoker/digital-marketplace/internal/handlers"
	"github.com/javajoker/digital-marketplace/internal/metrics"
	"github.com/javajoker/digital-marketplace/internal/middleware"
	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/services"
)

const version = "1.0.0"

// Dependencies are the pieces the caller builds from configuration.
type Dependencies struct {
	Stores services.Stores
	// Locker defaults to an in-process lock.
	Locker   services.Locker
	Registry *prometheus.Registry
	Logger   *logrus.Logger
}

func Initialize(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	locker := deps.Locker
	if locker == nil {
		locker = services.NewLocalLocker()
	}
	m := metrics.New(registry)

	// Initialize services
	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	notificationService := services.NewNotificationService(deps.Stores.Notifications, logger)
	walletService := services.NewWalletService(deps.Stores.Wallets, cfg.Wallet.TopUpCap, m, logger)
	purchaseService := services.NewPurchaseService(deps.Stores, notificationService, locker, services.PurchaseOptions{
		CommissionRate:            cfg.Purchase.CommissionRate,
		LockTimeout:               cfg.Purchase.LockTimeout,
		CompensationMaxRetries:    cfg.Purchase.CompensationMaxRetries,
		CompensationRetryInterval: cfg.Purchase.CompensationRetryInterval,
	}, m, logger)
	saleService := services.NewSaleService(deps.Stores.Sales)
	licenseService := services.NewLicenseService(deps.Stores.Grants, deps.Stores.Catalog, storageService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.Stores.Ping, version)
	walletHandler := handlers.NewWalletHandler(walletService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	saleHandler := handlers.NewSaleHandler(saleService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	adminHandler := handlers.NewAdminHandler(notificationService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Built only when enabled.
	var generalLimit, purchaseLimit, walletLimit gin.HandlerFunc = passThrough, passThrough, passThrough
	if cfg.Server.RateLimitEnabled {
		generalLimit = middleware.GeneralRateLimit()
		purchaseLimit = middleware.PurchaseRateLimit()
		walletLimit = middleware.WalletRateLimit()
	}

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthRequired(), generalLimit)
	{
		// Wallet routes
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/me", walletHandler.GetMyWallet)
			wallets.POST("/me/top-up", walletLimit, walletHandler.TopUp)
			wallets.GET("/id/:walletId", walletHandler.GetWalletByID)
			wallets.GET("/:ownerId", middleware.SelfOrAdmin("ownerId"), walletHandler.GetWallet)
			wallets.POST("/:ownerId", middleware.AdminRequired(), walletHandler.CreateWallet)
		}

		// Asset routes
		assets := v1.Group("/assets")
		{
			assets.POST("/:assetId/purchase",
				middleware.RoleIn(models.UserRoleClient, models.UserRoleArtist, models.UserRoleAdmin),
				purchaseLimit,
				purchaseHandler.Purchase)
			assets.GET("/:assetId/access", licenseHandler.CheckAccess)
			assets.GET("/:assetId/download", licenseHandler.Download)
		}

		// Sale ledger routes
		sales := v1.Group("/sales")
		{
			sales.GET("", middleware.AdminRequired(), saleHandler.ListSales)
			sales.GET("/buyer/:buyerId", middleware.SelfOrAdmin("buyerId"), saleHandler.ListByBuyer)
			sales.GET("/seller/:sellerId", middleware.SelfOrAdmin("sellerId"), saleHandler.ListBySeller)
			sales.GET("/:saleId", saleHandler.GetSale)
		}

		// License routes
		licenses := v1.Group("/licenses")
		{
			licenses.GET("/user/:userId", middleware.SelfOrAdmin("userId"), licenseHandler.GetUserLicenses)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/notifications", adminHandler.GetNotifications)
			admin.PUT("/notifications/:id/read", adminHandler.MarkNotificationRead)
		}
	}

	return r, nil
}

func passThrough(c *gin.Context) {
	c.Next()
}
