// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/digital-marketplace/internal/config"
	"github.com/javajoker/digital-marketplace/internal/database"
	"github.com/javajoker/digital-marketplace/internal/i18n"
	"github.com/javajoker/digital-marketplace/internal/router"
	"github.com/javajoker/digital-marketplace/internal/services"
	"github.com/javajoker/digital-marketplace/internal/store"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := newLogger(cfg.Log, cfg.IsProduction())
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize i18n")
	}

	stores, cleanup, err := openStores(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	locker, closeLocker := newLocker(cfg, logger)
	defer closeLocker()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := router.Initialize(cfg, router.Dependencies{
		Stores:   stores,
		Locker:   locker,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize router")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"storage": cfg.Storage.Driver,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return
	}

	logger.Info("Server exited")
}

// newLogger writes JSON in production and text elsewhere unless LOG_FORMAT
// says otherwise.
func newLogger(cfg config.LogConfig, production bool) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	format := cfg.Format
	if format == "" {
		format = "text"
		if production {
			format = "json"
		}
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func openStores(cfg *config.Config, logger *logrus.Logger) (services.Stores, func(), error) {
	creditCap := store.WithCreditCap(cfg.Wallet.TopUpCap)

	if cfg.Storage.Driver == "memory" {
		mem := store.NewMemoryStores(creditCap)
		if cfg.Storage.SeedCatalog {
			mem.Catalog.Seed()
		}
		logger.Warn("Using in-memory storage, data is lost on restart")
		return mem.Stores(), func() {}, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return services.Stores{}, nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return services.Stores{}, nil, err
	}

	if cfg.Storage.SeedCatalog {
		if err := store.SeedCatalog(context.Background(), db); err != nil {
			database.Close(db)
			return services.Stores{}, nil, err
		}
	}

	return store.NewGormStores(db, creditCap), func() { database.Close(db) }, nil
}

// newLocker uses Redis when configured so purchase locks hold across
// instances.
func newLocker(cfg *config.Config, logger *logrus.Logger) (services.Locker, func()) {
	if !cfg.Redis.Enabled() {
		return services.NewLocalLocker(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	logger.WithField("addr", cfg.Redis.Addr()).Info("Using Redis purchase locks")
	return services.NewRedisLocker(client, cfg.Purchase.LockTTL).WithLogger(logger), func() { _ = client.Close() }
}
