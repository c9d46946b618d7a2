package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/innologic/company-service/internal/cache"
	"github.com/innologic/company-service/internal/config"
	"github.com/innologic/company-service/internal/database"
	"github.com/innologic/company-service/internal/handlers"
	"github.com/innologic/company-service/internal/logger"
	"github.com/innologic/company-service/internal/metrics"
	"github.com/innologic/company-service/internal/middleware"
	"github.com/innologic/company-service/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	if err := logger.Init(cfg.LogLevel, cfg.Environment, cfg.ServiceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Get().Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to redis. The cache is optional: reads fall through to the
	// database when the client is unavailable.
	var queryCache *cache.Cache
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Get().Warn("redis unavailable, running without query cache", zap.Error(err))
	} else {
		queryCache = cache.New(redisClient, cfg.CacheTTL)
	}

	// Initialize services
	db := database.GetDB()
	companyService := services.NewCompanyService(db, queryCache)
	locationService := services.NewLocationService(db, queryCache)
	deletionService := services.NewDeletionService(db, queryCache, cfg.RequiredDeletionServices)

	// Initialize handlers
	companyHandler := handlers.NewCompanyHandler(companyService, deletionService)
	locationHandler := handlers.NewLocationHandler(locationService)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logger.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middleware.RequestContext())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": cfg.ServiceName,
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", metrics.Handler())

	// API routes
	api := r.Group("/api/v1")
	{
		companies := api.Group("/companies")
		{
			companies.POST("", companyHandler.CreateCompany)
			companies.GET("/:companyId", companyHandler.GetCompany)
			companies.PUT("/:companyId", companyHandler.UpdateCompany)
			companies.PUT("/:companyId/main-location", companyHandler.SetMainLocation)
			companies.PUT("/:companyId/logo", companyHandler.UpdateLogo)
			companies.DELETE("/:companyId/logo", companyHandler.RemoveLogo)
			companies.GET("/:companyId/locations", companyHandler.ListLocations)
			companies.POST("/:companyId/trash", companyHandler.TrashCompany)
			companies.POST("/:companyId/restore", companyHandler.RestoreCompany)
			companies.DELETE("/:companyId", companyHandler.StartDeletion)
			companies.GET("/:companyId/deletion", companyHandler.GetDeletion)
			companies.POST("/:companyId/deletion-ack", companyHandler.AcknowledgeDeletion)
		}

		locations := api.Group("/location")
		{
			locations.GET("/:locationId", locationHandler.GetLocation)
			locations.PUT("/:locationId", locationHandler.UpdateLocation)
			locations.POST("/:locationId/close", locationHandler.CloseLocation)
			locations.POST("/:locationId/reopen", locationHandler.ReopenLocation)
			locations.DELETE("/:locationId", locationHandler.TrashLocation)
			locations.POST("/:locationId/restore", locationHandler.RestoreLocation)
		}
	}

	// Start server
	logger.Get().Info("server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
