package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	manufacturingapp "github.com/loomworks/backend/internal/application/manufacturing"
	"github.com/loomworks/backend/internal/infrastructure/auth"
	"github.com/loomworks/backend/internal/infrastructure/config"
	"github.com/loomworks/backend/internal/infrastructure/directory"
	"github.com/loomworks/backend/internal/infrastructure/event"
	"github.com/loomworks/backend/internal/infrastructure/logger"
	"github.com/loomworks/backend/internal/infrastructure/notify"
	"github.com/loomworks/backend/internal/infrastructure/persistence"
	"github.com/loomworks/backend/internal/infrastructure/storage"
	"github.com/loomworks/backend/internal/interfaces/http/handler"
	"github.com/loomworks/backend/internal/interfaces/http/middleware"
	"github.com/loomworks/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Loomworks Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	// Redis backs the company short-code cache. The server starts without it;
	// lookups then always hit the database.
	var redisClient *redis.Client
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, short-code cache disabled", zap.Error(err))
		_ = client.Close()
	} else {
		redisClient = client
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	}
	cancelPing()

	// Object storage for order documents. Without credentials the server
	// falls back to an in-memory store so the document flow works in dev.
	var objectStorage manufacturingapp.ObjectStorageService
	if cfg.Storage.AccessKey != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Storage.EnsureBucket(ensureCtx); err != nil {
			log.Warn("Could not ensure storage bucket", zap.Error(err))
		}
		cancelEnsure()
		objectStorage = s3Storage
	} else {
		log.Warn("No storage credentials configured, using in-memory object storage")
		objectStorage = storage.NewMemoryObjectStorage(cfg.Storage.PublicBaseURL)
	}

	// Repositories and directories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	companyDirectory := directory.NewCompanyDirectory(db.DB, redisClient,
		directory.WithDirectoryLogger(log),
	)

	// Event bus with the notification fan-out handler
	eventBus := event.NewInMemoryEventBus(log)
	orderNotifier := notify.NewOrderNotifier(log)
	eventBus.Subscribe(orderNotifier)
	log.Info("Event bus initialized",
		zap.Strings("order_events", orderNotifier.EventTypes()),
	)

	// Application services
	orderService := manufacturingapp.NewOrderService(orderRepo, companyDirectory)
	orderService.SetEventPublisher(eventBus)
	documentService := manufacturingapp.NewDocumentService(orderRepo, objectStorage, log)
	documentService.SetEventPublisher(eventBus)

	// JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	documentHandler := handler.NewDocumentHandler(documentService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS, body size limit
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Manufacturing domain
	manufacturingRoutes := router.NewDomainGroup("manufacturing", "/manufacturing")
	manufacturingRoutes.POST("/orders", orderHandler.Create)
	manufacturingRoutes.GET("/orders", orderHandler.List)
	manufacturingRoutes.GET("/orders/by-number", orderHandler.GetByOrderNumber)
	manufacturingRoutes.GET("/orders/:id", orderHandler.GetByID)
	manufacturingRoutes.PUT("/orders/:id", orderHandler.Update)
	manufacturingRoutes.POST("/orders/:id/stage", orderHandler.AdvanceStage)
	manufacturingRoutes.PUT("/orders/:id/delay", orderHandler.SetDeliveryDelay)
	manufacturingRoutes.POST("/orders/:id/payments", orderHandler.RecordPayment)
	manufacturingRoutes.PUT("/orders/:id/payments/:paymentId", orderHandler.UpdatePayment)
	manufacturingRoutes.DELETE("/orders/:id/payments/:paymentId", orderHandler.DeletePayment)
	manufacturingRoutes.POST("/orders/:id/activity", orderHandler.LogActivity)

	// Order documents
	manufacturingRoutes.POST("/orders/:id/documents/upload-url", documentHandler.InitiateUpload)
	manufacturingRoutes.POST("/orders/:id/documents", documentHandler.Attach)
	manufacturingRoutes.PUT("/orders/:id/documents/:documentId", documentHandler.Rename)
	manufacturingRoutes.DELETE("/orders/:id/documents/:documentId", documentHandler.Delete)
	manufacturingRoutes.GET("/orders/:id/documents/:documentId/download-url", documentHandler.DownloadURL)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(manufacturingRoutes).Register(systemRoutes)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			body["db_connections"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
