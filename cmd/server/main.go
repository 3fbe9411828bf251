package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hartley-studio/service-billing/internal/adapter"
	"github.com/hartley-studio/service-billing/internal/application"
	"github.com/hartley-studio/service-billing/internal/config"
	"github.com/hartley-studio/service-billing/internal/handler"
	"github.com/hartley-studio/service-billing/internal/repository"
	"github.com/hartley-studio/service-billing/pkg/auth"
	"github.com/hartley-studio/service-billing/pkg/database"
	"github.com/hartley-studio/service-billing/pkg/health"
	"github.com/hartley-studio/service-billing/pkg/kafka"
	"github.com/hartley-studio/service-billing/pkg/logger"
	"github.com/hartley-studio/service-billing/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewNamed(cfg.AppEnv, "service-billing")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting service-billing",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.PaymentModel{},
			&repository.GiftCardModel{},
			&repository.PromotionModel{},
			&repository.SyncLogModel{},
		); err != nil {
			zapLogger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		zapLogger.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := cfg.DBConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", zapLogger); err != nil {
			zapLogger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaBrokers, zapLogger)
	defer kafkaProducer.Close()

	// Select the processor adapter: live HTTP when configured, mock otherwise
	var processor adapter.ProcessorAdapter
	if cfg.Processor.Configured() {
		processor = adapter.NewHTTPProcessorAdapter(cfg.Processor.Provider, cfg.Processor.BaseURL, cfg.Processor.AccessToken, zapLogger)
		zapLogger.Info("using live processor adapter", zap.String("provider", cfg.Processor.Provider))
	} else {
		processor = adapter.NewMockProcessorAdapter(zapLogger)
		zapLogger.Warn("processor not configured, using mock adapter")
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	giftCardRepo := repository.NewGormGiftCardRepository(db)
	promotionRepo := repository.NewGormPromotionRepository(db)
	syncLogRepo := repository.NewGormSyncLogRepository(db)

	// Initialize application services
	paymentService := application.NewPaymentService(bookingRepo, paymentRepo, processor, kafkaProducer, zapLogger)
	refundService := application.NewRefundService(paymentRepo, syncLogRepo, processor, kafkaProducer, cfg.Currency, zapLogger)
	giftCardService := application.NewGiftCardService(giftCardRepo, bookingRepo, kafkaProducer, cfg.GiftCardPrefix, zapLogger)
	promotionService := application.NewPromotionService(promotionRepo, bookingRepo, kafkaProducer, zapLogger)
	syncLogService := application.NewSyncLogService(syncLogRepo)

	// Payment links require a configured processor; with the mock the service
	// still works but issues mock URLs.
	var linkProcessor adapter.ProcessorAdapter
	if cfg.Processor.Configured() || cfg.AppEnv == "development" {
		linkProcessor = processor
	}
	paymentLinkService := application.NewPaymentLinkService(bookingRepo, syncLogRepo, linkProcessor, kafkaProducer, zapLogger)

	// Initialize HTTP handlers
	paymentHandler := handler.NewPaymentHandler(paymentService, refundService)
	giftCardHandler := handler.NewGiftCardHandler(giftCardService)
	promotionHandler := handler.NewPromotionHandler(promotionService)
	paymentLinkHandler := handler.NewPaymentLinkHandler(paymentLinkService)
	adminHandler := handler.NewAdminHandler(paymentService, syncLogService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-billing")
	healthHandler.RegisterRoutes(router)

	// Register API routes
	apiV1 := router.Group("/api/v1")
	paymentHandler.RegisterRoutes(apiV1, jwtManager)
	giftCardHandler.RegisterRoutes(apiV1, jwtManager)
	promotionHandler.RegisterRoutes(apiV1, jwtManager)
	paymentLinkHandler.RegisterRoutes(apiV1, jwtManager)
	adminHandler.RegisterRoutes(apiV1, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down service-billing...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("service-billing stopped")
}
