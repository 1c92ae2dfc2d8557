package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/operantis/backoffice-api/internal/cache"
	"github.com/operantis/backoffice-api/internal/config"
	"github.com/operantis/backoffice-api/internal/database"
	"github.com/operantis/backoffice-api/internal/handler"
	"github.com/operantis/backoffice-api/internal/middleware"
	"github.com/operantis/backoffice-api/internal/repository"
	"github.com/operantis/backoffice-api/internal/service"
	"github.com/operantis/backoffice-api/internal/sse"
	"github.com/operantis/backoffice-api/internal/utils"
	"github.com/operantis/backoffice-api/internal/worker"
)

// main is the application entrypoint for the back-office API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting backoffice api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	promoCache := cache.NewPromoCache(redisClient)

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	promotionRepo := repository.NewPromotionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 5. Initialize SSE hub
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6. Initialize services
	authSvc := service.NewAuthService(userRepo)
	discountSvc := service.NewDiscountService(discountRepo, promoCache)
	promotionSvc := service.NewPromotionService(promotionRepo, promoCache)
	notificationSvc := service.NewNotificationService(notificationRepo, notifier)
	saleSvc := service.NewSaleService(
		saleRepo,
		productRepo,
		customerRepo,
		discountSvc,
		promotionSvc,
		notificationSvc,
		cfg.Sale,
	)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(db),
		Auth:         handler.NewAuthHandler(authSvc),
		Product:      handler.NewProductHandler(productRepo),
		Discount:     handler.NewDiscountHandler(discountSvc),
		Promotion:    handler.NewPromotionHandler(promotionSvc),
		Sale:         handler.NewSaleHandler(saleSvc),
		Notification: handler.NewNotificationHandler(notificationRepo),
		SSE:          handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewRetentionWorker(
		notificationRepo,
		cfg.Worker.NotificationSweepInterval,
		cfg.Worker.NotificationRetention,
	).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Discount     *handler.DiscountHandler
	Promotion    *handler.PromotionHandler
	Sale         *handler.SaleHandler
	Notification *handler.NotificationHandler
	SSE          *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/api/health", handlers.Health.GetHealth)
	router.POST("/api/auth/login", handlers.Auth.Login)

	// SSE stream authenticates via query param inside the handler.
	router.GET("/api/notifications/stream", handlers.SSE.Stream)

	api := router.Group("/api")
	api.Use(jwtMiddleware.Handle())
	{
		api.GET("/products", handlers.Product.GetProducts)
		api.POST("/products", handlers.Product.CreateProduct)
		api.GET("/products/:id", handlers.Product.GetProduct)
		api.PUT("/products/:id", handlers.Product.UpdateProduct)
		api.DELETE("/products/:id", handlers.Product.DeleteProduct)

		api.GET("/discounts", handlers.Discount.GetDiscounts)
		api.POST("/discounts", handlers.Discount.CreateDiscount)
		api.GET("/discounts/:id", handlers.Discount.GetDiscount)
		api.PUT("/discounts/:id", handlers.Discount.UpdateDiscount)
		api.DELETE("/discounts/:id", handlers.Discount.DeleteDiscount)

		api.GET("/promotions", handlers.Promotion.GetPromotions)
		api.POST("/promotions", handlers.Promotion.CreatePromotion)
		api.GET("/promotions/:id", handlers.Promotion.GetPromotion)
		api.PUT("/promotions/:id", handlers.Promotion.UpdatePromotion)
		api.DELETE("/promotions/:id", handlers.Promotion.DeletePromotion)

		api.GET("/sales", handlers.Sale.GetSales)
		api.POST("/sales", handlers.Sale.CreateSale)
		api.GET("/sales/:id", handlers.Sale.GetSale)
		api.DELETE("/sales/:id", handlers.Sale.DeleteSale)

		api.GET("/notifications", handlers.Notification.GetNotifications)
		api.GET("/notifications/unread", handlers.Notification.GetUnreadNotifications)
		api.PUT("/notifications/read-all", handlers.Notification.MarkAllRead)
		api.PUT("/notifications/:id/read", handlers.Notification.MarkRead)
		api.DELETE("/notifications/:id", handlers.Notification.DeleteNotification)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
