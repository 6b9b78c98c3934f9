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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"budgetly/internal/config"
	"budgetly/internal/database"
	_ "budgetly/internal/docs" // Import swagger docs
	"budgetly/internal/events"
	"budgetly/internal/handlers"
	"budgetly/internal/logger"
	"budgetly/internal/middleware"
	"budgetly/internal/services"
	"budgetly/internal/validator"
)

// @title           Budgetly API
// @version         1.0
// @description     Budgetly records expenses, tracks them against a single active budget and summarizes spending. Money and percentage values are exact decimal strings with trailing zeros trimmed, e.g. "42.5" or "1500".
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Event publishers
	hub := events.NewHub()
	publisher, err := newPublisher(appConfig, hub)
	if err != nil {
		return fmt.Errorf("failed to set up event publishers: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnf("event publisher close error: %v", err)
		}
	}()

	// Initialize services
	db := dbManager.DB()
	expenseService := services.NewExpenseService(db, services.SystemClock, publisher)
	budgetService := services.NewBudgetService(db, services.SystemClock, publisher)
	dashboardService := services.NewDashboardService(expenseService, budgetService, services.SystemClock, services.ViewLimits{
		RecentExpenses: appConfig.RecentExpensesLimit,
		TopCategories:  appConfig.TopCategoriesLimit,
		BudgetHistory:  appConfig.BudgetHistoryLimit,
	})
	auditService := services.NewAuditService(db)

	// Initialize handlers
	routes := handlers.Routes{
		Expenses:  handlers.NewExpenseHandler(expenseService, dashboardService, auditService),
		Budgets:   handlers.NewBudgetHandler(budgetService, dashboardService, auditService),
		Dashboard: handlers.NewDashboardHandler(dashboardService, auditService),
		Feed:      handlers.NewFeedHandler(hub),
	}

	// Initialize Gin router
	validator.Register()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging("/api/health"))
	router.Use(middleware.CORS(appConfig.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "websocket_clients": hub.Sessions()})
	})

	routes.Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Budgetly server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	// Websocket sessions are hijacked connections, so Shutdown does not wait on them.
	if err := hub.Close(); err != nil {
		log.Warnf("websocket hub close error: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newPublisher combines the websocket hub with the brokers that are
// configured.
func newPublisher(cfg *config.Config, hub *events.Hub) (events.Publisher, error) {
	publishers := events.Multi{hub}

	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
		logger.Get().Infow("Kafka event publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = publishers.Close()
			return nil, err
		}
		publishers = append(publishers, p)
		logger.Get().Infow("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
	}

	return publishers, nil
}
