package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardAdvisor/app/echo-server/router"
	"cardAdvisor/business/card"
	"cardAdvisor/business/oracle"
	"cardAdvisor/business/recommendation"
	"cardAdvisor/internal/middleware"
	"cardAdvisor/internal/repository/llm"
	psqlRepo "cardAdvisor/internal/repository/postgres"
	redisRepo "cardAdvisor/internal/repository/redis"
	"cardAdvisor/internal/rest"
	"cardAdvisor/pkg/config"
	"cardAdvisor/pkg/database"
	redisdb "cardAdvisor/pkg/database/redis"
	"cardAdvisor/pkg/logger"
	"cardAdvisor/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting card advisor", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Init repo
	cardRepo := psqlRepo.NewCardRepository(db)
	benefitRepo := psqlRepo.NewBenefitRepository(db)
	merchantRepo := psqlRepo.NewMerchantRepository(db)

	// Init cache
	var cache recommendation.Cache
	var redisClient *goredis.Client
	if cfg.Recommendation.CacheBackend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = redisdb.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		cache = redisRepo.NewRecommendationCache(redisClient)
		logger.Info("Recommendation cache backed by redis")
	}

	// Init oracle; without credentials every card falls back to the heuristic
	var scorer recommendation.ScoringOracle
	if cfg.LLM.Enabled() {
		transport := llm.NewOpenAIRepository(llm.OpenAIConfig{
			Endpoint:     cfg.LLM.Endpoint,
			Model:        cfg.LLM.Model,
			APIKey:       cfg.LLM.APIKey,
			SystemPrompt: cfg.LLM.SystemPrompt,
		}, &http.Client{})
		scorer = oracle.NewClient(oracle.Config{
			APIKey:       cfg.LLM.APIKey,
			Timeout:      cfg.LLM.Timeout,
			RetryBackoff: cfg.LLM.RetryBackoff,
		}, transport)
		logger.Info("Scoring oracle enabled", "model", cfg.LLM.Model)
	} else {
		logger.Warn("Scoring oracle not configured, using heuristic scores")
	}

	// Init service
	recoService := recommendation.NewService(cardRepo, benefitRepo, scorer, cache, recommendation.Config{
		CacheTTL:     cfg.Recommendation.CacheTTL,
		DefaultLimit: cfg.Recommendation.DefaultLimit,
		MaxLimit:     cfg.Recommendation.MaxLimit,
		StreamBuffer: cfg.Recommendation.StreamBuffer,
	})
	streamer := recommendation.NewStreamingRecommender(recoService)
	cardService := card.NewCardService(cardRepo)

	// Init handler
	recoHandler := rest.NewRecommendationHandler(recoService, streamer, merchantRepo, cfg.Server.RequestTimeout)
	cardHandler := rest.NewCardHandler(cardService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))

	// Setup routes
	router.SetupOpsRoutes(e)
	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recoHandler)
	router.SetupCardRoutes(api, cardHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if redisClient != nil {
		if err := redisdb.CloseRedisClient(redisClient); err != nil {
			logger.Error("Redis close error", "error", err)
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
}
