package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-assistant/internal/cache"
	"property-assistant/internal/config"
	"property-assistant/internal/handler"
	"property-assistant/internal/logger"
	"property-assistant/internal/repository"
	"property-assistant/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	zl.Info("Property assistant starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	zl.Info("Connected to PostgreSQL database")

	// Optional localization cache
	var textCache service.TextCache
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedisCache(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		cancel()
		if err != nil {
			zl.Warn("Redis unavailable, localization cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			textCache = rc
			zl.Info("Localization cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	// Initialize OpenAI client
	openaiClient := service.NewOpenAIClient(&cfg.OpenAI, zl)
	zl.Info("OpenAI client initialized",
		zap.String("api_base", cfg.OpenAI.APIBase),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.Bool("assistant_configured", cfg.Assistant.ID != ""))

	// Initialize services
	searchService := service.NewSearchService(service.SearchDeps{
		Classifier: service.NewIntentClassifier(openaiClient, cfg.OpenAI.ChatModel, zl),
		Embedder:   service.NewEmbedder(openaiClient, cfg.OpenAI.EmbeddingDimensions),
		Retriever:  service.NewRetriever(repo, cfg.Search.MatchCount, cfg.Search.MatchThreshold),
		Localizer:  service.NewLocalizer(openaiClient, cfg.OpenAI.ChatModel, cfg.Search.LocalizeMode, textCache, zl),
		Agent:      service.NewAssistant(openaiClient, cfg.Assistant, zl),
		Formatter:  service.NewFormatter(),
		SearchLog:  repo,
	}, cfg.Search, zl)

	zl.Info("Services initialized",
		zap.Int("match_count", cfg.Search.MatchCount),
		zap.Float64("match_threshold", cfg.Search.MatchThreshold),
		zap.String("localize_mode", cfg.Search.LocalizeMode),
		zap.String("response_layout", cfg.Search.ResponseLayout))

	// Initialize handlers
	searchHandler := handler.NewSearchHandler(searchService, zl)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(zl))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "property-assistant",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/search-properties", searchHandler.Search)

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
	zl.Info("Server stopped")
}
