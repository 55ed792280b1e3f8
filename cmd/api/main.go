package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/analyzer"
	"github.com/m1dnxt404/finalyze/internal/api/handlers"
	"github.com/m1dnxt404/finalyze/internal/cache/redis"
	"github.com/m1dnxt404/finalyze/internal/embedding"
	"github.com/m1dnxt404/finalyze/internal/extract"
	"github.com/m1dnxt404/finalyze/internal/extraction"
	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/internal/history/milvus"
	"github.com/m1dnxt404/finalyze/internal/history/sqlite"
	"github.com/m1dnxt404/finalyze/internal/metrics"
	"github.com/m1dnxt404/finalyze/internal/middleware/ratelimit"
	"github.com/m1dnxt404/finalyze/internal/middleware/security"
	"github.com/m1dnxt404/finalyze/internal/providers"
	"github.com/m1dnxt404/finalyze/pkg/config"
	appLogger "github.com/m1dnxt404/finalyze/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting earnings analyzer API server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	var embeddingCache embedding.Cache
	var analysisCache analyzer.AnalysisCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLHours)*time.Hour,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without caching", zap.Error(err))
		} else {
			defer redisClient.Close()
			embeddingCache = redisClient
			analysisCache = redisClient
		}
	}

	embedder := embedding.NewClient(
		os.Getenv("OPENAI_API_KEY"),
		cfg.Embedding.Model,
		embeddingCache,
	)

	store := history.NewStore(sqliteClient, milvusClient, embedder)

	adapter := providers.New(nil)
	engine := extraction.NewEngine(adapter, cfg.LLM.MaxTokens)
	fetcher := extract.NewFetcher(nil)

	orch := analyzer.New(engine, store, analysisCache, analyzer.Options{
		ContextReports: cfg.LLM.ContextReports,
		QueryResults:   cfg.LLM.QueryResults,
		Thresholds:     analyzer.DefaultThresholds(),
	})

	if n, err := store.Count(context.Background()); err == nil {
		metrics.StoredReports.Set(float64(n))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))
	app.Use(requestMetrics())

	limiter := ratelimit.New(ratelimit.Config{
		Logger: appLogger.GetLogger(),
	})
	defer limiter.Stop()

	analysisHandler := handlers.NewAnalysisHandler(orch, fetcher, cfg.LLM.DefaultProvider)
	queryHandler := handlers.NewQueryHandler(orch, cfg.LLM.DefaultProvider)
	historyHandler := handlers.NewHistoryHandler(orch)
	providerHandler := handlers.NewProviderHandler()
	filingsHandler := handlers.NewFilingsHandler(fetcher)

	api := app.Group("/api/v1", limiter.Middleware())

	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Post("/compare", analysisHandler.HandleCompare)
	api.Post("/query", queryHandler.HandleQuery)
	api.Get("/history", historyHandler.HandleListHistory)
	api.Get("/report/:id", historyHandler.HandleGetReport)
	api.Get("/providers", providerHandler.HandleListProviders)
	api.Get("/filings", filingsHandler.HandleSearchFilings)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func requestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		metrics.RequestDuration.WithLabelValues(
			c.Route().Path,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())

		return err
	}
}
