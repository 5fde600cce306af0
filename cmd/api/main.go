package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/eroland11241988/insightlm/internal/api/handlers"
	"github.com/eroland11241988/insightlm/internal/cache/redis"
	"github.com/eroland11241988/insightlm/internal/diagnostics"
	"github.com/eroland11241988/insightlm/internal/metrics"
	"github.com/eroland11241988/insightlm/internal/middleware/ratelimit"
	"github.com/eroland11241988/insightlm/internal/middleware/security"
	"github.com/eroland11241988/insightlm/internal/realtime"
	"github.com/eroland11241988/insightlm/internal/relay"
	"github.com/eroland11241988/insightlm/internal/storage/postgrest"
	"github.com/eroland11241988/insightlm/internal/vector/milvus"
	"github.com/eroland11241988/insightlm/pkg/config"
	appLogger "github.com/eroland11241988/insightlm/pkg/logger"
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

	appLogger.Info("Starting InsightLM chat relay")

	metrics.Init()

	storageClient := postgrest.NewClient(
		cfg.Storage.URL,
		cfg.Storage.ServiceKey,
		time.Duration(cfg.Storage.TimeoutSec)*time.Second,
	)

	var vectorClient *milvus.Client
	if cfg.Vector.Enabled {
		vectorClient, err = milvus.NewClient(cfg.Vector.Endpoint, cfg.Vector.Collection)
		if err != nil {
			appLogger.Fatal("Failed to create vector index client", zap.Error(err))
		}
		defer vectorClient.Close()
	}

	var counters *redis.Client
	if cfg.Redis.Enabled {
		counters, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Failed to connect to redis, outcome counters disabled", zap.Error(err))
			counters = nil
		} else {
			defer counters.Close()
		}
	}

	hub := realtime.NewHub()

	checker := relay.NewChecker(storageClient)
	recorder := relay.NewRecorder(storageClient, hub)
	dispatcher := relay.NewDispatcher(
		cfg.Webhook.URL,
		cfg.Webhook.AuthToken,
		cfg.Webhook.ErrorSignature,
		time.Duration(cfg.Webhook.TimeoutSec)*time.Second,
	)
	orchestrator := relay.NewOrchestrator(cfg, checker, recorder, dispatcher, counters)

	var counter diagnostics.DocumentCounter
	if vectorClient != nil {
		counter = vectorClient
	}
	aggregator := diagnostics.NewAggregator(cfg, storageClient, counter)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)
		c.Locals("request_id", requestID)
		return c.Next()
	})
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	chatHandler := handlers.NewChatHandler(orchestrator)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(aggregator)
	wsHandler := handlers.NewWebSocketHandler(hub)

	api := app.Group("/api/v1")

	api.Options("/chat/send", chatHandler.Preflight)
	api.Post("/chat/send", limiter.Middleware(), chatHandler.SendMessage)

	api.Options("/chat/diagnostics", diagnosticsHandler.Preflight)
	api.Post("/chat/diagnostics", diagnosticsHandler.Diagnose)

	app.Get("/ws/chat/:sessionId", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

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
