package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"trading-journal/internal/api"
	"trading-journal/internal/config"
	"trading-journal/internal/service"
	"trading-journal/internal/storage"
	"trading-journal/internal/storage/cache"
	"trading-journal/internal/storage/mongo"
	"trading-journal/internal/storage/postgres"
	"trading-journal/internal/trace"
	pkglogger "trading-journal/pkg/logger"
)

// @title Trading Journal API
// @version 1.0
// @description Backend API for a personal trading journal: trade records, account settings and performance metrics.

// @contact.name API Support

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
func main() {
	godotenv.Load()

	cfg := config.Load()

	if err := pkglogger.Init(cfg.LogLevel, cfg.Environment == "development"); err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer pkglogger.Close()

	if err := trace.Init(cfg.TracingEnabled); err != nil {
		log.Fatal("failed to initialize tracing:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		trace.Shutdown(ctx)
	}()

	trades, settings, backends, closeStorage, err := connectStorage(cfg)
	if err != nil {
		log.Fatal("failed to connect storage:", err)
	}
	defer closeStorage()

	auth := api.RequireUser(cfg.AuthMode, nil)
	if cfg.AuthMode == "session" {
		sessions, err := cache.New(cfg)
		if err != nil {
			log.Fatal("failed to connect Redis for session auth:", err)
		}
		defer sessions.Close()

		backends["redis"] = sessions
		auth = api.RequireUser(cfg.AuthMode, sessions)
		log.Println("✅ Connected to Redis (session auth)")
	}

	// Services
	tradeService := service.NewTradeService(trades, cfg.DefaultListLimit, cfg.MaxListLimit)
	settingsService := service.NewSettingsService(settings)
	metricsService := service.NewMetricsService(trades, settingsService)

	// Handler
	handler := api.NewHandler(tradeService, settingsService, metricsService, backends)

	// Fiber app
	app := fiber.New(fiber.Config{
		Prefork:                 false,
		ServerHeader:            "Trading-Journal",
		DisableStartupMessage:   false,
		AppName:                 "Trading Journal API v1.0.0",
		ReadTimeout:             cfg.APIReadTimeout,
		WriteTimeout:            cfg.APIWriteTimeout,
		IdleTimeout:             120 * time.Second,
		ReadBufferSize:          8192,
		WriteBufferSize:         8192,
		CompressedFileSuffix:    ".gz",
		ProxyHeader:             "X-Forwarded-For",
		EnableTrustedProxyCheck: true,
		BodyLimit:               1 * 1024 * 1024, // 1MB
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-User-ID",
	}))

	// Setup routes
	api.SetupRoutes(app, handler, auth)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("Starting server on %s (storage driver: %s)", addr, cfg.StorageDriver)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Server error:", err)
	}
}

// connectStorage opens the configured driver and returns the stores plus a
// map of connections for the readiness probe.
func connectStorage(cfg *config.Config) (storage.TradeStore, storage.SettingsStore, map[string]storage.Pinger, func(), error) {
	backends := make(map[string]storage.Pinger)

	switch cfg.StorageDriver {
	case "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to open PostgreSQL pool: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}

		log.Println("✅ Connected to PostgreSQL")
		backends["database"] = db
		return postgres.NewTradeStore(db), postgres.NewSettingsStore(db), backends, db.Close, nil

	case "mongo":
		store, err := mongo.NewStore(cfg)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to connect MongoDB: %w", err)
		}

		log.Println("✅ Connected to MongoDB")
		backends["database"] = store
		closer := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			store.Close(ctx)
		}
		return store.Trades(), store.Settings(), backends, closer, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
