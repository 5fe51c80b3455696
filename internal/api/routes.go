package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, handler *Handler, auth fiber.Handler) {
	// Global middlewares
	app.Use(RequestID())
	app.Use(ErrorHandler())

	// Health checks (no rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	// Prometheus metrics endpoint (no rate limiting)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation (no rate limiting)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 - rate limited, measured, and scoped to the resolved user
	v1 := app.Group("/api/v1")
	v1.Use(RateLimiter())
	v1.Use(PrometheusMiddleware())
	v1.Use(auth)

	// Trade routes
	trades := v1.Group("/trades")
	trades.Post("/", handler.CreateTrade)
	trades.Get("/", handler.ListTrades)
	trades.Get("/:id", handler.GetTrade)
	trades.Put("/:id", handler.UpdateTrade)
	trades.Delete("/:id", handler.DeleteTrade)

	// Settings routes
	settings := v1.Group("/settings")
	settings.Get("/", handler.GetSettings)
	settings.Put("/", handler.UpdateSettings)

	// Metrics routes
	journalMetrics := v1.Group("/metrics")
	journalMetrics.Get("/summary", handler.GetMetricsSummary)
	journalMetrics.Get("/performance", handler.GetMetricsPerformance)
	journalMetrics.Get("/instruments", handler.GetMetricsInstruments)
}
