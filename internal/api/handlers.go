package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"trading-journal/internal/domain"
	"trading-journal/internal/service"
	"trading-journal/internal/storage"
	"trading-journal/pkg/logger"
)

type Handler struct {
	tradeService    *service.TradeService
	settingsService *service.SettingsService
	metricsService  *service.MetricsService
	backends        map[string]storage.Pinger
}

// NewHandler wires the HTTP layer to the services. backends maps a display
// name (database, redis) to the connection checked by the readiness probe.
func NewHandler(
	tradeService *service.TradeService,
	settingsService *service.SettingsService,
	metricsService *service.MetricsService,
	backends map[string]storage.Pinger,
) *Handler {
	return &Handler{
		tradeService:    tradeService,
		settingsService: settingsService,
		metricsService:  metricsService,
		backends:        backends,
	}
}

func (h *Handler) CreateTrade(c *fiber.Ctx) error {
	trade := new(domain.Trade)
	if err := c.BodyParser(trade); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	trade.UserID = currentUser(c)

	created, err := h.tradeService.Create(c.Context(), trade)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusCreated, created)
}

func (h *Handler) ListTrades(c *fiber.Ctx) error {
	userID := currentUser(c)

	filter, err := tradeFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	trades, err := h.tradeService.List(c.Context(), userID, filter)
	if err != nil {
		return respondError(c, err)
	}

	total, err := h.tradeService.Count(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusOK, TradeListResponse{
		Trades: trades,
		Count:  len(trades),
		Total:  total,
	})
}

func (h *Handler) GetTrade(c *fiber.Ctx) error {
	trade, err := h.tradeService.Get(c.Context(), currentUser(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, trade)
}

func (h *Handler) UpdateTrade(c *fiber.Ctx) error {
	trade := new(domain.Trade)
	if err := c.BodyParser(trade); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	trade.ID = c.Params("id")
	trade.UserID = currentUser(c)

	updated, err := h.tradeService.Update(c.Context(), trade)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusOK, updated)
}

func (h *Handler) DeleteTrade(c *fiber.Ctx) error {
	if err := h.tradeService.Delete(c.Context(), currentUser(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *Handler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.Get(c.Context(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, settings)
}

func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	settings := new(domain.Settings)
	if err := c.BodyParser(settings); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	settings.UserID = currentUser(c)

	updated, err := h.settingsService.Update(c.Context(), settings)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusOK, updated)
}

func (h *Handler) GetMetricsSummary(c *fiber.Ctx) error {
	filter, err := tradeFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	summary, err := h.metricsService.Summary(
		c.Context(),
		currentUser(c),
		filter,
		c.Query("timeframe"),
	)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusOK, summary)
}

func (h *Handler) GetMetricsPerformance(c *fiber.Ctx) error {
	filter, err := tradeFilterFromQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	performance, err := h.metricsService.Performance(
		c.Context(),
		currentUser(c),
		domain.Period(c.Query("period")),
		filter,
	)
	if err != nil {
		return respondError(c, err)
	}

	return ok(c, fiber.StatusOK, performance)
}

func (h *Handler) GetMetricsInstruments(c *fiber.Ctx) error {
	performance, err := h.metricsService.Instruments(c.Context(), currentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.StatusOK, performance)
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	for name, backend := range h.backends {
		start := time.Now()
		if err := backend.HealthCheck(ctx); err != nil {
			services[name] = ServiceHealth{
				Status: "unhealthy",
				Error:  err.Error(),
			}
		} else {
			services[name] = ServiceHealth{
				Status:  "healthy",
				Latency: time.Since(start).String(),
			}
		}
	}

	status := "ready"
	for _, service := range services {
		if service.Status != "healthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  services,
	}

	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}

func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Data:    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{
		Success: false,
		Error:   message,
	})
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalid):
		return fail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return fail(c, fiber.StatusNotFound, storage.ErrNotFound.Error())
	default:
		logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// tradeFilterFromQuery reads the shared filter params. The end date covers
// the whole named day since trades carry full timestamps.
func tradeFilterFromQuery(c *fiber.Ctx) (domain.TradeFilter, error) {
	filter := domain.TradeFilter{
		InstrumentType: c.Query("instrumentType"),
		InstrumentName: c.Query("instrumentName"),
		Limit:          c.QueryInt("limit", 0),
		Offset:         c.QueryInt("offset", 0),
	}

	start, err := parseDateQuery(c, "startDate")
	if err != nil {
		return filter, err
	}
	filter.StartDate = start

	end, err := parseDateQuery(c, "endDate")
	if err != nil {
		return filter, err
	}
	if end != nil {
		inclusive := end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &inclusive
	}

	return filter, nil
}

func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must use the format YYYY-MM-DD", service.ErrInvalid, name)
	}
	return &parsed, nil
}

func currentUser(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}

func getRequestID(c *fiber.Ctx) string {
	if id := c.Locals("requestID"); id != nil {
		return id.(string)
	}
	return ""
}
