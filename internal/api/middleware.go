package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"trading-journal/internal/storage/cache"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/metrics"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_duration_seconds",
		Help: "Duration of HTTP requests.",
	}, []string{"method", "route", "status_code"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status_code"})
)

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := c.Response().StatusCode()

		httpDuration.WithLabelValues(
			c.Method(),
			c.Route().Path,
			fmt.Sprintf("%d", status),
		).Observe(duration)

		httpRequests.WithLabelValues(
			c.Method(),
			c.Route().Path,
			fmt.Sprintf("%d", status),
		).Inc()

		return err
	}
}

func RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               100,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(Response{
				Success: false,
				Error:   "too many requests",
			})
		},
	})
}

func ErrorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if err != nil {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(Response{
				Success: false,
				Error:   message,
			})
		}

		return nil
	}
}

// SessionResolver maps a bearer token to the user it belongs to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// RequireUser resolves the requesting user and stores the id in
// c.Locals("userID"). In header mode the caller is trusted to send
// X-User-ID (a gateway in front handles authentication); in session mode
// the Authorization bearer token is resolved against the shared session
// store.
func RequireUser(mode string, sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID string

		switch mode {
		case "session":
			token := strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer"))
			if token == "" {
				return unauthorized(c, "missing bearer token")
			}

			resolved, err := sessions.ResolveSession(c.Context(), token)
			if err != nil {
				if errors.Is(err, cache.ErrSessionNotFound) {
					metrics.RecordSessionLookup("miss")
					return unauthorized(c, "invalid or expired session")
				}
				metrics.RecordSessionLookup("error")
				logger.Error("session lookup failed", zap.Error(err))
				return c.Status(fiber.StatusInternalServerError).JSON(Response{
					Success: false,
					Error:   "failed to resolve session",
				})
			}
			metrics.RecordSessionLookup("hit")
			userID = resolved

		default:
			userID = c.Get("X-User-ID")
		}

		if userID == "" {
			return unauthorized(c, "user not identified")
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Response{
		Success: false,
		Error:   message,
	})
}

func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		c.Set("X-Request-ID", requestID)
		c.Locals("requestID", requestID)

		return c.Next()
	}
}

func generateRequestID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), randomString(8))
}

func randomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
