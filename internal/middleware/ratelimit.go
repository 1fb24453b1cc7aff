package middleware

import (
	"strconv"
	"time"

	"wms-backend/internal/auth"
	"wms-backend/internal/config"
	"wms-backend/internal/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

const (
	rateWindow        = time.Minute
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// clientKey identifies the caller by user id when authenticated, else by IP.
func clientKey(c *fiber.Ctx) string {
	if id, ok := c.Locals(auth.CtxUserIDKey).(uuid.UUID); ok {
		return "user:" + id.String()
	}
	return "ip:" + c.IP()
}

func limitReached(c *fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rateWindow.Seconds())))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":      i18n.T("rate_limit_exceeded"),
		"error_code": RateLimitExceeded,
	})
}

func passThrough(c *fiber.Ctx) error { return c.Next() }

func newLimiter(cfg config.RateLimitConfig, max int, key func(*fiber.Ctx) string, skip func(*fiber.Ctx) bool) fiber.Handler {
	if !cfg.Enabled || max <= 0 {
		return passThrough
	}
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   rateWindow,
		KeyGenerator: key,
		LimitReached: limitReached,
		Next:         skip,
	})
}

func isRead(c *fiber.Ctx) bool {
	m := c.Method()
	return m == fiber.MethodGet || m == fiber.MethodHead || m == fiber.MethodOptions
}

// AuthLimiter guards login and token endpoints per client IP.
func AuthLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(cfg, cfg.Auth, func(c *fiber.Ctx) string { return "ip:" + c.IP() }, nil)
}

// ReadLimiter counts only safe methods.
func ReadLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(cfg, cfg.Read, clientKey, func(c *fiber.Ctx) bool { return !isRead(c) })
}

// WriteLimiter counts only mutating methods.
func WriteLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(cfg, cfg.Write, clientKey, isRead)
}

func BulkLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(cfg, cfg.Bulk, clientKey, nil)
}

func ReportsLimiter(cfg config.RateLimitConfig) fiber.Handler {
	return newLimiter(cfg, cfg.Reports, clientKey, nil)
}
