package middleware

import (
	"time"

	"github.com/PeXusQ/Gallery-Project/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status_code": statusCode,
			"latency_ms":  time.Since(start).Milliseconds(),
			"ip":          c.IP(),
			"request_id":  requestID,
		}

		if user := GetCurrentUser(c); user != nil {
			if statusCode >= 500 {
				logger.ErrorWithUser(user.Username, "http_request", err, details)
			} else {
				logger.InfoWithUser(user.Username, "http_request", details)
			}
		} else {
			if statusCode >= 500 {
				logger.Error("http_request", err, details)
			} else {
				logger.Info("http_request", details)
			}
		}

		return err
	}
}

// SecurityLogger records denied and missing-resource responses so ownership
// probing shows up in the logs.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		statusCode := c.Response().StatusCode()
		if statusCode != fiber.StatusForbidden && statusCode != fiber.StatusNotFound {
			return err
		}

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"status": statusCode,
		}

		if user := GetCurrentUser(c); user != nil {
			logger.WarnWithUser(user.Username, "access_denied", details)
		} else {
			logger.Warn("access_denied_unauthenticated", details)
		}

		return err
	}
}
