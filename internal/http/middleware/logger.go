package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
)

// ErrorLocalKey holds the internal error detail a handler chose not to expose
// in the response. The request logger records it.
const ErrorLocalKey = "error_detail"

// Logger logs each HTTP request as one structured line with request_id,
// method, path, status and latency in milliseconds. 5xx responses log at
// error level, 4xx at warn.
func Logger(log hclog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid := RequestIDFrom(c)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		args := []any{
			"request_id", rid,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if detail, ok := c.Locals(ErrorLocalKey).(string); ok && detail != "" {
			args = append(args, "error", detail)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", args...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", args...)
		default:
			log.Info("request", args...)
		}

		return err
	}
}
