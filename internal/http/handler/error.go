package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"drivedocs/internal/apperror"
	"drivedocs/internal/http/middleware"
	"drivedocs/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps a service error onto the error envelope. The full
// error is handed to the request logger, never to the client.
func writeServiceError(c *fiber.Ctx, err error) error {
	c.Locals(middleware.ErrorLocalKey, err.Error())

	switch {
	case errors.Is(err, service.ErrValidation):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrRegistryDisabled):
		return writeError(c, fiber.StatusNotImplemented, "REGISTRY_DISABLED", "document registry is not configured")
	}

	switch apperror.KindOf(err) {
	case apperror.ErrAuth:
		return writeError(c, fiber.StatusUnauthorized, "AUTH_REQUIRED", "provider authorization required; run `docctl auth`")
	case apperror.ErrNotFound:
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case apperror.ErrUpload:
		return writeError(c, fiber.StatusBadGateway, "UPLOAD_FAILED", "document upload failed")
	case apperror.ErrExport:
		return writeError(c, fiber.StatusBadGateway, "EXPORT_FAILED", "document export failed")
	case apperror.ErrConfig:
		return writeError(c, fiber.StatusInternalServerError, "CONFIG_ERROR", "server configuration error")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			c.Locals(middleware.ErrorLocalKey, err.Error())
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
