package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"drivedocs/internal/credential"
	"drivedocs/internal/database"
	"drivedocs/internal/http/middleware"
)

// CredentialStatus reports on the stored provider credential without network calls.
type CredentialStatus interface {
	Status() (credential.Status, error)
}

type healthResponse struct {
	Status     string            `json:"status"`
	Credential credential.Status `json:"credential"`
	Database   string            `json:"database"`
}

// HealthCheck godoc
// @Summary Readiness check
// @Description Healthy when a usable credential is stored and, if configured, the registry database answers.
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB, creds CredentialStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := creds.Status()
		if err != nil {
			c.Locals(middleware.ErrorLocalKey, err.Error())
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "credential store unreadable")
		}
		if !st.Present || !st.Scoped || !(st.Valid || st.Refreshable) {
			return writeError(c, fiber.StatusServiceUnavailable, "AUTH_REQUIRED", "no usable provider credential; run `docctl auth`")
		}

		dbState := "disabled"
		if db != nil {
			if err := database.Ping(c.UserContext(), db); err != nil {
				c.Locals(middleware.ErrorLocalKey, err.Error())
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
			dbState = "ok"
		}

		return c.Status(fiber.StatusOK).JSON(healthResponse{
			Status:     "healthy",
			Credential: st,
			Database:   dbState,
		})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
