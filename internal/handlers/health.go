package handlers

import "github.com/gofiber/fiber/v2"

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Ping    func() error
}

// NewHealthHandler creates a new health handler. Ping is nil when no
// database is configured (memory-store runs report healthy).
func NewHealthHandler(version string, ping func() error) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Ping:    ping,
	}
}

// Check returns the health status of the service and its database
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK

	if h.Ping != nil && h.Ping() != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"service": "CarQR Backend",
		"version": h.Version,
		"services": fiber.Map{
			"database": status == "healthy",
		},
	})
}
