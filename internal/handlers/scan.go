package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// ScanHandler handles scan logging and history
type ScanHandler struct {
	store storage.Store
}

// NewScanHandler creates a new scan handler
func NewScanHandler(store storage.Store) *ScanHandler {
	return &ScanHandler{store: store}
}

type logScanBody struct {
	CarID        string  `json:"carId"`
	ScannerPhone string  `json:"scannerPhone"`
	ScannerEmail string  `json:"scannerEmail"`
	Notes        *string `json:"notes"`
}

// LogScan handles POST /scans. Public: scanners are usually not
// registered users. Every call appends a new immutable event.
func (h *ScanHandler) LogScan(c *fiber.Ctx) error {
	var body logScanBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.CarID == "" || body.ScannerPhone == "" || body.ScannerEmail == "" {
		return fail(c, fiber.StatusUnprocessableEntity,
			"Missing required fields: carId, scannerPhone, scannerEmail", "INVALID_REQUEST")
	}

	scan, err := h.store.CreateScan(&models.ScanEvent{
		CarID:        body.CarID,
		ScannerPhone: body.ScannerPhone,
		ScannerEmail: body.ScannerEmail,
		Notes:        body.Notes,
	})
	if err != nil {
		return serverError(c, "logScan", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"activity": scan,
	})
}

// GetScanHistory handles GET /scans/:carId/scans for the car's owner
func (h *ScanHandler) GetScanHistory(c *fiber.Ctx) error {
	carID := c.Params("carId")

	// Ownership gate before any history is exposed
	if _, err := h.store.GetCarForOwner(carID, middleware.UserID(c)); err != nil {
		if errors.Is(err, storage.ErrCarNotFound) {
			return fail(c, fiber.StatusNotFound, "Car not found", "CAR_NOT_FOUND")
		}
		return serverError(c, "getScanHistory", err)
	}

	filter := models.ScanFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if from := c.Query("from"); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &ts
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &ts
		}
	}

	scans, total, err := h.store.GetScansByCar(carID, filter)
	if err != nil {
		return serverError(c, "getScanHistory", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"scans":   scans,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  filter.Limit,
			"offset": filter.Offset,
		},
	})
}
