package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// QRHandler handles QR generation and lookup
type QRHandler struct {
	store storage.Store
	qr    *services.QRService
}

// NewQRHandler creates a new QR handler
func NewQRHandler(store storage.Store, qr *services.QRService) *QRHandler {
	return &QRHandler{store: store, qr: qr}
}

type generateQRBody struct {
	CarID  string `json:"carId"`
	Size   string `json:"size"`
	Format string `json:"format"`
}

// GenerateQR handles POST /qr/generate. Persists the record first; a
// render failure is logged and surfaced as a null image, not an error.
func (h *QRHandler) GenerateQR(c *fiber.Ctx) error {
	body := generateQRBody{Size: "3x3", Format: "pdf"}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.CarID == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "carId is required", "INVALID_REQUEST")
	}
	if !models.IsValidQRSize(body.Size) || !models.IsValidQRFormat(body.Format) {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid size or format", "INVALID_REQUEST")
	}

	if _, err := h.store.GetCarForOwner(body.CarID, middleware.UserID(c)); err != nil {
		if errors.Is(err, storage.ErrCarNotFound) {
			return fail(c, fiber.StatusNotFound, "Car not found", "CAR_NOT_FOUND")
		}
		return serverError(c, "generateQR", err)
	}

	qrValue := h.qr.ValueForCar(body.CarID)
	record, err := h.store.CreateQRCode(&models.QRCode{
		CarID:   body.CarID,
		Size:    body.Size,
		Format:  body.Format,
		QRValue: qrValue,
	})
	if err != nil {
		return serverError(c, "generateQR", err)
	}

	var qrDataURL interface{}
	if dataURL, err := h.qr.RenderDataURL(qrValue, body.Format); err != nil {
		log.Printf("❌ QR render failed for %s: %v", record.ID, err)
		qrDataURL = nil
	} else {
		qrDataURL = dataURL
	}

	return c.JSON(fiber.Map{
		"success": true,
		"qr": fiber.Map{
			"id":          record.ID,
			"carId":       record.CarID,
			"size":        record.Size,
			"format":      record.Format,
			"qrValue":     record.QRValue,
			"qrDataUrl":   qrDataURL,
			"downloadUrl": h.qr.DownloadURL(record.ID, record.Format),
			"createdAt":   record.CreatedAt,
		},
	})
}

// GetQRCode handles GET /qr/:qrId. Public; returns the record and a
// download URL without re-rendering the image.
func (h *QRHandler) GetQRCode(c *fiber.Ctx) error {
	qrID := c.Params("qrId")

	record, err := h.store.GetQRCode(qrID)
	if err != nil {
		if errors.Is(err, storage.ErrQRNotFound) {
			return fail(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND")
		}
		return serverError(c, "getQRCode", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"qr": fiber.Map{
			"id":          record.ID,
			"carId":       record.CarID,
			"size":        record.Size,
			"format":      record.Format,
			"qrValue":     record.QRValue,
			"downloadUrl": h.qr.DownloadURL(record.ID, record.Format),
			"createdAt":   record.CreatedAt,
		},
	})
}
