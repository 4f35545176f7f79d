package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// CarHandler handles the car profile endpoints
type CarHandler struct {
	store storage.Store
}

// NewCarHandler creates a new car handler
func NewCarHandler(store storage.Store) *CarHandler {
	return &CarHandler{store: store}
}

type saveCarBody struct {
	CarNumber        string                 `json:"carNumber"`
	CarModel         string                 `json:"carModel"`
	CustomMessage    string                 `json:"customMessage"`
	SelectedTemplate string                 `json:"selectedTemplate"`
	CustomFields     map[string]interface{} `json:"customFields"`
}

// SaveCar handles POST /cars. Upsert: a user's second save replaces their
// existing car profile, never creates a second row.
func (h *CarHandler) SaveCar(c *fiber.Ctx) error {
	var body saveCarBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.CarNumber == "" || body.CarModel == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "Car number and model are required", "INVALID_REQUEST")
	}

	template := body.SelectedTemplate
	if template == "" {
		template = "modern"
	}

	car := &models.Car{
		UserID:           middleware.UserID(c),
		CarNumber:        body.CarNumber,
		CarModel:         body.CarModel,
		CustomMessage:    body.CustomMessage,
		SelectedTemplate: template,
	}
	if err := car.SetCustomFields(body.CustomFields); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid custom fields", "INVALID_REQUEST")
	}

	saved, err := h.store.SaveCar(car)
	if err != nil {
		return serverError(c, "saveCar", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"car":     carPayload(saved),
	})
}

// GetUserCar handles GET /cars/me
func (h *CarHandler) GetUserCar(c *fiber.Ctx) error {
	car, err := h.store.GetCarByUser(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrCarNotFound) {
			return fail(c, fiber.StatusNotFound, "No car information found", "CAR_NOT_FOUND")
		}
		return serverError(c, "getUserCar", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"car":     carPayload(car),
	})
}

// GetCarByQR handles GET /cars/qr/:qrCode. Public: this is what a scanner
// sees. Matches car id or plate number; surfaces owner contact fields only.
func (h *CarHandler) GetCarByQR(c *fiber.Ctx) error {
	identifier := c.Params("qrCode")

	car, err := h.store.GetCarByQR(identifier)
	if err != nil {
		if errors.Is(err, storage.ErrCarNotFound) || errors.Is(err, storage.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "Car not found", "CAR_NOT_FOUND")
		}
		return serverError(c, "getCarByQR", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"car": fiber.Map{
			"id":               car.ID,
			"carNumber":        car.CarNumber,
			"carModel":         car.CarModel,
			"customMessage":    car.CustomMessage,
			"customFields":     car.CustomFieldsMap(),
			"selectedTemplate": car.SelectedTemplate,
			"owner": fiber.Map{
				"phone": car.OwnerPhone,
				"email": car.OwnerEmail,
			},
		},
	})
}

type updateCarBody struct {
	CarNumber        *string                `json:"carNumber"`
	CarModel         *string                `json:"carModel"`
	CustomMessage    *string                `json:"customMessage"`
	SelectedTemplate *string                `json:"selectedTemplate"`
	CustomFields     map[string]interface{} `json:"customFields"`
}

// UpdateCar handles PUT /cars/:carId. Ownership is checked before any
// mutation; only supplied fields change, customFields replaces wholesale.
func (h *CarHandler) UpdateCar(c *fiber.Ctx) error {
	carID := c.Params("carId")

	var body updateCarBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}

	car, err := h.store.GetCarForOwner(carID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrCarNotFound) {
			return fail(c, fiber.StatusNotFound, "Car not found", "CAR_NOT_FOUND")
		}
		return serverError(c, "updateCar", err)
	}

	if body.CarNumber != nil && *body.CarNumber != "" {
		car.CarNumber = *body.CarNumber
	}
	if body.CarModel != nil && *body.CarModel != "" {
		car.CarModel = *body.CarModel
	}
	if body.CustomMessage != nil {
		car.CustomMessage = *body.CustomMessage
	}
	if body.SelectedTemplate != nil && *body.SelectedTemplate != "" {
		car.SelectedTemplate = *body.SelectedTemplate
	}
	if body.CustomFields != nil {
		if err := car.SetCustomFields(body.CustomFields); err != nil {
			return fail(c, fiber.StatusUnprocessableEntity, "Invalid custom fields", "INVALID_REQUEST")
		}
	}

	updated, err := h.store.UpdateCar(car)
	if err != nil {
		return serverError(c, "updateCar", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"car":     carPayload(updated),
	})
}

// carPayload shapes a car for the envelope, with customFields decoded
func carPayload(car *models.Car) fiber.Map {
	return fiber.Map{
		"id":               car.ID,
		"userId":           car.UserID,
		"carNumber":        car.CarNumber,
		"carModel":         car.CarModel,
		"customMessage":    car.CustomMessage,
		"selectedTemplate": car.SelectedTemplate,
		"customFields":     car.CustomFieldsMap(),
		"createdAt":        car.CreatedAt,
		"updatedAt":        car.UpdatedAt,
	}
}
