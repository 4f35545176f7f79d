package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// UserHandler handles profile reads and updates
type UserHandler struct {
	store storage.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store) *UserHandler {
	return &UserHandler{store: store}
}

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.store.GetUser(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		}
		return serverError(c, "getProfile", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type updateTemplateBody struct {
	TemplateID string `json:"templateId"`
}

// UpdateTemplate handles PUT /users/me/template
func (h *UserHandler) UpdateTemplate(c *fiber.Ctx) error {
	var body updateTemplateBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if !models.IsValidTemplate(body.TemplateID) {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid template ID", "INVALID_TEMPLATE")
	}

	user, err := h.store.UpdateUserTemplate(middleware.UserID(c), body.TemplateID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		}
		return serverError(c, "updateTemplate", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type upgradePremiumBody struct {
	PlanDuration int `json:"planDuration"`
}

// UpgradePremium handles POST /users/me/upgrade-premium. Direct grant
// path kept from the original app; the paid path goes through the
// payment verification flow.
func (h *UserHandler) UpgradePremium(c *fiber.Ctx) error {
	var body upgradePremiumBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.PlanDuration <= 0 {
		body.PlanDuration = 365
	}

	expiry := time.Now().AddDate(0, 0, body.PlanDuration)
	user, err := h.store.UpgradeUserToPremium(middleware.UserID(c), expiry)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		}
		return serverError(c, "upgradePremium", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
