package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// AuthHandler handles the OTP flow, email login and token refresh
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type requestOTPBody struct {
	Phone string `json:"phone"`
}

// RequestOTP handles POST /auth/otp/request
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var body requestOTPBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}

	sessionID, expiresIn, err := h.auth.RequestOTP(c.Context(), body.Phone)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPhone) {
			return fail(c, fiber.StatusUnprocessableEntity, "Invalid phone number format", "INVALID_PHONE")
		}
		return serverError(c, "requestOTP", err)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "OTP sent to your phone",
		"expiresIn": expiresIn,
		"sessionId": sessionID,
	})
}

type verifyOTPBody struct {
	Phone     string `json:"phone"`
	OTP       string `json:"otp"`
	Email     string `json:"email"`
	SessionID string `json:"sessionId"`
}

// VerifyOTP handles POST /auth/otp/verify
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var body verifyOTPBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.Phone == "" || body.OTP == "" || body.SessionID == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "Missing required fields", "INVALID_REQUEST")
	}

	user, pair, err := h.auth.VerifyOTP(c.Context(), body.Phone, body.OTP, body.SessionID, body.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSession):
			return fail(c, fiber.StatusUnauthorized, "Invalid session", "INVALID_SESSION")
		case errors.Is(err, services.ErrInvalidOTP):
			return fail(c, fiber.StatusUnauthorized, "Invalid or expired OTP", "INVALID_OTP")
		default:
			return serverError(c, "verifyOTP", err)
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"user":         user,
		"token":        pair.Token,
		"refreshToken": pair.RefreshToken,
	})
}

type emailLoginBody struct {
	Email string `json:"email"`
}

// EmailLogin handles POST /auth/email/login
func (h *AuthHandler) EmailLogin(c *fiber.Ctx) error {
	var body emailLoginBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}

	user, pair, err := h.auth.EmailLogin(body.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			return fail(c, fiber.StatusUnprocessableEntity, "Invalid email format", "INVALID_EMAIL")
		case errors.Is(err, storage.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, "User not found", "USER_NOT_FOUND")
		default:
			return serverError(c, "emailLogin", err)
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"user":         user,
		"token":        pair.Token,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout handles POST /auth/logout. Stateless acknowledgement; token
// blacklisting is out of scope.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var body refreshBody
	if err := c.BodyParser(&body); err != nil || body.RefreshToken == "" {
		return fail(c, fiber.StatusUnauthorized, "No refresh token provided", "UNAUTHORIZED")
	}

	pair, err := h.auth.Refresh(body.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken),
			errors.Is(err, services.ErrExpiredToken),
			errors.Is(err, storage.ErrUserNotFound):
			return fail(c, fiber.StatusUnauthorized, "Invalid refresh token", "UNAUTHORIZED")
		default:
			return serverError(c, "refreshToken", err)
		}
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"token":        pair.Token,
		"refreshToken": pair.RefreshToken,
	})
}

// fail writes the error envelope shared by every endpoint
func fail(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// serverError logs the cause and hides it behind a generic envelope
func serverError(c *fiber.Ctx, op string, err error) error {
	log.Printf("❌ %s error: %v", op, err)
	return fail(c, fiber.StatusInternalServerError, "Server error", "SERVER_ERROR")
}
