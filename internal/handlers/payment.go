package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// PaymentHandler handles razorpay order creation and verification
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentBody struct {
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	PlanDuration int    `json:"planDuration"`
}

// CreatePayment handles POST /payments/razorpay/create
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	body := createPaymentBody{
		Amount:       services.DefaultPlanAmount,
		Currency:     services.DefaultPlanCurrency,
		PlanDuration: services.DefaultPlanDuration,
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}

	userID := middleware.UserID(c)
	payment, err := h.payments.CreateOrder(userID, body.Amount, body.Currency, body.PlanDuration)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAmount) {
			return fail(c, fiber.StatusUnprocessableEntity, "Amount must be positive", "INVALID_REQUEST")
		}
		return serverError(c, "createPayment", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": fiber.Map{
			"id":         payment.ID,
			"orderId":    payment.OrderID,
			"amount":     payment.Amount,
			"currency":   payment.Currency,
			"key":        h.payments.KeyID(),
			"customerId": userID,
		},
	})
}

type verifyPaymentBody struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// VerifyPayment handles POST /payments/razorpay/verify. The HMAC check is
// the sole authenticity gate; only after it passes does the store flip the
// pending payment and extend the premium entitlement, atomically.
func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var body verifyPaymentBody
	if err := c.BodyParser(&body); err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, "Invalid request body", "INVALID_REQUEST")
	}
	if body.PaymentID == "" || body.OrderID == "" || body.Signature == "" {
		return fail(c, fiber.StatusUnprocessableEntity, "Missing payment details", "INVALID_REQUEST")
	}

	if err := h.payments.VerifySignature(body.OrderID, body.PaymentID, body.Signature); err != nil {
		return fail(c, fiber.StatusBadRequest, "Payment verification failed", "INVALID_SIGNATURE")
	}

	userID := middleware.UserID(c)
	payment, user, err := h.payments.CompleteVerifiedPayment(userID, body.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPaymentNotFound):
			return fail(c, fiber.StatusNotFound, "Payment not found", "PAYMENT_NOT_FOUND")
		case errors.Is(err, storage.ErrPaymentCompleted):
			// Replayed callback for a payment already settled: no-op, the
			// entitlement is not extended again.
			existing, lookupErr := h.payments.Payment(userID, body.OrderID)
			if lookupErr != nil {
				return serverError(c, "verifyPayment", lookupErr)
			}
			return c.JSON(fiber.Map{
				"success":         true,
				"alreadyVerified": true,
				"payment":         existing,
			})
		default:
			return serverError(c, "verifyPayment", err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": fiber.Map{
			"id":                payment.ID,
			"userId":            payment.UserID,
			"status":            payment.Status,
			"amount":            payment.Amount,
			"planDuration":      payment.PlanDuration,
			"premiumExpiryDate": user.PremiumExpiryDate,
			"verifiedAt":        payment.VerifiedAt,
		},
	})
}
