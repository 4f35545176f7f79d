package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// Payment flow errors
var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidSignature = errors.New("payment verification failed")
)

// Defaults matching the premium plan sold in the app
const (
	DefaultPlanAmount   = 49900 // paise
	DefaultPlanCurrency = "INR"
	DefaultPlanDuration = 365 // days
)

// OrderCreator is the slice of the razorpay API the service needs.
// Tests stub it; production uses the razorpay-go client.
type OrderCreator interface {
	CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (orderID string, err error)
}

type razorpayGateway struct {
	client *razorpay.Client
}

func (g *razorpayGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return "", err
	}
	orderID, ok := body["id"].(string)
	if !ok {
		return "", fmt.Errorf("razorpay order response missing id")
	}
	return orderID, nil
}

// UnconfiguredGateway rejects every order. Installed when razorpay
// credentials are absent so the rest of the API still serves.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	return "", errors.New("razorpay credentials not configured")
}

// PaymentService creates gateway orders and verifies signed callbacks
type PaymentService struct {
	store   storage.Store
	gateway OrderCreator
	keyID   string
	secret  string
}

// NewPaymentService reads razorpay credentials from the environment
func NewPaymentService(store storage.Store) (*PaymentService, error) {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	secret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || secret == "" {
		return nil, fmt.Errorf("missing razorpay credentials in environment variables")
	}

	return &PaymentService{
		store:   store,
		gateway: &razorpayGateway{client: razorpay.NewClient(keyID, secret)},
		keyID:   keyID,
		secret:  secret,
	}, nil
}

// NewPaymentServiceWithGateway builds a service with an explicit gateway
// and secret (tests)
func NewPaymentServiceWithGateway(store storage.Store, gateway OrderCreator, keyID, secret string) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, keyID: keyID, secret: secret}
}

// KeyID is the public key the client SDK needs to collect payment
func (p *PaymentService) KeyID() string {
	return p.keyID
}

// CreateOrder opens a gateway order and persists the pending payment row
func (p *PaymentService) CreateOrder(userID string, amount int64, currency string, planDuration int) (*models.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = DefaultPlanCurrency
	}
	if planDuration <= 0 {
		planDuration = DefaultPlanDuration
	}

	receipt := fmt.Sprintf("receipt_%s_%d", userID, time.Now().Unix())
	orderID, err := p.gateway.CreateOrder(amount, currency, receipt, map[string]interface{}{
		"userId":       userID,
		"planDuration": planDuration,
	})
	if err != nil {
		return nil, err
	}

	return p.store.CreatePayment(&models.Payment{
		UserID:       userID,
		OrderID:      orderID,
		Amount:       amount,
		Currency:     currency,
		Status:       models.PaymentStatusPending,
		PlanDuration: planDuration,
	})
}

// VerifySignature recomputes the gateway's HMAC-SHA256 over
// "orderId|paymentId" and compares in constant time. This is the sole
// authenticity check on the callback.
func (p *PaymentService) VerifySignature(orderID, gatewayPaymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(orderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// Payment looks up a payment by the user/order pair
func (p *PaymentService) Payment(userID, orderID string) (*models.Payment, error) {
	return p.store.GetPaymentByOrder(userID, orderID)
}

// CompleteVerifiedPayment flips the pending payment to completed and
// extends the user's premium entitlement, both in one store transaction.
// An already-completed payment returns storage.ErrPaymentCompleted and
// leaves the entitlement untouched.
func (p *PaymentService) CompleteVerifiedPayment(userID, orderID string) (*models.Payment, *models.User, error) {
	payment, err := p.store.GetPaymentByOrder(userID, orderID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	expiry := now.AddDate(0, 0, payment.PlanDuration)
	return p.store.CompletePayment(payment.ID, now, expiry)
}
