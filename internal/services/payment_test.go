package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// stubGateway hands out sequential order ids without touching the network
type stubGateway struct {
	orders     int
	lastAmount int64
}

func (g *stubGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.orders++
	g.lastAmount = amount
	return "order_test_1", nil
}

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestPaymentService() (*PaymentService, *storage.MemoryStore, *stubGateway) {
	store := storage.NewMemoryStore()
	gateway := &stubGateway{}
	return NewPaymentServiceWithGateway(store, gateway, "rzp_test_key", "test-secret"), store, gateway
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	svc, _, gateway := newTestPaymentService()

	if _, err := svc.CreateOrder("user_1", 0, "INR", 365); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.CreateOrder("user_1", -100, "INR", 365); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if gateway.orders != 0 {
		t.Fatal("gateway must not be called for invalid amounts")
	}
}

func TestCreateOrderPersistsPendingPayment(t *testing.T) {
	svc, store, _ := newTestPaymentService()

	payment, err := svc.CreateOrder("user_1", 49900, "", 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("expected pending, got %q", payment.Status)
	}
	if payment.Currency != DefaultPlanCurrency || payment.PlanDuration != DefaultPlanDuration {
		t.Fatalf("expected defaults applied, got %+v", payment)
	}

	stored, err := store.GetPaymentByOrder("user_1", payment.OrderID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.ID != payment.ID {
		t.Fatalf("expected stored row %s, got %s", payment.ID, stored.ID)
	}
}

func TestVerifySignature(t *testing.T) {
	svc, _, _ := newTestPaymentService()

	good := signPayload("test-secret", "order_test_1", "pay_gw_1")
	if err := svc.VerifySignature("order_test_1", "pay_gw_1", good); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	tampered := signPayload("test-secret", "order_test_1", "pay_gw_2")
	if err := svc.VerifySignature("order_test_1", "pay_gw_1", tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	forged := signPayload("wrong-secret", "order_test_1", "pay_gw_1")
	if err := svc.VerifySignature("order_test_1", "pay_gw_1", forged); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for wrong secret, got %v", err)
	}
}

func TestCompleteVerifiedPaymentUpgradesUser(t *testing.T) {
	svc, store, _ := newTestPaymentService()

	user, err := store.CreateUser(&models.User{Email: "me@example.com", Phone: "9876543210"})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	created, err := svc.CreateOrder(user.ID, 49900, "INR", 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	before := time.Now()
	payment, upgraded, err := svc.CompleteVerifiedPayment(user.ID, created.OrderID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if payment.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %q", payment.Status)
	}
	if payment.VerifiedAt == nil {
		t.Fatal("expected verifiedAt set")
	}
	if !upgraded.IsPremium || upgraded.Plan != models.PlanPremium {
		t.Fatalf("expected premium user, got %+v", upgraded)
	}
	if upgraded.PremiumExpiryDate == nil {
		t.Fatal("expected premium expiry set")
	}

	// Expiry is now + planDuration days
	want := before.AddDate(0, 0, 30)
	got := *upgraded.PremiumExpiryDate
	if got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
		t.Fatalf("expected expiry near %v, got %v", want, got)
	}
}

func TestCompleteVerifiedPaymentIsOneWay(t *testing.T) {
	svc, store, _ := newTestPaymentService()

	user, _ := store.CreateUser(&models.User{Email: "me@example.com", Phone: "9876543210"})
	created, err := svc.CreateOrder(user.ID, 49900, "INR", 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, _, err := svc.CompleteVerifiedPayment(user.ID, created.OrderID); err != nil {
		t.Fatalf("first complete failed: %v", err)
	}
	firstExpiry := *mustUser(t, store, user.ID).PremiumExpiryDate

	_, _, err = svc.CompleteVerifiedPayment(user.ID, created.OrderID)
	if !errors.Is(err, storage.ErrPaymentCompleted) {
		t.Fatalf("expected ErrPaymentCompleted, got %v", err)
	}

	// The replay must not re-extend the entitlement
	if got := *mustUser(t, store, user.ID).PremiumExpiryDate; !got.Equal(firstExpiry) {
		t.Fatalf("expiry changed on replay: %v != %v", got, firstExpiry)
	}
}

func TestCompleteVerifiedPaymentUnknownOrder(t *testing.T) {
	svc, store, _ := newTestPaymentService()

	user, _ := store.CreateUser(&models.User{Email: "me@example.com", Phone: "9876543210"})
	_, _, err := svc.CompleteVerifiedPayment(user.ID, "order_missing")
	if !errors.Is(err, storage.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func mustUser(t *testing.T, store storage.Store, id string) *models.User {
	t.Helper()
	user, err := store.GetUser(id)
	if err != nil {
		t.Fatalf("user lookup failed: %v", err)
	}
	return user
}
