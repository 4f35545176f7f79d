package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/cache"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

const testRazorpaySecret = "test-razorpay-secret"

// captureSender records the last OTP instead of sending an SMS
type captureSender struct {
	phone string
	code  string
}

func (c *captureSender) SendOTP(phone, code string) error {
	c.phone = phone
	c.code = code
	return nil
}

// stubGateway hands out a fixed order id without touching razorpay
type stubGateway struct {
	orders int
}

func (g *stubGateway) CreateOrder(amount int64, currency, receipt string, notes map[string]interface{}) (string, error) {
	g.orders++
	return "order_stub_1", nil
}

type testServer struct {
	app    *fiber.App
	store  *storage.MemoryStore
	cache  *cache.MemoryCache
	tokens *services.TokenService
	sms    *captureSender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	memCache := cache.NewMemoryCache()
	tokens := services.NewTokenServiceWithSecret("test-secret", time.Hour, 24*time.Hour)
	sms := &captureSender{}

	auth := services.NewAuthService(store, memCache, tokens, sms)
	qr := services.NewQRService()
	payments := services.NewPaymentServiceWithGateway(store, &stubGateway{}, "rzp_test_key", testRazorpaySecret)

	app := fiber.New()
	SetupRoutes(app, store, auth, tokens, qr, payments)

	return &testServer{app: app, store: store, cache: memCache, tokens: tokens, sms: sms}
}

// request runs a JSON request through the app and decodes the envelope
func (s *testServer) request(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp.StatusCode, envelope
}

// loginUser seeds a user and returns it with a valid access token
func (s *testServer) loginUser(t *testing.T, phone, email string) (*models.User, string) {
	t.Helper()

	user, err := s.store.CreateUser(&models.User{Phone: phone, Email: email})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("token issue failed: %v", err)
	}
	return user, token
}

// seedCar attaches a car profile to the user
func (s *testServer) seedCar(t *testing.T, userID, carNumber, carModel string) *models.Car {
	t.Helper()

	car, err := s.store.SaveCar(&models.Car{UserID: userID, CarNumber: carNumber, CarModel: carModel})
	if err != nil {
		t.Fatalf("seed car failed: %v", err)
	}
	return car
}

func expectCode(t *testing.T, envelope map[string]interface{}, code string) {
	t.Helper()
	if got, _ := envelope["code"].(string); got != code {
		t.Fatalf("expected code %s, got %v", code, envelope["code"])
	}
	if success, _ := envelope["success"].(bool); success {
		t.Fatal("expected success=false in error envelope")
	}
}
