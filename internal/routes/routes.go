package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carqr-app/carqr-backend/internal/handlers"
	"github.com/carqr-app/carqr-backend/internal/middleware"
	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

// SetupRoutes configures all API routes under /api/v1
func SetupRoutes(app *fiber.App, store storage.Store, auth *services.AuthService,
	tokens *services.TokenService, qr *services.QRService, payments *services.PaymentService) {

	authHandler := handlers.NewAuthHandler(auth)
	userHandler := handlers.NewUserHandler(store)
	carHandler := handlers.NewCarHandler(store)
	scanHandler := handlers.NewScanHandler(store)
	qrHandler := handlers.NewQRHandler(store, qr)
	paymentHandler := handlers.NewPaymentHandler(payments)

	requireAuth := middleware.RequireAuth(tokens)

	api := app.Group("/api/v1")

	// Auth routes (all public)
	authGroup := api.Group("/auth")
	authGroup.Post("/otp/request", authHandler.RequestOTP)
	authGroup.Post("/otp/verify", authHandler.VerifyOTP)
	authGroup.Post("/email/login", authHandler.EmailLogin)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// User routes
	users := api.Group("/users")
	users.Get("/me", requireAuth, userHandler.GetProfile)
	users.Put("/me/template", requireAuth, userHandler.UpdateTemplate)
	users.Post("/me/upgrade-premium", requireAuth, userHandler.UpgradePremium)

	// Car routes
	cars := api.Group("/cars")
	cars.Post("/", requireAuth, carHandler.SaveCar)
	cars.Get("/me", requireAuth, carHandler.GetUserCar)
	cars.Get("/qr/:qrCode", carHandler.GetCarByQR) // Public endpoint
	cars.Put("/:carId", requireAuth, carHandler.UpdateCar)

	// Scan routes
	scans := api.Group("/scans")
	scans.Post("/", scanHandler.LogScan) // Public endpoint for logging scans
	scans.Get("/:carId/scans", requireAuth, scanHandler.GetScanHistory)

	// QR routes
	qrGroup := api.Group("/qr")
	qrGroup.Post("/generate", requireAuth, qrHandler.GenerateQR)
	qrGroup.Get("/:qrId", qrHandler.GetQRCode) // Public endpoint

	// Payment routes
	paymentsGroup := api.Group("/payments")
	paymentsGroup.Post("/razorpay/create", requireAuth, paymentHandler.CreatePayment)
	paymentsGroup.Post("/razorpay/verify", requireAuth, paymentHandler.VerifyPayment)
}
