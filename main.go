package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/carqr-app/carqr-backend/database"
	"github.com/carqr-app/carqr-backend/internal/cache"
	"github.com/carqr-app/carqr-backend/internal/handlers"
	"github.com/carqr-app/carqr-backend/internal/models"
	"github.com/carqr-app/carqr-backend/internal/routes"
	"github.com/carqr-app/carqr-backend/internal/services"
	"github.com/carqr-app/carqr-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize storage and cache
	var store storage.Store
	var otpCache cache.Cache
	var dbPing func() error

	// Check if we should use memory backends (for testing)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
		otpCache = cache.NewMemoryCache()
	} else {
		// Connect to database
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		// Run migrations
		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Car{},
			&models.ScanEvent{},
			&models.QRCode{},
			&models.Payment{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		dbPing = func() error {
			sqlDB, err := database.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		}
		log.Println("✅ Using PostgreSQL database storage")

		// Connect to redis for OTP codes and login sessions
		log.Println("📦 Connecting to Redis...")
		redisCache, err := cache.NewRedisCache()
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		otpCache = redisCache
		log.Println("✅ Redis connected successfully!")
	}

	// Set global store instance
	storage.SetStore(store)

	// Token signing
	tokenService, err := services.NewTokenService()
	if err != nil {
		log.Fatal("Failed to initialize token service:", err)
	}

	// SMS delivery: Twilio when configured, log-only otherwise
	var smsSender services.SMSSender
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Println("⚠️  Twilio not configured - OTP codes will be logged instead of sent")
		smsSender = services.LogSMSSender{}
	} else {
		log.Println("✅ Twilio service initialized")
		smsSender = twilioService
	}

	// Initialize all services
	authService := services.NewAuthService(store, otpCache, tokenService, smsSender)
	qrService := services.NewQRService()
	paymentService, err := services.NewPaymentService(store)
	if err != nil {
		log.Println("⚠️  Razorpay not configured - payment endpoints will fail until credentials are set")
		paymentService = services.NewPaymentServiceWithGateway(store, services.UnconfiguredGateway{}, "", "")
	}

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "CarQR Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   "Internal server error",
				"code":    "SERVER_ERROR",
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint with database status
	healthHandler := handlers.NewHealthHandler("1.0.0", dbPing)
	app.Get("/health", healthHandler.Check)

	// Setup API routes
	routes.SetupRoutes(app, store, authService, tokenService, qrService, paymentService)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Route not found",
			"code":    "NOT_FOUND",
		})
	})

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 CarQR Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func corsOrigins() string {
	if origins := os.Getenv("CORS_ORIGIN"); origins != "" {
		return origins
	}
	return "*"
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
