package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chronoshop/internal/cache"
	"chronoshop/internal/config"
	"chronoshop/internal/handlers"
	"chronoshop/internal/logger"
	"chronoshop/internal/models"
	"chronoshop/internal/repositories"
	"chronoshop/internal/services"
	"chronoshop/pkg/cashfree"
	"chronoshop/pkg/encryption"
	"chronoshop/pkg/rabbitmq"
	"chronoshop/pkg/shiprocket"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		logger.Get().Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Address{},
		&models.Product{}, &models.Review{},
		&models.Order{}, &models.OrderItem{}, &models.Shipment{},
		&models.Setting{},
	); err != nil {
		logger.Get().Fatal("Failed to migrate database", zap.Error(err))
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	settingsRepo := repositories.NewGORMSettingsRepository(db)

	// --- RabbitMQ ---
	var events rabbitmq.Publisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		// The broker is an observability aid, not a dependency of checkout.
		logger.Get().Warn("RabbitMQ unavailable, order events disabled", zap.Error(err))
	} else {
		defer mqClient.Close()
		events = mqClient
	}

	// --- Shiprocket token cache: Redis when configured, settings table
	// otherwise ---
	var tokenStore shiprocket.TokenStore = repositories.NewSettingsTokenStore(settingsRepo)
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
		if err != nil {
			logger.Get().Warn("Redis unavailable, using settings-backed token cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			tokenStore = cache.NewTokenStore(redisCache)
		}
	}

	// --- Credential encryption ---
	cipher, err := encryption.New(cfg.SettingsEncryptionKey)
	if err != nil {
		logger.Get().Fatal("Invalid settings encryption key", zap.Error(err))
	}
	if cipher == nil {
		logger.Get().Warn("SETTINGS_ENCRYPTION_KEY not set, gateway credentials stored in plaintext")
	}

	// --- Provider clients ---
	shippingClient := shiprocket.NewClient(
		cfg.Shiprocket.BaseURL,
		shiprocket.Credentials{Email: cfg.Shiprocket.Email, Password: cfg.Shiprocket.Password},
		tokenStore,
		cfg.Checkout.ProviderTimeout,
	)
	gatewayFactory := func(gwCfg cashfree.Config) services.PaymentGateway {
		return cashfree.NewClient(gwCfg, cfg.Checkout.ProviderTimeout)
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	orderService := services.NewOrderService(orderRepo)
	settingsService := services.NewPaymentSettingsService(settingsRepo, cipher, cfg.Checkout.CallbackURL)
	checkoutService := services.NewCheckoutService(
		orderRepo, userRepo, productRepo, settingsService,
		gatewayFactory, shippingClient, events,
		cfg.Checkout, cfg.Shiprocket.PickupLocation,
	)

	// --- HTTP surface ---
	app := fiber.New()
	app.Use(fiberzap.New(fiberzap.Config{Logger: logger.Get()}))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewProductHandler(productService, authService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(orderService, checkoutService, authService).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(checkoutService, authService).RegisterRoutes(apiV1)
	handlers.NewSettingsHandler(settingsService, authService).RegisterRoutes(apiV1)
	handlers.NewWebhookHandler(checkoutService, settingsService).RegisterRoutes(apiV1)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	if mqClient != nil {
		go func() {
			handler := func(msg amqp.Delivery) error {
				logger.Get().Info("Order event received",
					zap.String("routing_key", msg.RoutingKey),
					zap.ByteString("body", msg.Body),
				)
				return nil
			}
			if err := mqClient.ConsumeOrderEvents(handler); err != nil {
				logger.Get().Error("Order event consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- Start and shut down gracefully ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Get().Info("Starting server", zap.String("port", cfg.AppPort))
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Get().Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Get().Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Get().Error("Error during shutdown", zap.Error(err))
	}
	logger.Get().Info("Server stopped")
}

// openDatabase picks the driver from the DSN: postgres DSNs contain a scheme
// or key=value pairs, everything else is treated as a SQLite path.
func openDatabase(dsn string) (*gorm.DB, error) {
	if isPostgresDSN(dsn) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

func isPostgresDSN(dsn string) bool {
	for _, prefix := range []string{"postgres://", "postgresql://", "host="} {
		if len(dsn) >= len(prefix) && dsn[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
