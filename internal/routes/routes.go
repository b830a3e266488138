package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/example/acham/internal/config"
	"github.com/example/acham/internal/events"
	"github.com/example/acham/internal/handlers"
	"github.com/example/acham/internal/middleware"
	"github.com/example/acham/internal/octo"
	"github.com/example/acham/internal/services"
	"github.com/example/acham/internal/storage"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	currencyService := services.NewCurrencyService(db)
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)

	octoClient := octo.NewClient(octo.Config{
		APIURL:   cfg.OctoAPIURL,
		ShopID:   cfg.OctoShopID,
		Secret:   cfg.OctoSecret,
		TestMode: cfg.OctoTestMode,
		Timeout:  cfg.OctoTimeout,
	})

	paymentService := services.NewPaymentService(
		storage.NewPaymentStore(db),
		octoClient,
		currencyService,
		publisher,
		telegramService,
		services.PaymentConfig{
			FrontendURL: cfg.FrontendURL,
			NotifyURL:   cfg.NotifyURL,
			Sandbox:     cfg.OctoTestMode,
		},
	)

	authHandler := handlers.NewAuthHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, currencyService, telegramService)
	paymentHandler := handlers.NewPaymentHandler(db, paymentService)
	ratesHandler := handlers.NewRatesHandler(db, currencyService)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	authRequired := middleware.AuthMiddleware(cfg)

	// Orders
	orders := api.Group("/orders", authRequired)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)

	// Payment lifecycle
	orders.Post("/:id/payment/initiate", paymentHandler.Initiate)
	orders.Post("/:id/payment/confirm", paymentHandler.Confirm)
	orders.Post("/:id/payment/verify-otp", paymentHandler.VerifyOTP)
	orders.Get("/:id/payment/status", paymentHandler.Status)

	// OCTO webhook: no auth, the gateway sends no signature.
	api.Post("/payments/notify", paymentHandler.Webhook)

	// Admin
	admin := api.Group("/admin", authRequired)
	admin.Get("/payment-transactions", paymentHandler.ListTransactions)
	admin.Get("/currency-rates", ratesHandler.ListRates)
	admin.Put("/currency-rates", ratesHandler.UpsertRate)
	admin.Get("/delivery-fees", ratesHandler.ListDeliveryFees)
	admin.Put("/delivery-fees", ratesHandler.UpsertDeliveryFee)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
