package handlers

import (
	"time"

	"luxe/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth     *services.AuthService
	Products *services.ProductService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Chat     *services.ChatService
}

// AppOptions tunes the HTTP server.
type AppOptions struct {
	CORSOrigins string
	// RequestLog enables the per-request access log.
	RequestLog bool
}

// NewApp builds the Fiber app with middleware and every /api route.
func NewApp(svc Services, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "LUXE API",
		ErrorHandler: ErrorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(logger.New())
	}
	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: origins != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// --- API Routes ---
	api := app.Group("/api")
	NewAuthHandler(svc.Auth).RegisterRoutes(api)
	NewProductHandler(svc.Products, svc.Auth).RegisterRoutes(api)
	NewOrderHandler(svc.Orders, svc.Auth).RegisterRoutes(api)
	NewPaymentHandler(svc.Payments, svc.Auth).RegisterRoutes(api)
	NewAdminSetupHandler(svc.Auth).RegisterRoutes(api)
	NewChatHandler(svc.Chat).RegisterRoutes(api)

	// --- Health Check Endpoint ---
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success":   true,
			"message":   "LUXE E-commerce API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	return app
}
