package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"luxe/internal/config"
	"luxe/internal/handlers"
	"luxe/internal/idgen"
	"luxe/internal/repositories"
	"luxe/internal/services"
	"luxe/pkg/database"
	"luxe/pkg/gemini"
	"luxe/pkg/payments"
	"luxe/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// --- Initialize Store ---
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	// --- Initialize RabbitMQ Client ---
	var events services.EventPublisher = services.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		events = mqClient

		// Audit consumer: every order and payment event is written to the log.
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			if consumerErr := mqClient.ConsumeOrderEvents(rabbitmq.LogEvent); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set, domain events are disabled")
	}

	// --- Initialize Payment Gateway ---
	var gateway payments.Gateway
	if cfg.PaymentsEnabled() {
		gateway = payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		log.Println("Razorpay gateway configured")
	} else {
		log.Println("Razorpay credentials not set, only Cash on Delivery is available")
	}

	// --- Initialize Services ---
	authService := services.NewAuthService(store.Users(), store.Products(), cfg.JWTSecret, cfg.JWTExpire, cfg.AdminSetupSecret)
	productService := services.NewProductService(store.Products())
	orderService := services.NewOrderService(store, idgen.NewOrderNumbers(cfg.OrderPrefix, nil), events)
	paymentService := services.NewPaymentService(orderService, store, gateway, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	chatService := services.NewChatService(store.Products(), gemini.NewClient(gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}))

	// --- Initialize Fiber App ---
	app := handlers.NewApp(handlers.Services{
		Auth:     authService,
		Products: productService,
		Orders:   orderService,
		Payments: paymentService,
		Chat:     chatService,
	}, handlers.AppOptions{
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  true,
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openStore connects the configured backend and returns it with a close func.
func openStore(cfg *config.Config) (repositories.Store, func(), error) {
	switch cfg.DBDriver {
	case "mongo":
		client, err := database.ConnectMongo(context.Background(), cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.MongoDB)
		if err := database.EnsureIndexes(db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Printf("Connected to MongoDB database %s", cfg.MongoDB)
		return repositories.NewMongoStore(db), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("Error disconnecting MongoDB: %v", err)
			}
		}, nil

	case "postgres", "sqlite":
		db, err := database.OpenGORM(cfg.DBDriver, cfg.DSN, cfg.Debug)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, err
		}
		log.Printf("Connected to %s database", cfg.DBDriver)
		return repositories.NewGORMStore(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
