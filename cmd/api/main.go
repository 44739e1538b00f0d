package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/repository"
	"github.com/ayushman2046/Vendor-orders/internal/service"
	transport "github.com/ayushman2046/Vendor-orders/internal/transport/http"
	"github.com/ayushman2046/Vendor-orders/internal/transport/http/handler"
	"github.com/ayushman2046/Vendor-orders/pkg/config"
	"github.com/ayushman2046/Vendor-orders/pkg/db"
	"github.com/ayushman2046/Vendor-orders/pkg/redisclient"
	"github.com/ayushman2046/Vendor-orders/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "vendor-orders-api")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient, err := redisclient.NewRedisClient(cfg.Redis.Addr)
	if err != nil {
		log.Fatalf("failed to create redis client: %v", err)
	}

	loggerCfg := config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	}
	logger, err := config.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	stream := broker.NewStream(redisClient, cfg.Stream.Name, cfg.Stream.Group)
	eventRepo := repository.NewEventRepository(pool, logger)
	eventService := service.NewEventService(stream, eventRepo, logger)

	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &transport.Handlers{
		Events:  handler.NewEventHandler(eventService, logger),
		Metrics: handler.NewMetricsHandler(eventService, logger),
	}

	transport.RegisterRoutes(app, handlers, cfg.Auth.Token)

	logger.Info("Vendor orders API started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownContext); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownContext); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v\n", err)
	}

	pool.Close()
}
