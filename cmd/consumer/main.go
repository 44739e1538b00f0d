package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayushman2046/Vendor-orders/internal/broker"
	"github.com/ayushman2046/Vendor-orders/internal/consumer"
	"github.com/ayushman2046/Vendor-orders/internal/metrics"
	"github.com/ayushman2046/Vendor-orders/internal/processor"
	"github.com/ayushman2046/Vendor-orders/internal/repository"
	"github.com/ayushman2046/Vendor-orders/pkg/config"
	"github.com/ayushman2046/Vendor-orders/pkg/db"
	"github.com/ayushman2046/Vendor-orders/pkg/redisclient"
	"github.com/ayushman2046/Vendor-orders/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using system envs")
	}

	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "vendor-orders-consumer")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	// store reachability is verified before the group exists and the
	// loop starts; any failure here exits non-zero
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
	if err := stream.EnsureGroup(ctx); err != nil {
		log.Fatalf("failed to ensure consumer group: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pipelineMetrics := metrics.NewPipeline(reg)

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			Registry: reg,
		}))
		log.Println("Metrics server is listening on 9091 📈")

		if err := http.ListenAndServe(":9091", nil); err != nil {
			log.Printf("Metrics serving failed: %v", err)
		}
	}()

	eventRepo := repository.NewEventRepository(pool, logger)
	eventProcessor := processor.New(logger)

	worker := consumer.New(stream, eventProcessor, eventRepo, logger, pipelineMetrics, consumer.Config{
		Name:      cfg.Consumer.Name,
		BatchSize: cfg.Consumer.BatchSize,
		BlockTime: cfg.Consumer.BlockTime,
		IdlePause: cfg.Consumer.IdlePause,
	})

	logger.Info("Vendor orders consumer started!")

	if err := worker.Run(ctx); err != nil {
		log.Fatalf("consumer stopped with error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v\n", err)
	} else {
		log.Println("Telemetry stopped correctly")
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing redis client: %v\n", err)
	}

	pool.Close()
}
