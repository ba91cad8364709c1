package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/sigec-emu/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-emu/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-emu/internal/adapter/queue"
	"github.com/seu-repo/sigec-emu/internal/adapter/stdout"
	wsAdapter "github.com/seu-repo/sigec-emu/internal/adapter/websocket"
	"github.com/seu-repo/sigec-emu/internal/fleet"
	"github.com/seu-repo/sigec-emu/internal/observability/telemetry"
	"github.com/seu-repo/sigec-emu/internal/ports"
	"github.com/seu-repo/sigec-emu/pkg/config"
)

const (
	serviceName    = "sigec-emu"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting SIGEC-EMU",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 3. Initialize Telemetry Sinks
	sinks := ports.MultiSink{telemetry.MetricsSink{}}

	if cfg.Telemetry.Stdout {
		sinks = append(sinks, stdout.NewSink(os.Stdout, logger))
	}

	if cfg.NATS.Enabled {
		mq, err := queue.NewNATSQueue(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer mq.Close()
		sinks = append(sinks, queue.NewTelemetryPublisher(mq, cfg.Telemetry.SubjectPrefix, logger))
	}

	if cfg.RabbitMQ.Enabled {
		mq, err := queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mq.Close()
		sinks = append(sinks, queue.NewTelemetryPublisher(mq, cfg.Telemetry.SubjectPrefix, logger))
	}

	// 4. Initialize WebSocket Hub (live telemetry stream)
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run()
	sinks = append(sinks, wsHub)

	// 5. Build the Fleet from Configuration
	manager, err := fleet.FromConfig(cfg.Devices, sinks, logger)
	if err != nil {
		logger.Fatal("Failed to build fleet", zap.Error(err))
	}
	manager.StartAll()

	// 6. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	// Health Check Endpoints
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// API v1 Routes
	v1 := app.Group("/api/v1")
	fleetHandler := handlers.NewFleetHandler(manager, logger)
	fleetHandler.Register(v1)

	// WebSocket route for live telemetry
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/telemetry", websocket.New(func(c *websocket.Conn) {
		wsHub.AddClient(c)
	}))

	// 7. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	if err := manager.StopAll(); err != nil {
		logger.Error("Fleet shutdown", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
