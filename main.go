package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cellar/internal/config"
	"cellar/internal/logger"
	"cellar/internal/metrics"
	"cellar/internal/repositories"
	"cellar/internal/server"
	"cellar/internal/services"
	"cellar/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	// Environment variables, optionally layered over the file named by CONFIG_FILE.
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		AddSource: true,
	})
	slog.SetDefault(log)

	ctx := context.Background()

	// --- Initialize Repositories ---
	repos, err := repositories.Open(ctx, cfg.StoreOptions())
	if err != nil {
		log.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer repos.Close()
	log.Info("Store opened", "driver", cfg.StoreDriver)

	m := metrics.New()
	opts := []services.Option{services.WithMetrics(m), services.WithLogger(log)}

	// --- Initialize RabbitMQ Client ---
	// Change events are optional: without RABBITMQ_URL nothing is published.
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Error("Failed to initialize RabbitMQ client", "error", err)
			os.Exit(1)
		}
		defer mqClient.Close()
		opts = append(opts, services.WithPublisher(mqClient))

		if err := mqClient.Consume(rabbitmq.LogEvents(log)); err != nil {
			log.Warn("Failed to start RabbitMQ consumer", "error", err)
		}
	}

	// --- Initialize Services ---
	cellarService := services.NewCellarService(repos.Beverages, opts...)
	picklistService := services.NewPicklistService(repos.Picklists, repos.Beverages, opts...)

	// --- Initialize Fiber App ---
	app := server.NewApp(server.Deps{
		Cellar:    cellarService,
		Picklists: picklistService,
		Metrics:   m,
		Logger:    log,
		Origins:   cfg.WhitelistedOrigins,
		AccessLog: true,
	})

	// --- Start HTTP Server ---
	log.Info("Starting server", "port", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case <-quit:
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", "error", err)
	}

	if err := app.Shutdown(); err != nil {
		log.Error("Error during Fiber shutdown", "error", err)
	}
	log.Info("Server gracefully stopped")
}
