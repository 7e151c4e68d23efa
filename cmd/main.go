/**
 * @description
 * This is the main entry point for the Mindron Foundation backend.
 * It initializes and wires together all the components of the application,
 * including configuration, the record store, the payment gateway, the mailer,
 * the receipt generator, the event producer, the service and the HTTP router.
 * Finally, it starts the HTTP server and shuts it down gracefully on SIGINT/SIGTERM.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rajagurusk/mindron-backend/internal/api"
	"github.com/rajagurusk/mindron-backend/internal/app"
	"github.com/rajagurusk/mindron-backend/internal/config"
	"github.com/rajagurusk/mindron-backend/internal/store"
	"github.com/rajagurusk/mindron-backend/pkg/mailer"
	"github.com/rajagurusk/mindron-backend/pkg/rabbitmq"
	"github.com/rajagurusk/mindron-backend/pkg/razorpay"
	"github.com/rajagurusk/mindron-backend/pkg/receipt"
)

// repository is what main needs from a store implementation.
type repository interface {
	app.Repository
	Close(ctx context.Context) error
}

func maskURLForLog(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.UserPassword("****", "****")
	}
	return u.String()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		repo, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		logger.Info("mongodb connection established", "uri", maskURLForLog(cfg.MongoURI), "database", cfg.MongoDatabase)
		return repo, nil
	case config.StorePostgres:
		repo, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		logger.Info("database connection established", "uri", maskURLForLog(cfg.DatabaseURL))
		return repo, nil
	case config.StoreMemory:
		logger.Warn("using in-memory store; records are lost on restart")
		return store.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := openStore(startupCtx, cfg, logger)
	startupCancel()
	if err != nil {
		logger.Error("unable to open record store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// Set up RabbitMQ producer; fall back to a no-op publisher when unavailable.
	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	if cfg.RabbitMQURL != "" {
		logger.Info("connecting to rabbitmq", "url", maskURLForLog(cfg.RabbitMQURL))
		if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.EventsExchange, logger); err != nil {
			logger.Warn("failed to connect to rabbitmq at startup, continuing without events", "error", err)
		} else {
			publisher = p
			logger.Info("rabbitmq producer connected", "exchange", cfg.EventsExchange)
		}
	}
	defer publisher.Close()

	gateway := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	mail := mailer.New(cfg.MailjetAPIKey, cfg.MailjetSecretKey)
	receipts := receipt.NewGenerator(cfg.ReceiptTemplate, cfg.ReceiptOutputDir)
	if _, err := os.Stat(cfg.ReceiptTemplate); err != nil {
		logger.Warn("receipt template not readable; donation verification will fail", "path", cfg.ReceiptTemplate, "error", err)
	}

	templates := mailer.Templates{
		From:  mailer.Address{Email: cfg.MailFromAddress, Name: cfg.MailFromName},
		Inbox: mailer.Address{Email: cfg.OrgInbox, Name: cfg.MailFromName},
	}

	// Initialize application layers
	service := app.NewService(repo, gateway, mail, receipts, publisher, templates, logger,
		app.WithMailTimeout(cfg.MailTimeout()))
	handler := api.NewHandler(service, logger)
	router := api.NewRouter(handler, cfg.AllowedOrigins())

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// Let background welcome emails finish before closing the store.
	service.Wait()
	if err := repo.Close(shutdownCtx); err != nil {
		logger.Error("record store close failed", "error", err)
	}

	logger.Info("server stopped")
}
