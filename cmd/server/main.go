package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/newswatch/youtube-newswatch-go/internal/config"
	"github.com/newswatch/youtube-newswatch-go/internal/feed"
	"github.com/newswatch/youtube-newswatch-go/internal/handler"
	"github.com/newswatch/youtube-newswatch-go/internal/ledger"
	"github.com/newswatch/youtube-newswatch-go/internal/middleware"
	"github.com/newswatch/youtube-newswatch-go/internal/resolver"
	"github.com/newswatch/youtube-newswatch-go/internal/service"
	"github.com/newswatch/youtube-newswatch-go/pkg/logger"
)

const httpTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	topics, err := config.LoadTopics(cfg.Veille.TopicsFile, cfg.Veille.HorizonDays)
	if err != nil {
		logger.Log.Fatal("failed to load topics", zap.Error(err))
	}

	led, cleanup, err := buildLedger(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize ledger", zap.Error(err))
	}
	defer cleanup()

	// RabbitMQ is optional for the server; readiness reflects it only
	// when configured.
	var publisher *service.VideoPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = service.NewVideoPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
	}

	httpClient := &http.Client{Timeout: httpTimeout}
	coordinator := service.NewCoordinator(
		resolver.New(httpClient),
		feed.NewFetcher(httpClient, ""),
		led,
		nil,
	)

	healthHandler := handler.NewHealthHandler(led, publisher)
	ledgerHandler := handler.NewLedgerHandler(coordinator, led)
	collectHandler := handler.NewCollectHandler(coordinator, topics)
	authMiddleware := middleware.NewAPIKeyAuth(cfg.Server.APIKeys)

	router := handler.NewRouter(healthHandler, ledgerHandler, collectHandler, authMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("ledgerBackend", cfg.Ledger.Backend),
			zap.Int("topics", len(topics)),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		logger.Log.Info("server stopped gracefully")
	}
}

func buildLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, func(), error) {
	switch cfg.Ledger.Backend {
	case "postgres":
		pool, err := ledger.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewPostgresLedger(pool), pool.Close, nil
	case "file", "":
		return ledger.NewFileLedger(cfg.Ledger.Dir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger.Backend)
	}
}
