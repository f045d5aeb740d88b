package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"era-admin-console/internal/api"
	"era-admin-console/internal/auth"
	"era-admin-console/internal/config"
	"era-admin-console/internal/dashboard"
	"era-admin-console/internal/live"
	"era-admin-console/internal/metrics"
	"era-admin-console/internal/models"
	"era-admin-console/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "Path to an env file (default: ./.env when present)")
	flag.Parse()

	// Load and validate configuration
	cfg, err := config.LoadAndValidate(*envFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	session := auth.NewSession(auth.NewFileTokenStore(cfg.TokenFile))
	if err := session.Init(); err != nil {
		baseLogger.Warn("stored token discarded", zap.String("path", cfg.TokenFile), zap.Error(err))
	}

	var (
		m          *metrics.Metrics
		recorder   live.Recorder
		clientOpts = []api.Option{api.WithLogger(logger.Named(baseLogger, "api"))}
	)
	if cfg.EnableMetrics {
		m = metrics.New()
		recorder = m
		clientOpts = append(clientOpts, api.WithRecorder(m))
	}
	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, session, clientOpts...)

	feedLogger := logger.Named(baseLogger, "live")
	server := dashboard.NewServer(dashboard.Options{
		Session: session,
		Backend: client,
		NewInventoryFeed: func() *dashboard.InventoryFeed {
			return live.New(live.Config[models.InventoryItem]{
				Resource:  "inventory",
				WSBaseURL: cfg.WSBaseURL,
				Tokens:    session,
				Fetch:     client.ListInventory,
				Logger:    feedLogger,
				Recorder:  recorder,
			})
		},
		NewSalesFeed: func() *dashboard.SalesFeed {
			return live.New(live.Config[models.SalesAccount]{
				Resource:  "sales-accounts",
				WSBaseURL: cfg.WSBaseURL,
				Tokens:    session,
				Fetch:     client.ListSalesAccounts,
				Logger:    feedLogger,
				Recorder:  recorder,
			})
		},
		Metrics:       m,
		ImportMapping: cfg.ImportMapping,
		Logger:        logger.Named(baseLogger, "dashboard"),
	})

	// Resume the previous session without a new login.
	if _, err := session.Token(); err == nil {
		server.Mount()
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("console starting",
			zap.String("addr", cfg.ListenAddr),
			zap.String("api", cfg.APIBaseURL),
			zap.String("ws", cfg.WSBaseURL),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := server.Close(shutdownCtx); err != nil {
		baseLogger.Error("feeds did not close", zap.Error(err))
	}
}
