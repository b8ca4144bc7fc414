package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/sectorpulse/sectorpulse/internal/api"
	"github.com/sectorpulse/sectorpulse/internal/collector"
	"github.com/sectorpulse/sectorpulse/internal/config"
	"github.com/sectorpulse/sectorpulse/internal/database"
	"github.com/sectorpulse/sectorpulse/internal/logging"
	"github.com/sectorpulse/sectorpulse/internal/metrics"
	"github.com/sectorpulse/sectorpulse/internal/provider"
	"github.com/sectorpulse/sectorpulse/internal/scheduler"
	"github.com/sectorpulse/sectorpulse/internal/server"
)

func main() {
	// Local dev convenience; in production the environment is already set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting sectorpulse")

	ctx := context.Background()

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, cfg.Database.URL, database.DefaultPoolConfig())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	newsRepo := database.NewPostgresNewsRepository(db)
	biddingRepo := database.NewPostgresBiddingRepository(db)
	taskRepo := database.NewPostgresTaskRepository(db)

	searchClient := provider.NewWebSearchClient(cfg.Providers.SearchAPIKey, logger)
	biddingClient := provider.NewBiddingClient(cfg.Providers.BidAppCode, logger)

	metricsCollector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	coll := collector.New(newsRepo, biddingRepo, taskRepo, searchClient, biddingClient, metricsCollector, logger)

	sched := scheduler.New(coll, cfg.Collection.MaxNews, cfg.Collection.MaxBidding, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsCollector.Handler())

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"sectorpulse","status":"ready","version":"0.1.0"}`))
	})

	logger.Info("setting up REST API")
	api.SetupRoutes(mux, coll, sched, db, logger)

	srv := server.New(cfg.Server, logger, metricsCollector.InstrumentHandler(mux))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
		}
	case sig := <-stop:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	sched.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("sectorpulse stopped")
}
