package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fx-arbitrage-service/internal/arbitrage"
	"fx-arbitrage-service/internal/config"
	"fx-arbitrage-service/internal/database"
	"fx-arbitrage-service/internal/logger"
	"fx-arbitrage-service/internal/quotes"
	"fx-arbitrage-service/internal/server"
	"fx-arbitrage-service/internal/storage"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database and signal store
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := storage.NewGormStore(db)
	log.Info("Database connection successful and schema migrated.")

	// Initialize the quote provider
	var provider quotes.Provider
	switch cfg.Quotes.Mode {
	case "feed":
		provider = quotes.NewFeedClient(&cfg.Quotes.Feed, cfg.Quotes.Sources, log.Named("feed"))
		log.Info("Using external quote feed", zap.String("base_url", cfg.Quotes.Feed.BaseURL))
	default:
		provider = quotes.NewSimulatedProvider(cfg.Quotes.Sources, cfg.Quotes.JitterPct, nil, nil)
		log.Info("Using simulated quote provider", zap.Strings("sources", cfg.Quotes.Sources))
	}

	// Wire the detection and execution core
	lots := arbitrage.NewLotSizer(cfg.Scanner.LotSizes, log.Named("lots"))
	scanner := arbitrage.NewScanner(log.Named("scanner"), provider, store, lots, cfg.Scanner.Watchlist, nil)
	executor := arbitrage.NewExecutor(log.Named("executor"), store, lots, nil, nil)

	srv := server.New(log, &cfg, scanner, executor, store, provider, time.Now)
	srv.Start()

	// Wait for a shutdown signal
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}
