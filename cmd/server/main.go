package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-trading-go/internal/api"
	"paper-trading-go/internal/config"
	"paper-trading-go/internal/engine"
	"paper-trading-go/internal/logger"
	"paper-trading-go/internal/marketdata"
	"paper-trading-go/internal/quotes"
	"paper-trading-go/internal/storage"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Pick the quote provider: live feed when an endpoint is configured,
	// deterministic synthetic source otherwise.
	var provider quotes.Provider
	if cfg.MarketData.Endpoint != "" {
		provider = marketdata.NewRestClient(&cfg.MarketData, log)
		log.Info("Using live market data", zap.String("endpoint", cfg.MarketData.Endpoint))
	} else {
		provider = quotes.NewSyntheticSource(
			time.Duration(cfg.Quotes.BucketSeconds)*time.Second,
			time.Duration(cfg.Quotes.CacheTTLSeconds)*time.Second,
		)
		log.Info("Using synthetic quote source")
	}

	eng := engine.New(provider)
	store := storage.NewStore(db, log, eng, storage.Defaults{
		StartingCashCents: cfg.Paper.StartingCashCents,
		Policy:            cfg.Paper.Policy(),
	})

	server := api.NewAPIServer(cfg.Server.Port, store, provider, log)
	server.Start()

	// Setup context for graceful shutdown
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Error("Failed to stop API server cleanly", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
