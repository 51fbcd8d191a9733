package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradeagents-hq/batchrunner/pkg/analyzer"
	"github.com/tradeagents-hq/batchrunner/pkg/batch"
	"github.com/tradeagents-hq/batchrunner/pkg/config"
	"github.com/tradeagents-hq/batchrunner/pkg/health"
	"github.com/tradeagents-hq/batchrunner/pkg/logger"
	"github.com/tradeagents-hq/batchrunner/pkg/portfolio"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		lg.Notice("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	tickers, err := portfolio.Load(cfg.PortfolioFile)
	if err != nil {
		log.Fatalf("Failed to load portfolio: %v", err)
	}
	requests, err := portfolio.Requests(tickers, cfg.AnalysisDate)
	if err != nil {
		log.Fatalf("Invalid portfolio: %v", err)
	}
	lg.Info("Loaded %d tickers from %s for %s", len(requests), cfg.PortfolioFile, cfg.AnalysisDate)

	client := analyzer.NewClient(cfg.APIEndpoint, lg)
	orch := batch.NewOrchestrator(client.Analyze, batch.Options{
		Workers:      cfg.WorkerCount,
		MaxTotalTime: cfg.MaxTotalTime,
		PollInterval: cfg.PollInterval,
		Policy: batch.RetryPolicy{
			BaseDelay: cfg.Retry.BaseDelay,
			MinDelay:  cfg.Retry.MinDelay,
		},
		Logger: lg,
	})

	// Start health monitoring server
	healthServer := health.NewServer(cfg.MetricsPort, orch, lg)
	go healthServer.Start()

	result, err := orch.Run(ctx, requests)
	if err != nil {
		log.Fatalf("Batch run failed: %v", err)
	}

	fmt.Print(batch.FormatReport(result, false))

	if result.SuccessRate() < 0.5 {
		lg.Error("Less than half of the portfolio analyzed successfully, review failures before acting on results")
	}
	if len(result.Failed) > 0 {
		os.Exit(1)
	}
}
