package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/tradeagents-hq/batchrunner/pkg/logger"
)

// Config holds the configuration for one batch analysis run.
type Config struct {
	APIEndpoint   string
	PortfolioFile string
	AnalysisDate  string
	WorkerCount   int
	MaxTotalTime  time.Duration
	PollInterval  time.Duration
	Retry         RetryConfig
	MetricsPort   string
	LoggerConfig  LoggerConfig
}

// RetryConfig holds backoff timing for throttled analyses.
type RetryConfig struct {
	BaseDelay time.Duration
	MinDelay  time.Duration
}

// LoggerConfig holds the configuration for logging.
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	workerCount, err := GetEnvWorkerCount()
	if err != nil {
		return nil, err
	}

	maxTotalTime, err := GetEnvBatchMaxTime()
	if err != nil {
		return nil, err
	}

	pollInterval, err := GetEnvRetryPollInterval()
	if err != nil {
		return nil, err
	}

	baseDelay, err := GetEnvRetryBaseDelay()
	if err != nil {
		return nil, err
	}

	minDelay, err := GetEnvRetryMinDelay()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	apiEndpoint, err := GetEnvAPIEndpoint()
	if err != nil {
		return nil, err
	}

	analysisDate, err := GetEnvAnalysisDate()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIEndpoint:   apiEndpoint,
		PortfolioFile: GetEnvPortfolioFile(),
		AnalysisDate:  analysisDate,
		WorkerCount:   workerCount,
		MaxTotalTime:  maxTotalTime,
		PollInterval:  pollInterval,
		Retry: RetryConfig{
			BaseDelay: baseDelay,
			MinDelay:  minDelay,
		},
		MetricsPort: metricsPort,
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration.
func validateConfig(cfg *Config) error {
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("API_ENDPOINT environment variable is required")
	}
	if cfg.PortfolioFile == "" {
		return fmt.Errorf("PORTFOLIO_FILE must not be empty")
	}
	return nil
}
