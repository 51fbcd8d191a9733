package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/tradeagents-hq/batchrunner/pkg/logger"
)

const (
	// DefaultWorkerCount defines the default number of parallel analysis workers
	DefaultWorkerCount = 4

	// DefaultBatchMaxTime defines the default global time budget in seconds
	DefaultBatchMaxTime = 1800

	// DefaultRetryPollInterval defines the default maximum sleep while waiting for a retry window
	DefaultRetryPollInterval = 10 * time.Second

	// DefaultRetryBaseDelay defines the default backoff base for the first retry
	DefaultRetryBaseDelay = 30 * time.Second

	// DefaultRetryMinDelay defines the default backoff floor after jitter
	DefaultRetryMinDelay = 15 * time.Second

	// DefaultMetricsPort defines the default port for the health and metrics server
	DefaultMetricsPort = "8080"

	// DefaultPortfolioFile defines the default portfolio file path
	DefaultPortfolioFile = "portfolio.json"

	// analysisDateLayout is the required ANALYSIS_DATE format
	analysisDateLayout = "2006-01-02"
)

// GetEnvWorkerCount returns the number of workers from environment variables
func GetEnvWorkerCount() (int, error) {
	workerCount := os.Getenv("WORKER_COUNT")
	if workerCount == "" {
		return DefaultWorkerCount, nil
	}

	count, err := strconv.Atoi(workerCount)
	if err != nil {
		return 0, fmt.Errorf("invalid WORKER_COUNT value: %s, must be an integer", workerCount)
	}
	if count <= 0 {
		return 0, fmt.Errorf("WORKER_COUNT must be greater than 0")
	}
	return count, nil
}

// GetEnvBatchMaxTime returns the global time budget from environment variables
func GetEnvBatchMaxTime() (time.Duration, error) {
	maxTime := os.Getenv("BATCH_MAX_TIME")
	if maxTime == "" {
		return DefaultBatchMaxTime * time.Second, nil
	}

	seconds, err := strconv.Atoi(maxTime)
	if err != nil {
		return 0, fmt.Errorf("invalid BATCH_MAX_TIME value: %s, must be an integer number of seconds", maxTime)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("BATCH_MAX_TIME must be greater than or equal to 0")
	}
	return time.Duration(seconds) * time.Second, nil
}

// GetEnvRetryPollInterval returns the retry-window poll interval from environment variables
func GetEnvRetryPollInterval() (time.Duration, error) {
	interval := os.Getenv("RETRY_POLL_INTERVAL")
	if interval == "" {
		return DefaultRetryPollInterval, nil
	}

	parsed, err := time.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid RETRY_POLL_INTERVAL value: %s, must be a valid duration string", interval)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("RETRY_POLL_INTERVAL must be greater than 0")
	}
	return parsed, nil
}

// GetEnvRetryBaseDelay returns the retry backoff base from environment variables
func GetEnvRetryBaseDelay() (time.Duration, error) {
	delay := os.Getenv("RETRY_BASE_DELAY")
	if delay == "" {
		return DefaultRetryBaseDelay, nil
	}

	parsed, err := time.ParseDuration(delay)
	if err != nil {
		return 0, fmt.Errorf("invalid RETRY_BASE_DELAY value: %s, must be a valid duration string", delay)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("RETRY_BASE_DELAY must be greater than 0")
	}
	return parsed, nil
}

// GetEnvRetryMinDelay returns the retry backoff floor from environment variables
func GetEnvRetryMinDelay() (time.Duration, error) {
	delay := os.Getenv("RETRY_MIN_DELAY")
	if delay == "" {
		return DefaultRetryMinDelay, nil
	}

	parsed, err := time.ParseDuration(delay)
	if err != nil {
		return 0, fmt.Errorf("invalid RETRY_MIN_DELAY value: %s, must be a valid duration string", delay)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("RETRY_MIN_DELAY must be greater than 0")
	}
	return parsed, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvAPIEndpoint returns the analysis API endpoint from environment variables
func GetEnvAPIEndpoint() (string, error) {
	apiEndpoint := os.Getenv("API_ENDPOINT")
	if apiEndpoint == "" {
		return "", nil
	}

	if _, err := url.ParseRequestURI(apiEndpoint); err != nil {
		return "", fmt.Errorf("invalid API_ENDPOINT value: %s, must be a valid URL", apiEndpoint)
	}
	return apiEndpoint, nil
}

// GetEnvPortfolioFile returns the portfolio file path from environment variables
func GetEnvPortfolioFile() string {
	portfolioFile := os.Getenv("PORTFOLIO_FILE")
	if portfolioFile == "" {
		return DefaultPortfolioFile
	}
	return portfolioFile
}

// GetEnvAnalysisDate returns the analysis date from environment variables, defaulting to today
func GetEnvAnalysisDate() (string, error) {
	date := os.Getenv("ANALYSIS_DATE")
	if date == "" {
		return time.Now().Format(analysisDateLayout), nil
	}

	if _, err := time.Parse(analysisDateLayout, date); err != nil {
		return "", fmt.Errorf("invalid ANALYSIS_DATE value: %s, must be YYYY-MM-DD", date)
	}
	return date, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return logger.InfoLevel, nil
	}

	switch level {
	case "debug", "info", "notice", "error":
		return logger.ParseLevel(level), nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of debug, info, notice, error", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}
