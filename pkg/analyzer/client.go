package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tradeagents-hq/batchrunner/pkg/logger"
	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

// Client calls a remote analysis API. Analysis runs are slow (tens of
// seconds to minutes), so the underlying HTTP client uses a generous
// timeout; the batch engine imposes no per-ticker deadline of its own.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     logger.Logger
}

// NewClient creates an analysis API client for the given endpoint.
func NewClient(endpoint string, logger logger.Logger) *Client {
	return &Client{
		httpClient: createHTTPClient(),
		endpoint:   strings.TrimRight(endpoint, "/"),
		logger:     logger,
	}
}

type analyzeRequest struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

// Analyze runs one remote analysis. Error responses surface the
// response body verbatim so the engine's classifier sees the remote
// service's own failure text (throttling messages included). Safe for
// concurrent use.
func (c *Client) Analyze(ctx context.Context, ticker, date string) (models.Analysis, error) {
	payload, err := json.Marshal(analyzeRequest{Ticker: ticker, Date: date})
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to encode analysis request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/api/v1/analyze", bytes.NewReader(payload))
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to build analysis request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Requesting analysis for %s as of %s", ticker, date)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("analysis request failed: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Error("Failed to close response body: %v", closeErr)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.Analysis{}, fmt.Errorf("analysis failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var analysis models.Analysis
	if err := json.Unmarshal(bodyBytes, &analysis); err != nil {
		return models.Analysis{}, fmt.Errorf("failed to decode analysis: %v, body: %s", err, string(bodyBytes))
	}
	if analysis.Ticker == "" {
		analysis.Ticker = ticker
	}
	return analysis, nil
}

// createHTTPClient builds an HTTP client sized for long-running
// analysis calls.
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Minute,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
