package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradeagents-hq/batchrunner/pkg/batch"
	"github.com/tradeagents-hq/batchrunner/pkg/logger"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, &logger.EmptyLogger{}), server
}

func TestAnalyzeSuccess(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req analyzeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req.Ticker)
		assert.Equal(t, "2025-06-02", req.Date)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","decision":"BUY","report":"strong earnings"}`))
	})
	defer server.Close()

	analysis, err := client.Analyze(context.Background(), "AAPL", "2025-06-02")
	assert.NoError(t, err)
	assert.Equal(t, "AAPL", analysis.Ticker)
	assert.Equal(t, "BUY", analysis.Decision)
	assert.Equal(t, "strong earnings", analysis.Report)
}

func TestAnalyzeFillsMissingTicker(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"decision":"HOLD"}`))
	})
	defer server.Close()

	analysis, err := client.Analyze(context.Background(), "MSFT", "2025-06-02")
	assert.NoError(t, err)
	assert.Equal(t, "MSFT", analysis.Ticker)
}

func TestAnalyzeThrottledErrorIsClassifiable(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("ThrottlingException: too many tokens"))
	})
	defer server.Close()

	_, err := client.Analyze(context.Background(), "AAPL", "2025-06-02")
	assert.Error(t, err)

	// The remote failure text must survive into the error so the batch
	// engine schedules a retry instead of failing permanently.
	assert.Contains(t, err.Error(), "ThrottlingException: too many tokens")
	assert.Equal(t, batch.ErrorThrottling, batch.Classify(err.Error()))
}

func TestAnalyzeServerError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Invalid ticker symbol"))
	})
	defer server.Close()

	_, err := client.Analyze(context.Background(), "WRONG", "2025-06-02")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, batch.ErrorData, batch.Classify(err.Error()))
}

func TestAnalyzeConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := NewClient(server.URL, &logger.EmptyLogger{})
	server.Close()

	_, err := client.Analyze(context.Background(), "AAPL", "2025-06-02")
	assert.Error(t, err)
	assert.Equal(t, batch.ErrorNetwork, batch.Classify(err.Error()))
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	defer server.Close()

	_, err := client.Analyze(context.Background(), "AAPL", "2025-06-02")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode analysis")
}

func TestAnalyzeRespectsContext(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"AAPL","decision":"BUY"}`))
	})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Analyze(ctx, "AAPL", "2025-06-02")
	assert.Error(t, err)
}
