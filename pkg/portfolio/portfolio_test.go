package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writePortfolio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.json")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writePortfolio(t, `{"positions":[{"ticker":"AAPL"},{"ticker":"MSFT"},{"ticker":"NVDA"}]}`)

	tickers, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, tickers)
}

func TestLoadEmptyPortfolio(t *testing.T) {
	path := writePortfolio(t, `{"positions":[]}`)

	tickers, err := Load(path)
	assert.NoError(t, err)
	assert.Empty(t, tickers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read portfolio file")
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writePortfolio(t, `{"positions": [`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse portfolio file")
}

func TestRequestsNormalization(t *testing.T) {
	requests, err := Requests([]string{" aapl ", "msft", "NVDA"}, "2025-06-02")
	assert.NoError(t, err)

	assert.Len(t, requests, 3)
	assert.Equal(t, "AAPL", requests[0].Ticker)
	assert.Equal(t, "MSFT", requests[1].Ticker)
	assert.Equal(t, "NVDA", requests[2].Ticker)
	for _, req := range requests {
		assert.Equal(t, "2025-06-02", req.Date)
	}
}

func TestRequestsRejectsDuplicates(t *testing.T) {
	// Duplicates are detected after normalization
	_, err := Requests([]string{"AAPL", " aapl "}, "2025-06-02")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate ticker")
}

func TestRequestsRejectsEmptyTicker(t *testing.T) {
	_, err := Requests([]string{"AAPL", "   "}, "2025-06-02")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty ticker")
}
