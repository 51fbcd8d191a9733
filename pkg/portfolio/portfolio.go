package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

// Portfolio is the on-disk portfolio format: a list of positions, each
// naming a ticker.
type Portfolio struct {
	Positions []Position `json:"positions"`
}

// Position is one holding in the portfolio file.
type Position struct {
	Ticker string `json:"ticker"`
}

// Load reads tickers from a portfolio JSON file.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file %s: %v", path, err)
	}

	var p Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file %s: %v", path, err)
	}

	tickers := make([]string, 0, len(p.Positions))
	for _, pos := range p.Positions {
		tickers = append(tickers, pos.Ticker)
	}
	return tickers, nil
}

// Requests normalizes a ticker list into batch requests for the given
// analysis date: symbols are uppercased and trimmed, empties rejected,
// duplicates rejected. The batch contract requires unique tickers.
func Requests(tickers []string, date string) ([]models.Request, error) {
	seen := make(map[string]struct{}, len(tickers))
	requests := make([]models.Request, 0, len(tickers))
	for _, raw := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if ticker == "" {
			return nil, fmt.Errorf("portfolio contains an empty ticker")
		}
		if _, dup := seen[ticker]; dup {
			return nil, fmt.Errorf("portfolio contains duplicate ticker: %s", ticker)
		}
		seen[ticker] = struct{}{}
		requests = append(requests, models.Request{Ticker: ticker, Date: date})
	}
	return requests, nil
}
