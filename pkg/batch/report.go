package batch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tradeagents-hq/batchrunner/pkg/models"
)

// FormatReport renders a human-readable summary of a finished batch:
// per-ticker decisions, failures grouped with their classification,
// and run statistics. Detailed mode includes full analysis reports.
func FormatReport(result *models.Result, detailed bool) string {
	var b strings.Builder

	total := len(result.Successful) + len(result.Failed)
	fmt.Fprintf(&b, "Analyzed %d/%d tickers successfully in %d rounds (%.0fs, final workers: %d)\n",
		len(result.Successful), total, result.RoundsRun, result.ElapsedSeconds, result.FinalWorkers)

	if len(result.Successful) > 0 {
		fmt.Fprintf(&b, "\nSuccessful analyses (%d):\n", len(result.Successful))
		for _, ticker := range sortedKeys(result.Successful) {
			analysis := result.Successful[ticker]
			fmt.Fprintf(&b, "  %s: %s\n", ticker, analysis.Decision)
			if report := strings.TrimSpace(analysis.Report); report != "" {
				if detailed {
					for _, line := range strings.Split(report, "\n") {
						if strings.TrimSpace(line) != "" {
							fmt.Fprintf(&b, "      %s\n", line)
						}
					}
				} else {
					fmt.Fprintf(&b, "      %s\n", truncate(report, 200))
				}
			}
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed analyses (%d):\n", len(result.Failed))
		for _, ticker := range sortedKeys(result.Failed) {
			failure := result.Failed[ticker]
			fmt.Fprintf(&b, "  %s [%s]: %s\n", ticker, failure.ErrorType, failure.Message)
		}
	}

	fmt.Fprintf(&b, "\nCompletion: %d/%d tickers (%.1f%% success rate)\n",
		len(result.Successful), total, result.SuccessRate()*100)
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
