package models

// Request identifies one unit of work in a batch: a ticker to analyze
// as of a given date. Tickers must be unique within a batch.
type Request struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

// Analysis is the result of a successful analysis run for one ticker.
type Analysis struct {
	Ticker   string `json:"ticker"`
	Decision string `json:"decision"`
	Report   string `json:"report,omitempty"`
}

// Failure is the terminal record for a ticker that could not be analyzed.
type Failure struct {
	Ticker    string `json:"ticker"`
	Status    string `json:"status"`
	ErrorType string `json:"error_type"`
	Message   string `json:"error"`
}

// Result is the outcome of one batch run. Every submitted ticker
// appears in exactly one of Successful or Failed.
type Result struct {
	Successful     map[string]Analysis `json:"successful"`
	Failed         map[string]Failure  `json:"failed"`
	RoundsRun      int                 `json:"rounds_run"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
	FinalWorkers   int                 `json:"final_workers"`
}

// Complete reports whether every request was resolved.
func (r *Result) Complete(total int) bool {
	return len(r.Successful)+len(r.Failed) == total
}

// SuccessRate returns the fraction of requests that ended in Successful.
func (r *Result) SuccessRate() float64 {
	total := len(r.Successful) + len(r.Failed)
	if total == 0 {
		return 1.0
	}
	return float64(len(r.Successful)) / float64(total)
}
