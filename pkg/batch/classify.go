package batch

import "strings"

// ErrorClass categorizes an analysis failure for retry routing.
type ErrorClass string

const (
	// ErrorThrottling is a rate limit imposed by the remote service.
	// It is the only retryable class.
	ErrorThrottling ErrorClass = "throttling"
	// ErrorNetwork covers timeouts and connection failures.
	ErrorNetwork ErrorClass = "network"
	// ErrorData covers invalid or unknown input such as a bad ticker symbol.
	ErrorData ErrorClass = "data"
	// ErrorAuth covers permission and access failures.
	ErrorAuth ErrorClass = "auth"
	// ErrorUnknown is everything else.
	ErrorUnknown ErrorClass = "unknown"
)

// Retryable reports whether failures of this class may be retried.
// Only throttling is transient: retrying the other classes would spend
// the same scarce throughput without changing the outcome.
func (c ErrorClass) Retryable() bool {
	return c == ErrorThrottling
}

// Classify maps a failure message to an ErrorClass using
// case-insensitive substring matching. Total and side-effect free.
func Classify(msg string) ErrorClass {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "throttlingexception") || strings.Contains(lower, "too many tokens"):
		return ErrorThrottling
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection"):
		return ErrorNetwork
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "not found"):
		return ErrorData
	case strings.Contains(lower, "permission") || strings.Contains(lower, "access"):
		return ErrorAuth
	default:
		return ErrorUnknown
	}
}
