package batch

import (
	"flag"
	"fmt"
	"os"
	"testing"
	"time"
)

var (
	// Define flags that can be used when running tests
	verbose = flag.Bool("verbose", false, "Enable verbose test output")

	// Global test variables
	testStartTime time.Time
)

// TestMain is used to set up environment before running tests
func TestMain(m *testing.M) {
	flag.Parse()

	testStartTime = time.Now()
	if *verbose {
		fmt.Println("Running tests in package: github.com/tradeagents-hq/batchrunner/pkg/batch")
	}

	exitCode := m.Run()

	if *verbose {
		fmt.Printf("Tests completed in %v\n", time.Since(testStartTime))
	}
	os.Exit(exitCode)
}

// fastPolicy compresses backoff timing so retry tests do not sleep for real.
func fastPolicy() RetryPolicy {
	return RetryPolicy{
		BaseDelay: 2 * time.Millisecond,
		MinDelay:  time.Millisecond,
	}
}

// fastOptions returns orchestrator options sized for tests.
func fastOptions(workers int) Options {
	return Options{
		Workers:      workers,
		MaxTotalTime: 10 * time.Second,
		PollInterval: 2 * time.Millisecond,
		Policy:       fastPolicy(),
	}
}
