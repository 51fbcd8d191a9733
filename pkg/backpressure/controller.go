package backpressure

import (
	"sync"
	"time"
)

// Controller tracks the worker allowance for a batch run and degrades
// it in response to throttling signals from the remote service. The
// allowance is halved before each retry round: a throttling error is
// evidence the remote service cannot sustain the prior rate.
type Controller struct {
	initial       int
	workers       int
	throttleCount int
	lastThrottle  time.Time
	mu            sync.Mutex
}

// NewController creates a controller with the given initial worker count.
func NewController(initial int) *Controller {
	if initial < 1 {
		initial = 1
	}
	return &Controller{
		initial: initial,
		workers: initial,
	}
}

// Workers returns the current worker allowance.
func (c *Controller) Workers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers
}

// Degrade halves the worker allowance (floor, minimum 1) and returns
// the new value.
func (c *Controller) Degrade() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.workers = c.workers / 2
	if c.workers < 1 {
		c.workers = 1
	}
	return c.workers
}

// RecordThrottle records one observed throttling failure.
func (c *Controller) RecordThrottle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.throttleCount++
	c.lastThrottle = time.Now()
}

// Reset restores the initial worker allowance and clears throttle accounting.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.workers = c.initial
	c.throttleCount = 0
	c.lastThrottle = time.Time{}
}

// GetState returns the current state of the controller.
func (c *Controller) GetState() (workers int, throttleCount int, lastThrottle time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workers, c.throttleCount, c.lastThrottle
}
