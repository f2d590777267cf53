package runtime

import (
	"context"
	"time"

	"github.com/vinodismyname/toolgate/config"
	"golang.org/x/sync/semaphore"
)

// Limits captures the concurrency and payload guardrails configured for the server.
type Limits struct {
	// Concurrency cap
	MaxConcurrentRequests int64

	// Payload and paging bounds
	MaxPayloadBytes int
	DefaultPageSize int
	MaxPageSize     int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with sensible fallbacks when values are unset.
func NewLimits(maxConcurrentRequests int64) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		DefaultPageSize:       config.DefaultPageSize,
		MaxPageSize:           config.MaxPageSize,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// ClampPageSize bounds a requested page size to [1, MaxPageSize], using the
// default when n is not positive.
func (l Limits) ClampPageSize(n int) int {
	if n <= 0 {
		n = l.DefaultPageSize
	}
	if n <= 0 {
		n = 1
	}
	if l.MaxPageSize > 0 && n > l.MaxPageSize {
		n = l.MaxPageSize
	}
	return n
}

// Controller coordinates the request semaphore.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by a weighted semaphore.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(limits.MaxConcurrentRequests),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// TryAcquireRequest reserves capacity without waiting.
func (c *Controller) TryAcquireRequest() bool {
	return c.requestSemaphore.TryAcquire(1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
