package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// Write dispatch is limited per identity. The sheet append endpoint is a
	// shared resource with no backpressure of its own, so one submission
	// every other second with a small burst covers a human working through
	// a list.
	writeLimitPerSecond = 0.5
	writeLimitBurst     = 3

	// initialLoadTimeout bounds the background fetch kicked off at startup.
	initialLoadTimeout = 2 * time.Minute
)
