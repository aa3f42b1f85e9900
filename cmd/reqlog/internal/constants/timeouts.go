package constants

import "time"

// Timeout and size limits used by the demo server and the request logger.
const (
	// ShutdownTimeout is the maximum time allowed for graceful shutdown.
	// Used in: shutdown/shutdown.go
	// Default: 30 seconds
	ShutdownTimeout = 30 * time.Second

	// HTTPReadTimeout is the maximum duration for reading the entire request.
	// Used in: server/server.go
	// Default: 15 seconds
	HTTPReadTimeout = 15 * time.Second

	// HTTPWriteTimeout is the maximum duration before timing out writes of the response.
	// Used in: server/server.go
	// Default: 15 seconds
	HTTPWriteTimeout = 15 * time.Second

	// HTTPIdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Used in: server/server.go
	// Default: 60 seconds
	HTTPIdleTimeout = 60 * time.Second

	// HealthCheckTimeout bounds a single readiness check.
	// Used in: health/health.go
	// Default: 5 seconds
	HealthCheckTimeout = 5 * time.Second

	// MaxLoggedBodyBytes caps how much of a request body is buffered for logging.
	// Bodies larger than this are passed to the handler untouched and not logged.
	// Used in: config/config.go, logging/body.go
	// Default: 64 KiB
	MaxLoggedBodyBytes = 64 * 1024

	// MaxLoggedBodyLimit is the largest configurable logged-body cap.
	// Larger configured values are clamped to it.
	// Used in: config/config.go, logging/middleware.go
	// Default: 16 MiB
	MaxLoggedBodyLimit = 16 << 20

	// MaxRequestBodyBytes is the largest body the demo API handlers accept.
	// Used in: server/server.go
	// Default: 1 MiB
	MaxRequestBodyBytes = 1 << 20
)
