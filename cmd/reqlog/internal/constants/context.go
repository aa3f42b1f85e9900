package constants

// Context keys and log field names shared by the middleware chain.
const (
	// ContextKeyRequestID is the context key and log field for request IDs.
	// Used in: errors/errors.go, logging/logger.go
	ContextKeyRequestID = "request_id"
)

// Values of the "type" field on lifecycle log entries.
// Used in: logging/middleware.go
const (
	LogTypeRequest  = "request"
	LogTypeResponse = "response"
	LogTypeError    = "error"
)
