// Package constants provides centralized constant definitions for reqlog.
// Values that are shared between the sanitizer, the request logger and the
// demo server live here so every component agrees on names and defaults.
package constants

// HTTP header names used throughout the application.
const (
	// HeaderRequestID is the HTTP header used for request tracking and correlation.
	// Used in: errors/errors.go, logging/middleware.go
	// Purpose: Ties the request, response and error log entries together
	HeaderRequestID = "X-Request-ID"

	// HeaderContentType is the standard HTTP Content-Type header.
	// Used in: errors/errors.go, logging/body.go, server/server.go
	HeaderContentType = "Content-Type"
)

// Header keys redacted by the header sanitizer. Matching is exact, so the
// request logger lowercases header names before handing them over.
const (
	// HeaderKeyAuthorization carries bearer tokens and basic credentials.
	// Used in: sanitize/headers.go
	HeaderKeyAuthorization = "authorization"

	// HeaderKeyCookie carries session cookies.
	// Used in: sanitize/headers.go
	HeaderKeyCookie = "cookie"
)

// MIME types used when decoding request bodies and writing responses.
const (
	// MIMEApplicationJSON is the MIME type for JSON bodies.
	// Used in: errors/errors.go, logging/body.go, server/server.go
	MIMEApplicationJSON = "application/json"

	// MIMEFormURLEncoded is the MIME type for HTML form posts.
	// Used in: logging/body.go
	MIMEFormURLEncoded = "application/x-www-form-urlencoded"

	// MIMETextPlain is the MIME type for plain text responses.
	// Used in: server/server.go
	MIMETextPlain = "text/plain; charset=utf-8"
)
