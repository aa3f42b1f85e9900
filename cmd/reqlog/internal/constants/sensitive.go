package constants

// SensitiveFields are matched case-insensitively as substrings of payload keys.
// A key such as "passwordHint" or "tokenCount" is therefore redacted too.
// Used in: sanitize/sanitize.go, config/config.go
var SensitiveFields = []string{
	"password",
	"confirmPassword",
	"token",
	"accessToken",
	"refreshToken",
	"cvv",
	"CVV",
	"secret",
	"apiKey",
}

// RedactedPlaceholder is the string used to replace sensitive values in logs.
// Used in: sanitize/sanitize.go, sanitize/headers.go, logging/logger.go
const RedactedPlaceholder = "[REDACTED]"
