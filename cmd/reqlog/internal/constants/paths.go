package constants

// SkipPaths are request path prefixes that are not logged.
// Matching is a case-sensitive prefix check, so "/api/health" is still logged.
// Used in: sanitize/paths.go, config/config.go
var SkipPaths = []string{
	"/assets",
	"/docs",
	"/health",
}

// Default file and directory paths used by the application.
const (
	// DefaultConfigPath is where the YAML configuration is looked up when no
	// -config flag is given. A missing file at this path is not an error.
	// Used in: config/config.go
	DefaultConfigPath = "/etc/reqlog.yaml"

	// DefaultLogDirectory is the directory for the log file.
	// Used in: config/config.go, cmd/reqlog/main.go
	DefaultLogDirectory = "/var/log/reqlog"

	// DefaultMetricsPath is where Prometheus metrics are served.
	// Used in: config/config.go, server/server.go
	DefaultMetricsPath = "/metrics"
)
