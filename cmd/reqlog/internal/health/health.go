// Package health serves liveness and readiness endpoints. Both live under
// /health, which the request logger skips; failed readiness checks are still
// reported through the error hook.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	apierrors "github.com/thalib/reqlog/cmd/reqlog/internal/errors"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Time    time.Time     `json:"time"`
	Latency time.Duration `json:"latency,omitempty"`
}

// HealthResponse is the response for the liveness endpoints
type HealthResponse struct {
	Status    Status    `json:"status"`
	Name      string    `json:"name"`
	Version   string    `json:"version,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse is the response for /health/ready
type ReadinessResponse struct {
	Status    Status                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker is a function that performs a health check
type Checker func(ctx context.Context) CheckResult

// Config holds configuration for the health service
type Config struct {
	// Timeout is the maximum time for each readiness request
	Timeout time.Duration

	// Name and Version are echoed by the liveness endpoints
	Name    string
	Version string

	// OnError receives a SERVICE_UNAVAILABLE error for every unhealthy check
	OnError func(r *http.Request, err error)
}

// Service provides health check functionality
type Service struct {
	config   Config
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewService creates a new health check service
func NewService(config Config) *Service {
	if config.Timeout == 0 {
		config.Timeout = constants.HealthCheckTimeout
	}

	return &Service{
		config:   config,
		checkers: make(map[string]Checker),
	}
}

// RegisterChecker adds a readiness checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// LivenessHandler returns 200 while the process is serving requests
func (s *Service) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Name:      s.config.Name,
		Version:   s.config.Version,
		Timestamp: time.Now().UTC(),
	})
}

// ReadinessHandler runs every registered checker
func (s *Service) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.Timeout)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()
	sort.Strings(names)

	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]CheckResult, len(names)),
		Timestamp: time.Now().UTC(),
	}

	for _, name := range names {
		result := checkers[name](ctx)
		response.Checks[name] = result

		switch result.Status {
		case StatusUnhealthy:
			response.Status = StatusUnhealthy
			if s.config.OnError != nil {
				s.config.OnError(r, apierrors.NewServiceUnavailableError("health check "+name+" failed").
					Wrap(errors.Newf("%s", result.Message)))
			}
		case StatusDegraded:
			if response.Status == StatusHealthy {
				response.Status = StatusDegraded
			}
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// LogDirChecker reports whether the log directory exists and is a directory.
// An empty path means logging to stdout only and is always healthy.
func LogDirChecker(path string) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		if path == "" {
			return CheckResult{Status: StatusHealthy, Message: "Logging to stdout", Time: start}
		}

		info, err := os.Stat(path)
		if err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: "Log directory unavailable: " + err.Error(),
				Time:    start,
				Latency: time.Since(start),
			}
		}
		if !info.IsDir() {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("Log path %s is not a directory", path),
				Time:    start,
				Latency: time.Since(start),
			}
		}

		return CheckResult{
			Status:  StatusHealthy,
			Message: "Log directory available",
			Time:    start,
			Latency: time.Since(start),
		}
	}
}
