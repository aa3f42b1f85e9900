// Package server hosts the request logger in front of a small demo API.
// Handlers run inside the recovery middleware, which runs inside the request
// logger, so panics are logged as errors and their 500 responses are logged
// like any other.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/config"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	apierrors "github.com/thalib/reqlog/cmd/reqlog/internal/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/health"
	"github.com/thalib/reqlog/cmd/reqlog/internal/logging"
	"github.com/thalib/reqlog/cmd/reqlog/internal/metrics"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
	"github.com/thalib/reqlog/cmd/reqlog/internal/shutdown"
)

const serviceName = "reqlog"

// Server represents the HTTP server
type Server struct {
	config        *config.AppConfig
	logger        *logging.Logger
	mux           *http.ServeMux
	server        *http.Server
	requestLogger *logging.RequestLogger
	errorHandler  *apierrors.ErrorHandler
	health        *health.Service
	metrics       *metrics.Recorder
}

// New creates a new server instance
func New(cfg *config.AppConfig, logger *logging.Logger) *Server {
	mux := http.NewServeMux()

	srv := &Server{
		config: cfg,
		logger: logger,
		mux:    mux,
	}

	var observer logging.Observer
	if cfg.Metrics.Enabled {
		srv.metrics = metrics.NewRecorder()
		observer = srv.metrics
	}

	srv.requestLogger = logging.NewRequestLogger(logging.RequestLoggerConfig{
		Logger:       logger,
		Filter:       sanitize.NewPathFilter(cfg.AllSkipPaths()...),
		Sanitizer:    sanitize.New(cfg.AllSensitiveFields(), ""),
		LogBodies:    cfg.Logging.LogBodies,
		MaxBodyBytes: cfg.Logging.MaxBodyBytes,
		ShowStack:    !cfg.IsProduction(),
		Observer:     observer,
	})

	srv.errorHandler = apierrors.NewErrorHandler(apierrors.ErrorHandlerConfig{
		ShowInternalErrors: !cfg.IsProduction(),
		OnError:            srv.requestLogger.OnError,
	})

	srv.health = health.NewService(health.Config{
		Name:    serviceName,
		Version: config.Version,
		OnError: srv.requestLogger.OnError,
	})
	srv.health.RegisterChecker("log_directory", health.LogDirChecker(cfg.Logging.Path))

	srv.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  constants.HTTPReadTimeout,
		WriteTimeout: constants.HTTPWriteTimeout,
		IdleTimeout:  constants.HTTPIdleTimeout,
		ErrorLog:     logger.StdLogger(logging.LevelError),
	}

	srv.setupRoutes()
	return srv
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.health.LivenessHandler)
	s.mux.HandleFunc("GET /health/live", s.health.LivenessHandler)
	s.mux.HandleFunc("GET /health/ready", s.health.ReadinessHandler)

	s.mux.HandleFunc("GET /docs", s.docsHandler)
	s.mux.HandleFunc("GET /assets/", s.assetHandler)

	s.mux.HandleFunc("POST /api/echo", s.echoHandler)
	s.mux.HandleFunc("PUT /api/echo", s.echoHandler)
	s.mux.HandleFunc("PATCH /api/echo", s.echoHandler)
	s.mux.HandleFunc("GET /api/echo", s.echoHandler)
	s.mux.HandleFunc("GET /api/fail", s.failHandler)
	s.mux.HandleFunc("GET /api/panic", s.panicHandler)

	// Method-less patterns are less specific than the ones above, so they only
	// see methods the API does not serve. They replace ServeMux's plain-text 405.
	s.mux.HandleFunc("/api/echo", s.methodNotAllowed(http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch))
	s.mux.HandleFunc("/api/fail", s.methodNotAllowed(http.MethodGet, http.MethodHead))
	s.mux.HandleFunc("/api/panic", s.methodNotAllowed(http.MethodGet, http.MethodHead))

	if s.metrics != nil {
		s.mux.Handle("GET "+s.config.Metrics.Path, s.metrics.Handler())
	}

	s.mux.HandleFunc("/", s.notFoundHandler)
}

// Handler returns the routes wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	return s.requestLogger.Middleware(s.errorHandler.RecoveryMiddleware(s.mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Infof("Starting server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Run starts the server and blocks until SIGINT or SIGTERM has been handled.
// The log file is closed once the server has drained.
func (s *Server) Run() error {
	gs := shutdown.NewGracefulServer(s, s.Start, shutdown.Config{
		Timeout: constants.ShutdownTimeout,
		Logger:  s.logger,
	})
	gs.RegisterCloser("log file", s.logger)
	return gs.Run()
}

func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.MIMETextPlain)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(docsText))
}

func (s *Server) assetHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.HeaderContentType, constants.MIMETextPlain)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(r.URL.Path + "\n"))
}

// echoHandler returns the decoded JSON body, or the query for GET.
// The response is not sanitized; only the log entry is.
func (s *Server) echoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		s.writeJSON(w, r, http.StatusOK, map[string]any{"query": logging.ValuesMap(r.URL.Query())})
		return
	}

	var body any
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.errorHandler.WriteError(w, r, apierrors.NewPayloadTooLargeError(tooLarge.Limit))
		case errors.Is(err, io.EOF):
			s.errorHandler.WriteError(w, r, apierrors.NewBadRequestError("Request body is required"))
		default:
			s.errorHandler.WriteError(w, r, apierrors.NewInvalidJSONError(err))
		}
		return
	}

	if kind := sanitize.KindOf(body); !kind.Composite() {
		s.errorHandler.WriteError(w, r, apierrors.NewValidationError(
			"Body must be a JSON object or array",
			map[string]any{"kind": kind.String()},
		))
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{"body": body})
}

// failHandler reports a wrapped internal error through the error handler.
func (s *Server) failHandler(w http.ResponseWriter, r *http.Request) {
	err := errors.Wrap(errUpstream, "loading demo resource")
	s.errorHandler.WriteErrorFromError(w, r, err)
}

func (s *Server) panicHandler(w http.ResponseWriter, r *http.Request) {
	panic("demo panic")
}

// methodNotAllowed answers with a JSON 405 listing the allowed methods.
func (s *Server) methodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		s.errorHandler.WriteError(w, r, apierrors.NewMethodNotAllowedError(r.Method))
	}
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.errorHandler.WriteError(w, r, apierrors.NewNotFoundError("Endpoint"))
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	w.Header().Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithContext(r.Context()).ErrorWithErr("Error encoding JSON response", err)
	}
}

var errUpstream = errors.New("upstream unavailable")

const docsText = `reqlog demo server

GET  /health, /health/live   liveness (not logged)
GET  /health/ready           readiness (not logged)
GET  /docs, /assets/...      static content (not logged)
POST /api/echo               echoes a JSON body; the logged copy is redacted
GET  /api/fail               returns a 500 and logs the error
GET  /api/panic              panics; recovered, logged and answered with a 500
`
