package logging

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
)

// Observer is notified of every lifecycle event the request logger handles.
type Observer interface {
	RequestSkipped(method string)
	ResponseLogged(method string, status int, duration time.Duration)
	ErrorLogged(name string)
}

// RequestLoggerConfig holds configuration for request logging middleware
type RequestLoggerConfig struct {
	Logger *Logger

	// Filter selects the paths that are not logged.
	// Defaults to sanitize.DefaultPathFilter().
	Filter *sanitize.PathFilter

	// Sanitizer redacts headers, query parameters and bodies.
	// Defaults to the logger's sanitizer.
	Sanitizer *sanitize.Sanitizer

	// LogBodies logs sanitized POST, PUT and PATCH bodies.
	LogBodies bool

	// MaxBodyBytes caps how much of a body is buffered for logging.
	MaxBodyBytes int64

	// ShowStack adds stack traces to error entries. Off in production.
	ShowStack bool

	// Observer, if set, receives lifecycle notifications.
	Observer Observer
}

// RequestLogger is middleware for logging HTTP requests. It writes one entry
// when a request arrives, one when the response is sent and one for every
// error reported through OnError.
type RequestLogger struct {
	config    RequestLoggerConfig
	logger    *Logger
	filter    *sanitize.PathFilter
	sanitizer *sanitize.Sanitizer
}

// NewRequestLogger creates a new request logging middleware
func NewRequestLogger(config RequestLoggerConfig) *RequestLogger {
	if config.Logger == nil {
		config.Logger = GetLogger()
	}
	if config.Filter == nil {
		config.Filter = sanitize.DefaultPathFilter()
	}
	if config.Sanitizer == nil {
		config.Sanitizer = config.Logger.sanitizer
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = constants.MaxLoggedBodyBytes
	}
	if config.MaxBodyBytes > constants.MaxLoggedBodyLimit {
		config.MaxBodyBytes = constants.MaxLoggedBodyLimit
	}

	return &RequestLogger{
		config:    config,
		logger:    config.Logger,
		filter:    config.Filter,
		sanitizer: config.Sanitizer,
	}
}

// Middleware returns the HTTP middleware
func (rl *RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(constants.HeaderRequestID, requestID)
		r = r.WithContext(SetRequestID(r.Context(), requestID))

		if rl.filter.ShouldSkip(r.URL.Path) {
			if rl.config.Observer != nil {
				rl.config.Observer.RequestSkipped(r.Method)
			}
			next.ServeHTTP(w, r)
			return
		}

		rl.OnRequest(r)

		var body any
		if rl.config.LogBodies && bodyMethods[r.Method] {
			body = captureBody(r, rl.config.MaxBodyBytes)
		}

		m := httpsnoop.CaptureMetrics(next, w, r)

		rl.OnResponse(r, m.Code, m.Duration, m.Written, body)
	})
}

// OnRequest writes the "Incoming request" entry.
func (rl *RequestLogger) OnRequest(r *http.Request) {
	rl.logger.logger.Info().
		Str("type", constants.LogTypeRequest).
		Str(constants.ContextKeyRequestID, GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("url", r.URL.RequestURI()).
		Str("hostname", r.Host).
		Str("remote_addr", r.RemoteAddr).
		Interface("headers", rl.sanitizer.Headers(HeaderMap(r.Header))).
		Interface("query", rl.sanitizer.Data(ValuesMap(r.URL.Query()))).
		Msg("Incoming request")
}

// OnResponse writes the "Response sent" entry. body is the decoded request
// body and is sanitized before it is logged; nil leaves it out.
func (rl *RequestLogger) OnResponse(r *http.Request, status int, duration time.Duration, written int64, body any) {
	event := rl.logger.logger.Info()
	if status >= http.StatusInternalServerError {
		event = rl.logger.logger.Error()
	} else if status >= http.StatusBadRequest {
		event = rl.logger.logger.Warn()
	}

	event = event.
		Str("type", constants.LogTypeResponse).
		Str(constants.ContextKeyRequestID, GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("url", r.URL.RequestURI()).
		Int("status_code", status).
		Str("duration", formatDuration(duration)).
		Int64("bytes", written)

	if body != nil {
		event = event.Interface("request_body", rl.sanitizer.Data(body))
	}

	event.Msg("Response sent: " + strconv.Itoa(status))

	if rl.config.Observer != nil {
		rl.config.Observer.ResponseLogged(r.Method, status, duration)
	}
}

// OnError writes the "Request error occurred" entry. Errors are logged even
// for paths the filter skips.
func (rl *RequestLogger) OnError(r *http.Request, err error) {
	if err == nil {
		return
	}

	name := ErrorName(err)
	details := zerolog.Dict().
		Str("name", name).
		Str("message", err.Error())
	if rl.config.ShowStack {
		details = details.Str("stack", fmt.Sprintf("%+v", err))
	}

	rl.logger.logger.Error().
		Str("type", constants.LogTypeError).
		Str(constants.ContextKeyRequestID, GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("url", r.URL.RequestURI()).
		Dict("error", details).
		Msg("Request error occurred")

	if rl.config.Observer != nil {
		rl.config.Observer.ErrorLogged(name)
	}
}

// ErrorName returns err's Name() if something in its chain has one, and the
// Go type of the root cause otherwise.
func ErrorName(err error) string {
	var named interface{ Name() string }
	if errors.As(err, &named) {
		return named.Name()
	}
	return fmt.Sprintf("%T", errors.UnwrapAll(err))
}

func formatDuration(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
