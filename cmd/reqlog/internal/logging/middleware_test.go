package logging

import (
	"bytes"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
)

type recordingObserver struct {
	mu        sync.Mutex
	skipped   int
	responses []int
	errors    []string
}

func (o *recordingObserver) RequestSkipped(method string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}

func (o *recordingObserver) ResponseLogged(method string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.responses = append(o.responses, status)
}

func (o *recordingObserver) ErrorLogged(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, name)
}

func newTestRequestLogger(buf *bytes.Buffer, config RequestLoggerConfig) *RequestLogger {
	config.Logger = newJSONLogger(buf, LevelDebug)
	return NewRequestLogger(config)
}

func TestNewRequestLogger_Defaults(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

	if rl.filter != sanitize.DefaultPathFilter() {
		t.Error("Expected default path filter")
	}
	if rl.sanitizer != sanitize.Default() {
		t.Error("Expected default sanitizer")
	}
	if rl.config.MaxBodyBytes != 64*1024 {
		t.Errorf("Expected default body limit, got %d", rl.config.MaxBodyBytes)
	}
}

func TestNewRequestLogger_BodyLimitClamped(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{LogBodies: true, MaxBodyBytes: math.MaxInt64})

	if rl.config.MaxBodyBytes != constants.MaxLoggedBodyLimit {
		t.Errorf("Expected body limit clamped to %d, got %d", constants.MaxLoggedBodyLimit, rl.config.MaxBodyBytes)
	}

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(`{"user":"bob","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"user":"bob"`) {
		t.Errorf("Expected body to be logged, got %s", buf.String())
	}
}

func TestRequestLogger_Middleware(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users?page=2&token=abc", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Cookie", "session=1")
	req.Header.Set("X-Real-IP", "1.2.3.4")
	w := httptest.NewRecorder()

	rl.Middleware(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header to be set")
	}

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected request and response entries, got %d", len(entries))
	}

	request := entries[0]
	if request["type"] != "request" || request["message"] != "Incoming request" {
		t.Errorf("Unexpected request entry %v", request)
	}
	if request["method"] != "GET" {
		t.Errorf("Expected method 'GET', got '%v'", request["method"])
	}
	if request["url"] != "/api/users?page=2&token=abc" {
		t.Errorf("Expected full url, got '%v'", request["url"])
	}

	headers := request["headers"].(map[string]any)
	if headers["authorization"] != "[REDACTED]" || headers["cookie"] != "[REDACTED]" {
		t.Errorf("Expected credentials to be redacted, got %v", headers)
	}
	if headers["x-real-ip"] != "1.2.3.4" {
		t.Errorf("Expected x-real-ip to be kept, got %v", headers["x-real-ip"])
	}

	query := request["query"].(map[string]any)
	if query["page"] != "2" || query["token"] != "[REDACTED]" {
		t.Errorf("Expected sanitized query, got %v", query)
	}

	response := entries[1]
	if response["type"] != "response" || response["message"] != "Response sent: 200" {
		t.Errorf("Unexpected response entry %v", response)
	}
	if response["status_code"] != float64(200) {
		t.Errorf("Expected status_code 200, got '%v'", response["status_code"])
	}
	if d, _ := response["duration"].(string); !strings.HasSuffix(d, "ms") {
		t.Errorf("Expected duration in ms, got '%v'", response["duration"])
	}
	if response["bytes"] != float64(2) {
		t.Errorf("Expected 2 bytes written, got '%v'", response["bytes"])
	}
	if _, ok := response["request_body"]; ok {
		t.Error("Expected no request_body for GET")
	}
	if request["request_id"] != response["request_id"] {
		t.Error("Expected request and response to share the request ID")
	}
}

func TestRequestLogger_Middleware_SkipPaths(t *testing.T) {
	paths := []string{"/health", "/health/live", "/docs/index.html", "/assets/app.js"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			var buf bytes.Buffer
			observer := &recordingObserver{}
			rl := newTestRequestLogger(&buf, RequestLoggerConfig{Observer: observer})

			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if GetRequestID(r.Context()) == "" {
					t.Error("Expected request ID on skipped requests")
				}
			})

			rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))

			if !called {
				t.Error("Expected handler to be called")
			}
			if buf.Len() > 0 {
				t.Errorf("Expected no log output for skipped path, got: %s", buf.String())
			}
			if observer.skipped != 1 {
				t.Errorf("Expected 1 skipped request, got %d", observer.skipped)
			}
		})
	}
}

func TestRequestLogger_Middleware_NotSkippedOnSubstring(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if len(decodeEntries(t, &buf)) != 2 {
		t.Error("Expected /api/health to be logged")
	}
}

func TestRequestLogger_Middleware_CustomFilter(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{
		Filter: sanitize.NewPathFilter("/metrics"),
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(decodeEntries(t, &buf)) != 2 {
		t.Errorf("Expected only /health to be logged, got %s", buf.String())
	}
}

func TestRequestLogger_Middleware_ExistingRequestID(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("X-Request-ID", "existing-id")
	w := httptest.NewRecorder()

	rl.Middleware(handler).ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") != "existing-id" {
		t.Errorf("Expected 'existing-id', got '%s'", w.Header().Get("X-Request-ID"))
	}

	for _, entry := range decodeEntries(t, &buf) {
		if entry["request_id"] != "existing-id" {
			t.Errorf("Expected request_id 'existing-id', got '%v'", entry["request_id"])
		}
	}
}

func TestRequestLogger_Middleware_StatusLevels(t *testing.T) {
	testCases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusFound, "info"},
		{http.StatusNotFound, "warn"},
		{http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var buf bytes.Buffer
			rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users", nil))

			entries := decodeEntries(t, &buf)
			if entries[1]["level"] != tc.level {
				t.Errorf("Expected level '%s' for %d, got '%v'", tc.level, tc.status, entries[1]["level"])
			}
		})
	}
}

func TestRequestLogger_Middleware_JSONBody(t *testing.T) {
	var buf bytes.Buffer
	observer := &recordingObserver{}
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{LogBodies: true, Observer: observer})

	raw := `{"user":"a","password":"p","nested":{"apiKey":"k","note":"ok"},"amount":12.50}`

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = string(data)
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

	if seen != raw {
		t.Errorf("Expected handler to read the full body, got %q", seen)
	}

	response := decodeEntries(t, &buf)[1]
	body, ok := response["request_body"].(map[string]any)
	if !ok {
		t.Fatalf("Expected request_body object, got %v", response["request_body"])
	}

	want := map[string]any{
		"user":     "a",
		"password": "[REDACTED]",
		"nested":   map[string]any{"apiKey": "[REDACTED]", "note": "ok"},
		"amount":   12.5,
	}
	if !reflect.DeepEqual(body, want) {
		t.Errorf("request_body = %v, want %v", body, want)
	}

	if len(observer.responses) != 1 || observer.responses[0] != http.StatusCreated {
		t.Errorf("Expected observer to see 201, got %v", observer.responses)
	}
}

func TestRequestLogger_Middleware_FormBody(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{LogBodies: true})

	form := url.Values{"email": {"a@b.c"}, "password": {"p"}}
	req := httptest.NewRequest(http.MethodPut, "/api/users/1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm failed: %v", err)
		}
		if r.PostForm.Get("password") != "p" {
			t.Error("Expected handler to see the original form")
		}
	})
	rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

	body := decodeEntries(t, &buf)[1]["request_body"].(map[string]any)
	if body["email"] != "a@b.c" || body["password"] != "[REDACTED]" {
		t.Errorf("Expected sanitized form body, got %v", body)
	}
}

func TestRequestLogger_Middleware_BodyNotLogged(t *testing.T) {
	testCases := []struct {
		name        string
		method      string
		contentType string
		body        string
		logBodies   bool
		limit       int64
	}{
		{"Disabled", http.MethodPost, "application/json", `{"a":1}`, false, 0},
		{"GET method", http.MethodGet, "application/json", `{"a":1}`, true, 0},
		{"DELETE method", http.MethodDelete, "application/json", `{"a":1}`, true, 0},
		{"Plain text", http.MethodPost, "text/plain", "password=p", true, 0},
		{"Malformed JSON", http.MethodPost, "application/json", `{"a":`, true, 0},
		{"Empty body", http.MethodPost, "application/json", "", true, 0},
		{"Over limit", http.MethodPost, "application/json", `{"note":"0123456789"}`, true, 8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			rl := newTestRequestLogger(&buf, RequestLoggerConfig{LogBodies: tc.logBodies, MaxBodyBytes: tc.limit})

			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, _ := io.ReadAll(r.Body)
				seen = string(data)
			})

			req := httptest.NewRequest(tc.method, "/api/items", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.contentType)
			rl.Middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

			if seen != tc.body {
				t.Errorf("Expected handler to see %q, got %q", tc.body, seen)
			}

			response := decodeEntries(t, &buf)[1]
			if _, ok := response["request_body"]; ok {
				t.Errorf("Expected no request_body, got %v", response["request_body"])
			}
		})
	}
}

func TestRequestLogger_OnError(t *testing.T) {
	var buf bytes.Buffer
	observer := &recordingObserver{}
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{ShowStack: true, Observer: observer})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rl.OnError(req, errors.New("database unreachable"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected error entry even on skipped path, got %d entries", len(entries))
	}

	entry := entries[0]
	if entry["type"] != "error" || entry["level"] != "error" || entry["message"] != "Request error occurred" {
		t.Errorf("Unexpected error entry %v", entry)
	}
	if entry["url"] != "/health/ready" {
		t.Errorf("Expected url '/health/ready', got '%v'", entry["url"])
	}

	details := entry["error"].(map[string]any)
	if details["name"] != "*errors.errorString" {
		t.Errorf("Expected type name, got '%v'", details["name"])
	}
	if details["message"] != "database unreachable" {
		t.Errorf("Expected message, got '%v'", details["message"])
	}
	if _, ok := details["stack"]; !ok {
		t.Error("Expected stack when ShowStack is set")
	}

	if len(observer.errors) != 1 {
		t.Errorf("Expected observer to see 1 error, got %d", len(observer.errors))
	}
}

func TestRequestLogger_OnError_NoStack(t *testing.T) {
	var buf bytes.Buffer
	rl := newTestRequestLogger(&buf, RequestLoggerConfig{})

	rl.OnError(httptest.NewRequest(http.MethodGet, "/api", nil), errors.New("boom"))
	rl.OnError(httptest.NewRequest(http.MethodGet, "/api", nil), nil)

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected nil error to be ignored, got %d entries", len(entries))
	}

	details := entries[0]["error"].(map[string]any)
	if _, ok := details["stack"]; ok {
		t.Error("Expected no stack without ShowStack")
	}
}

type namedError struct{}

func (namedError) Error() string { return "named" }
func (namedError) Name() string  { return "NamedError" }

func TestErrorName(t *testing.T) {
	if got := ErrorName(namedError{}); got != "NamedError" {
		t.Errorf("Expected 'NamedError', got '%s'", got)
	}

	wrapped := &wrapError{err: namedError{}}
	if got := ErrorName(wrapped); got != "NamedError" {
		t.Errorf("Expected name from the chain, got '%s'", got)
	}
}

type wrapError struct{ err error }

func (w *wrapError) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapError) Unwrap() error { return w.err }

func TestHeaderMap(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")

	got := HeaderMap(h)
	want := map[string]any{
		"content-type": "application/json",
		"accept":       []any{"text/html", "application/json"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderMap() = %v, want %v", got, want)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(1500 * time.Microsecond); got != "1ms" {
		t.Errorf("Expected '1ms', got '%s'", got)
	}
	if got := formatDuration(2 * time.Second); got != "2000ms" {
		t.Errorf("Expected '2000ms', got '%s'", got)
	}
}
