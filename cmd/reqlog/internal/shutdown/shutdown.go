// Package shutdown runs registered cleanup functions when the process
// receives SIGINT or SIGTERM, last registered first.
package shutdown

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/logging"
)

// ShutdownFunc is a function that will be called during shutdown
type ShutdownFunc func(ctx context.Context) error

// Config holds configuration for the shutdown handler
type Config struct {
	// Timeout is the maximum time to wait for shutdown completion
	Timeout time.Duration

	// Signals is the list of OS signals to listen for
	Signals []os.Signal

	// OnShutdownStart is called when shutdown begins
	OnShutdownStart func()

	// OnShutdownComplete is called when shutdown completes
	OnShutdownComplete func(err error)

	// Logger receives shutdown progress (default: the global logger)
	Logger *logging.Logger
}

// DefaultConfig returns the default shutdown configuration
func DefaultConfig() Config {
	return Config{
		Timeout: constants.ShutdownTimeout,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		Logger:  logging.GetLogger(),
	}
}

// Handler manages graceful shutdown of services
type Handler struct {
	config      Config
	funcs       []namedShutdownFunc
	mu          sync.Mutex
	signals     chan os.Signal
	trigger     chan struct{}
	triggerOnce sync.Once
	runOnce     sync.Once
	done        chan struct{}
	started     bool
}

type namedShutdownFunc struct {
	name string
	fn   ShutdownFunc
}

// NewHandler creates a new shutdown handler
func NewHandler(config Config) *Handler {
	defaults := DefaultConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Signals == nil {
		config.Signals = defaults.Signals
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	return &Handler{
		config:  config,
		signals: make(chan os.Signal, 1),
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Register adds a shutdown function. Functions run in LIFO order.
func (h *Handler) Register(name string, fn ShutdownFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.funcs = append(h.funcs, namedShutdownFunc{name: name, fn: fn})
}

// HTTPServer is an interface for HTTP servers that support graceful shutdown
type HTTPServer interface {
	Shutdown(ctx context.Context) error
}

// RegisterServer registers an HTTP server for shutdown
func (h *Handler) RegisterServer(name string, server HTTPServer) {
	h.Register(name, server.Shutdown)
}

// RegisterCloser registers an io.Closer, such as the log file, for shutdown
func (h *Handler) RegisterCloser(name string, closer io.Closer) {
	h.Register(name, func(ctx context.Context) error {
		return closer.Close()
	})
}

// Start blocks until a signal arrives or Trigger is called, then shuts down.
func (h *Handler) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	signal.Notify(h.signals, h.config.Signals...)
	defer signal.Stop(h.signals)

	select {
	case sig := <-h.signals:
		h.config.Logger.Infof("Shutdown signal received: %s", sig)
	case <-h.trigger:
		h.config.Logger.Info("Shutdown triggered")
	}

	h.run()
}

// Wait blocks until shutdown is complete
func (h *Handler) Wait() {
	<-h.done
}

// Trigger initiates shutdown programmatically. Extra calls are no-ops.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })

	h.mu.Lock()
	started := h.started
	h.mu.Unlock()

	if !started {
		go h.run()
	}
}

func (h *Handler) run() {
	h.runOnce.Do(h.performShutdown)
}

func (h *Handler) performShutdown() {
	defer close(h.done)

	if h.config.OnShutdownStart != nil {
		h.config.OnShutdownStart()
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.mu.Lock()
	funcs := make([]namedShutdownFunc, len(h.funcs))
	copy(funcs, h.funcs)
	h.mu.Unlock()

	var shutdownErr error
	for i := len(funcs) - 1; i >= 0; i-- {
		f := funcs[i]
		h.config.Logger.Debugf("Shutting down: %s", f.name)

		start := time.Now()
		if err := f.fn(ctx); err != nil {
			h.config.Logger.ErrorWithErr("Error shutting down "+f.name, err)
			shutdownErr = errors.CombineErrors(shutdownErr, errors.Wrapf(err, "shutting down %s", f.name))
			continue
		}
		h.config.Logger.Debugf("Shut down %s successfully (took %v)", f.name, time.Since(start))
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		h.config.Logger.Warn("Shutdown timeout exceeded")
		if shutdownErr == nil {
			shutdownErr = ctx.Err()
		}
	}

	if h.config.OnShutdownComplete != nil {
		h.config.OnShutdownComplete(shutdownErr)
	}

	h.config.Logger.Info("Shutdown complete")
}

// GracefulServer wraps an HTTP server with graceful shutdown support.
// Functions registered on it run after the server has shut down.
type GracefulServer struct {
	server          HTTPServer
	shutdownHandler *Handler
	startFunc       func() error
}

// NewGracefulServer creates a new graceful server wrapper
func NewGracefulServer(server HTTPServer, startFunc func() error, config Config) *GracefulServer {
	return &GracefulServer{
		server:          server,
		shutdownHandler: NewHandler(config),
		startFunc:       startFunc,
	}
}

// Register adds a shutdown function to be called during shutdown
func (gs *GracefulServer) Register(name string, fn ShutdownFunc) {
	gs.shutdownHandler.Register(name, fn)
}

// RegisterCloser adds an io.Closer to be closed during shutdown
func (gs *GracefulServer) RegisterCloser(name string, closer io.Closer) {
	gs.shutdownHandler.RegisterCloser(name, closer)
}

// Run starts the server and blocks until shutdown completes. A server that
// fails to start triggers shutdown and its error is returned.
func (gs *GracefulServer) Run() error {
	// Registered last so it is shut down first.
	gs.shutdownHandler.RegisterServer("http-server", gs.server)
	go gs.shutdownHandler.Start()

	serverErr := make(chan error, 1)
	go func() {
		err := gs.startFunc()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- errors.Wrap(err, "server stopped")
			gs.shutdownHandler.Trigger()
		}
		close(serverErr)
	}()

	gs.shutdownHandler.Wait()

	select {
	case err := <-serverErr:
		return err
	default:
		return nil
	}
}

// Shutdown triggers shutdown programmatically
func (gs *GracefulServer) Shutdown() {
	gs.shutdownHandler.Trigger()
}
