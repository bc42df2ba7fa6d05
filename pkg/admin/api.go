package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/listener"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
	"github.com/jetmock/jetmock/pkg/requestlog"
)

// Backend exposes the stores and services the API manages.
// *engine.Server satisfies it.
type Backend interface {
	Service() *engine.FlowService
	Flows() *flowstore.Repository
	Groups() *flowstore.GroupStore
	Brokers() *flowstore.BrokerStore
	Globals() *flowstore.GlobalStore
	Listeners() *listener.Manager
	Metrics() *metrics.Metrics
	Requests() requestlog.Store
}

// API is the admin HTTP server.
type API struct {
	addr      string
	backend   Backend
	log       *slog.Logger
	cors      CORSConfig
	startTime time.Time
	handler   http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	boundAddr  string
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the API's logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithCORS configures the CORS settings for the admin API.
// If not set, every origin is allowed.
func WithCORS(config CORSConfig) Option {
	return func(a *API) { a.cors = config }
}

// NewAPI creates an admin API listening on addr.
func NewAPI(addr string, backend Backend, opts ...Option) *API {
	a := &API{
		addr:      addr,
		backend:   backend,
		log:       logging.Nop(),
		cors:      DefaultCORSConfig(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)
	a.handler = a.withMiddleware(mux)
	return a
}

// Handler returns the API's HTTP handler with middleware applied.
func (a *API) Handler() http.Handler {
	return a.handler
}

// Addr returns the bound address once started.
func (a *API) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.boundAddr
}

// Start begins serving in the background.
func (a *API) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.httpServer != nil {
		return fmt.Errorf("admin API is already running")
	}
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.addr, err)
	}
	a.boundAddr = ln.Addr().String()
	a.startTime = time.Now()
	a.httpServer = &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.log.Info("starting admin API", "addr", a.boundAddr)
	srv := a.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("admin API error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the admin API server.
func (a *API) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.httpServer.Shutdown(ctx)
	a.httpServer = nil
	return err
}

// Uptime returns the API uptime in seconds.
func (a *API) Uptime() int {
	return int(time.Since(a.startTime).Seconds())
}
