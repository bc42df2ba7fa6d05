package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/condition"
	"github.com/jetmock/jetmock/pkg/config"
	"github.com/jetmock/jetmock/pkg/flowstore"
	"github.com/jetmock/jetmock/pkg/kafka"
	"github.com/jetmock/jetmock/pkg/listener"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
	"github.com/jetmock/jetmock/pkg/requestlog"
	"github.com/jetmock/jetmock/pkg/template"
)

// Server wires the flow stores, the dispatch pipeline and the Kafka
// listeners, and serves mocked HTTP traffic.
type Server struct {
	cfg     *config.ServerConfig
	log     *slog.Logger
	metrics *metrics.Metrics
	factory kafka.Factory
	client  *http.Client

	requests  requestlog.Store
	flows     *flowstore.Repository
	groups    *flowstore.GroupStore
	brokers   *flowstore.BrokerStore
	globals   *flowstore.GlobalStore
	producers *kafka.Producers
	listeners *listener.Manager
	executor  *Executor
	dispatch  *Dispatcher
	service   *FlowService

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
	running    bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithKafkaFactory replaces the Sarama-backed Kafka factory.
func WithKafkaFactory(f kafka.Factory) ServerOption {
	return func(s *Server) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithCallbackClient sets the HTTP client used by CALLBACK_API steps.
func WithCallbackClient(c *http.Client) ServerOption {
	return func(s *Server) { s.client = c }
}

// WithRequestLog replaces the in-memory request history.
func WithRequestLog(store requestlog.Store) ServerOption {
	return func(s *Server) { s.requests = store }
}

// NewServer builds a Server over store. A nil cfg uses config.Default().
func NewServer(cfg *config.ServerConfig, store storage.Store, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = &kafka.SaramaFactory{
			ClientID: cfg.Kafka.ClientID,
			Logger:   logging.Watermill(logging.Component(s.log, "kafka")),
		}
	}

	if s.requests == nil {
		s.requests = requestlog.NewMemoryStore(cfg.RequestLogSize)
	}

	s.flows = flowstore.NewRepository(store)
	s.groups = flowstore.NewGroupStore(store)
	s.brokers = flowstore.NewBrokerStore(store)
	s.globals = flowstore.NewGlobalStore(store)
	s.producers = kafka.NewProducers(s.factory, logging.Component(s.log, "producer"))

	resolver := template.New(
		template.WithGlobals(s.globals),
		template.WithLogger(logging.Component(s.log, "template")),
	)
	evaluator := condition.NewEvaluator(condition.WithLogger(logging.Component(s.log, "condition")))

	s.executor = NewExecutor(resolver, s.producers, s.brokers, s.globals,
		WithExecutorLogger(logging.Component(s.log, "executor")),
		WithExecutorMetrics(s.metrics),
		WithHTTPClient(s.client),
		WithWorkers(cfg.Workers),
	)
	matcher := NewMatcher(s.flows, evaluator, logging.Component(s.log, "matcher"), s.metrics)
	s.dispatch = NewDispatcher(s.groups, matcher, s.executor, s.requests, logging.Component(s.log, "dispatcher"), s.metrics)

	s.listeners = listener.NewManager(s.factory, s.dispatch.HandleKafka,
		listener.WithLogger(logging.Component(s.log, "listener")),
		listener.WithMetrics(s.metrics),
		listener.WithGroupID(cfg.Kafka.ConsumerGroup),
	)
	s.service = NewFlowService(s.flows, s.groups, s.brokers, s.listeners, logging.Component(s.log, "mocks"))
	return s
}

// Flows returns the flow repository.
func (s *Server) Flows() *flowstore.Repository { return s.flows }

// Groups returns the group store.
func (s *Server) Groups() *flowstore.GroupStore { return s.groups }

// Brokers returns the Kafka broker store.
func (s *Server) Brokers() *flowstore.BrokerStore { return s.brokers }

// Globals returns the global variable store.
func (s *Server) Globals() *flowstore.GlobalStore { return s.globals }

// Listeners returns the Kafka listener manager.
func (s *Server) Listeners() *listener.Manager { return s.listeners }

// Requests returns the request history.
func (s *Server) Requests() requestlog.Store { return s.requests }

// Service returns the flow service.
func (s *Server) Service() *FlowService { return s.service }

// Handler returns the mock traffic handler.
func (s *Server) Handler() http.Handler { return s.dispatch }

// Metrics returns the metrics registry, which may be nil.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Addr returns the bound mock address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start restores Kafka listeners and starts serving mocked HTTP traffic.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	if _, err := s.listeners.Boot(s.flows, s.brokers); err != nil {
		s.log.Error("failed to restore kafka listeners", "error", err)
	}

	ln, err := net.Listen("tcp", s.cfg.MockAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.MockAddr(), err)
	}
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.dispatch,
		ReadTimeout:       s.cfg.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeoutDuration(),
	}

	s.log.Info("starting mock server", "addr", s.addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("mock server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

// Stop shuts the mock server down, stops every listener, drains the worker
// pool and closes the Kafka producers.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	if err := s.listeners.Close(); err != nil {
		errs = append(errs, fmt.Errorf("listeners close: %w", err))
	}
	s.executor.Close()
	if err := s.producers.Close(); err != nil {
		errs = append(errs, fmt.Errorf("producers close: %w", err))
	}

	s.running = false
	s.log.Info("mock server stopped")
	return errors.Join(errs...)
}
