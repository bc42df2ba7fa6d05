package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jetmock/jetmock/internal/storage"
	"github.com/jetmock/jetmock/pkg/admin"
	"github.com/jetmock/jetmock/pkg/cli/internal/output"
	"github.com/jetmock/jetmock/pkg/config"
	"github.com/jetmock/jetmock/pkg/engine"
	"github.com/jetmock/jetmock/pkg/logging"
	"github.com/jetmock/jetmock/pkg/metrics"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	config        string
	host          string
	mockPort      int
	adminPort     int
	dataPath      string
	workers       int
	logLevel      string
	logFormat     string
	consumerGroup string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock server and the admin API",
	Long: `Run the mock server and the admin API in the foreground.

Configuration is read from the file given with --config, then from JETMOCK_*
environment variables, then from flags. Use --data :memory: to keep state in
memory only.`,
	Example: `  # Defaults: mocks on :4280, admin on :4290, data in ./jetmock.db
  jetmock serve

  # Custom ports with JSON logs
  jetmock serve --mock-port 8080 --admin-port 8090 --log-format json

  # Throwaway in-memory instance
  jetmock serve --data :memory:`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(serveFlags.config)
		if err != nil {
			return err
		}
		applyServeFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := logging.New(logging.Config{
			Level:  logging.ParseLevel(cfg.Log.Level),
			Format: logging.ParseFormat(cfg.Log.Format),
			Output: os.Stderr,
		})

		warnServeConfig(cmd.ErrOrStderr(), cfg)

		rt, err := StartRuntime(cfg, log)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "jetmock running: mocks on %s, admin on %s\n", rt.MockAddr(), rt.AdminAddr())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		log.Info("shutting down")
		return rt.Stop()
	},
}

// applyServeFlags overrides cfg with every flag set on the command line.
// warnServeConfig prints warnings for settings that are valid but easy to
// regret.
func warnServeConfig(w io.Writer, cfg *config.ServerConfig) {
	if cfg.DataPath == config.MemoryDataPath {
		output.Warn(w, "in-memory storage: mocks, groups and brokers are lost on shutdown")
	}
}

func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = serveFlags.host
	}
	if flags.Changed("mock-port") {
		cfg.MockPort = serveFlags.mockPort
	}
	if flags.Changed("admin-port") {
		cfg.AdminPort = serveFlags.adminPort
	}
	if flags.Changed("data") {
		cfg.DataPath = serveFlags.dataPath
	}
	if flags.Changed("workers") {
		cfg.Workers = serveFlags.workers
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = serveFlags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = serveFlags.logFormat
	}
	if flags.Changed("consumer-group") {
		cfg.Kafka.ConsumerGroup = serveFlags.consumerGroup
	}
}

// Runtime is a running mock server with its admin API and store.
type Runtime struct {
	store  storage.Store
	server *engine.Server
	api    *admin.API
}

// StartRuntime opens the store, then starts the mock server and the admin API.
// On failure everything already started is torn down again.
func StartRuntime(cfg *config.ServerConfig, log *slog.Logger) (*Runtime, error) {
	store, err := openStore(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	server := engine.NewServer(cfg, store,
		engine.WithLogger(log),
		engine.WithMetrics(m),
	)
	if err := server.Start(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start mock server: %w", err)
	}

	api := admin.NewAPI(cfg.AdminAddr(), server, admin.WithLogger(log))
	if err := api.Start(); err != nil {
		_ = server.Stop()
		_ = store.Close()
		return nil, fmt.Errorf("start admin API: %w", err)
	}

	return &Runtime{store: store, server: server, api: api}, nil
}

// MockAddr returns the address mocked traffic is served on.
func (rt *Runtime) MockAddr() string { return rt.server.Addr() }

// AdminAddr returns the admin API address.
func (rt *Runtime) AdminAddr() string { return rt.api.Addr() }

// Stop shuts down the admin API, then the mock server, then closes the store.
func (rt *Runtime) Stop() error {
	var errs []error
	if err := rt.api.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("admin API: %w", err))
	}
	if err := rt.server.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("mock server: %w", err))
	}
	if err := rt.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	return errors.Join(errs...)
}

func openStore(path string) (storage.Store, error) {
	if path == config.MemoryDataPath {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.OpenBolt(path)
	if err != nil {
		return nil, fmt.Errorf("open data file %s: %w", path, err)
	}
	return store, nil
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.config, "config", "c", "", "Path to a YAML or JSON config file")
	f.StringVar(&serveFlags.host, "host", "", "Interface to bind both servers to")
	f.IntVarP(&serveFlags.mockPort, "mock-port", "p", config.DefaultMockPort, "Port for mocked traffic")
	f.IntVarP(&serveFlags.adminPort, "admin-port", "a", config.DefaultAdminPort, "Port for the admin API")
	f.StringVar(&serveFlags.dataPath, "data", config.DefaultDataPath, "Data file, or :memory:")
	f.IntVar(&serveFlags.workers, "workers", config.DefaultWorkers, "Workers running asynchronous flow steps")
	f.StringVar(&serveFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&serveFlags.logFormat, "log-format", "text", "Log format: text, json")
	f.StringVar(&serveFlags.consumerGroup, "consumer-group", config.DefaultConsumerGroup, "Kafka consumer group for listeners")
	rootCmd.AddCommand(serveCmd)
}
