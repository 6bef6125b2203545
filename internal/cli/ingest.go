package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/runnerr0/codetime/internal/api"
	"github.com/runnerr0/codetime/internal/codetime"
	"github.com/runnerr0/codetime/internal/config"
	"github.com/runnerr0/codetime/internal/logging"
)

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logFile, err := cfg.LogFilePath()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       logFile,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	svc, err := newService(cfg, store)
	if err != nil {
		return err
	}

	return c.runDaemon(ctx, cfg, svc)
}

// applyOverrides folds command-line flags into cfg.
func (c *IngestCommand) applyOverrides(cfg *config.Config) {
	if c.Host != "" {
		cfg.Daemon.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Daemon.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
}

// runDaemon serves the API under a supervisor until ctx is cancelled.
func (c *IngestCommand) runDaemon(ctx context.Context, cfg *config.Config, svc *codetime.Service) error {
	addr := net.JoinHostPort(cfg.Daemon.Host, strconv.Itoa(cfg.Daemon.Port))
	router := api.NewRouter(svc, api.RouterConfig{
		CORSOrigins:     cfg.Daemon.CORSOrigins,
		RateLimit:       cfg.Daemon.RateLimitRequests,
		RateLimitWindow: time.Duration(cfg.Daemon.RateLimitWindowSeconds) * time.Second,
		MaxRequestSize:  cfg.Daemon.MaxRequestSize,
	})

	shutdown := time.Duration(cfg.Daemon.ShutdownTimeoutSeconds) * time.Second
	sup := api.NewSupervisor(shutdown)
	sup.Add(api.NewHTTPServerService(api.NewServer(router), addr, shutdown))

	logging.Info().
		Str("version", c.version).
		Str("addr", addr).
		Str("backend", cfg.Storage.Backend).
		Str("timezone", svc.Location().String()).
		Msg("codetime daemon starting")

	err := sup.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon stopped: %w", err)
	}

	if unstopped, _ := sup.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("codetime daemon stopped")
	return nil
}
