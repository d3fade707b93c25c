package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/scout/internal/backup"
	"github.com/alfredjeanlab/scout/internal/config"
	"github.com/alfredjeanlab/scout/internal/engine"
	"github.com/alfredjeanlab/scout/internal/events"
	"github.com/alfredjeanlab/scout/internal/server"
	"github.com/alfredjeanlab/scout/internal/store"
	"github.com/alfredjeanlab/scout/internal/store/memory"
	"github.com/alfredjeanlab/scout/internal/store/postgres"
	"github.com/alfredjeanlab/scout/internal/store/sqlite"
	"github.com/alfredjeanlab/scout/internal/templates"
	"github.com/spf13/cobra"
)

// healthInterval is how often the gRPC health status re-pings the store.
const healthInterval = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the scouting sync server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := cfg.Logger(os.Stderr)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg, logger)
	},
}

// runServer serves until ctx is cancelled, then shuts everything down in
// reverse order of startup.
func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry, err := loadTemplates(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("templates loaded", "count", registry.Len(), "default", registry.DefaultIdentity())

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()
	logger.Info("store opened", "backend", cfg.Store)

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
	}()

	eng := engine.New(st, engine.WithLogger(logger))
	srv := server.New(eng, registry, publisher, logger)

	scheduler, err := newBackupScheduler(ctx, cfg, eng, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		scheduler.Start()
		logger.Info("backup scheduler started", "interval", cfg.Backup.Interval)
		defer func() {
			scheduler.Stop()
			logger.Info("backup scheduler stopped")
		}()
	}

	errCh := make(chan error, 2)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		grpcServer, hs := server.NewGRPCServer(logger)
		healthCtx, cancelHealth := context.WithCancel(ctx)
		go server.ReportHealth(healthCtx, hs, eng, healthInterval, logger)
		go func() {
			logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
		defer func() {
			cancelHealth()
			grpcServer.GracefulStop()
			logger.Info("gRPC server stopped")
		}()
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: srv.NewHTTPHandler(server.HTTPOptions{
			AuthToken:   cfg.AuthToken,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	logger.Info("scout server started", "http_addr", cfg.HTTPAddr, "grpc_addr", cfg.GRPCAddr)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("HTTP server stopped")
	return runErr
}

// loadTemplates builds the registry from cfg.TemplateDir. SCOUT_DEFAULT_TEMPLATE
// wins over the default-template file.
func loadTemplates(cfg *config.Config, logger *slog.Logger) (*templates.Registry, error) {
	fsys := os.DirFS(cfg.TemplateDir)
	defaultIdentity := cfg.DefaultTemplate
	if defaultIdentity == "" {
		id, err := templates.ReadDefaultIdentity(fsys, cfg.DefaultTemplateFile)
		if err != nil {
			return nil, err
		}
		defaultIdentity = id
	}
	return templates.Load(fsys, defaultIdentity, logger)
}

// openStore opens the backend named by cfg.Store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool := postgres.DefaultPool
		pool.MaxOpen = cfg.DBMaxConns
		pool.MaxIdle = min(pool.MaxIdle, cfg.DBMaxConns)
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return postgres.New(connectCtx, cfg.DatabaseURL, pool)
	case config.StoreSQLite:
		return sqlite.Open(cfg.SQLitePath)
	case config.StoreMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// newPublisher connects to NATS when configured.
func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("events disabled (SCOUT_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub, nil
}

// newBackupScheduler returns nil when backups are disabled.
func newBackupScheduler(ctx context.Context, cfg *config.Config, src backup.Lister, logger *slog.Logger) (*backup.Scheduler, error) {
	if cfg.Backup.Interval <= 0 {
		return nil, nil
	}
	var dests []backup.Destination
	if cfg.Backup.S3Bucket != "" {
		d, err := backup.NewS3Destination(ctx, cfg.Backup.S3Bucket, cfg.Backup.S3Key, cfg.Backup.S3Region, cfg.Backup.S3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("backup S3 destination: %w", err)
		}
		dests = append(dests, d)
		logger.Info("backup S3 destination enabled", "bucket", cfg.Backup.S3Bucket, "key", cfg.Backup.S3Key)
	}
	if cfg.Backup.File != "" {
		dests = append(dests, backup.NewFileDestination(cfg.Backup.File))
		logger.Info("backup file destination enabled", "path", cfg.Backup.File)
	}
	if len(dests) == 0 {
		return nil, nil
	}
	return backup.NewScheduler(src, dests, cfg.Backup.Interval, logger), nil
}
