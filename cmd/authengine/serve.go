// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/auth/memory"
	"github.com/holomush/authengine/internal/auth/postgres"
	"github.com/holomush/authengine/internal/config"
	"github.com/holomush/authengine/internal/logging"
	"github.com/holomush/authengine/internal/observability"
	"github.com/holomush/authengine/internal/store"
	"github.com/holomush/authengine/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the account API",
		Long: `Run the account HTTP API and, unless metrics.addr is empty, the
metrics and health endpoints. SIGINT or SIGTERM triggers a graceful shutdown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}
}

// runServeWithDeps runs the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = openStore
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, checker)
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(accounts api.Accounts, apiCfg api.Config) APIServer {
			return api.NewServer(accounts, apiCfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault("authengine", version, cfg.Log.Format, level)

	logger.Info("starting authengine",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"database_driver", cfg.Database.Driver,
		"token_digest", cfg.Token.Digest,
	)

	accountStore, err := deps.StoreOpener(ctx, cfg.Database)
	if err != nil {
		return oops.With("driver", cfg.Database.Driver).Wrap(err)
	}
	defer accountStore.Close()

	alg, err := auth.ParseAlgorithm(cfg.Token.Digest)
	if err != nil {
		return err
	}
	svc, err := auth.NewService(accountStore.Repo,
		auth.NewArgon2idHasher(cfg.Argon2Params()),
		auth.WithLogger(logger),
		auth.WithDigest(auth.NewDigestProvider(alg)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, accountStore.Ping)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", cfg.Metrics.Addr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	}

	apiServer := deps.APIServerFactory(svc, api.Config{
		Addr:              cfg.HTTP.Addr,
		Version:           version,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		Ping:              api.StorePinger(accountStore.Ping),
		Metrics:           metrics,
		Logger:            logger,
	})
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopObservability(obsServer, cfg)
		return oops.Code("API_START_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("authengine listening on " + apiServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping api server", err)
	}
	stopObservability(obsServer, cfg)

	logger.Info("shutdown complete")
	return nil
}

func stopObservability(obsServer ObservabilityServer, cfg *config.Config) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// openStore opens the account store selected by cfg.Driver. The postgres
// driver applies pending migrations first when AutoMigrate is set.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (*AccountStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory account store; accounts are lost on exit")
		repo := memory.NewRepository()
		return &AccountStore{Repo: repo, Ping: repo.Ping}, nil

	case config.DriverPostgres:
		if cfg.AutoMigrate {
			if err := migrateUp(defaultMigratorFactory, cfg.URL); err != nil {
				return nil, err
			}
		}
		pool, err := store.Open(ctx, cfg.URL, store.PoolOptions{
			MaxConns: cfg.MaxConns,
			Attempts: cfg.ConnectAttempts,
			Backoff:  cfg.ConnectBackoff,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database")
		return &AccountStore{
			Repo:  postgres.NewAccountRepository(pool),
			Ping:  pool.Ping,
			close: pool.Close,
		}, nil
	}
	return nil, oops.Code("CONFIG_INVALID").Errorf("unknown database driver %q", cfg.Driver)
}

// migrateUp applies every pending migration.
func migrateUp(newMigrator MigratorFactory, databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	st, err := m.Status()
	if err != nil {
		return err
	}
	slog.Info("database schema ready", "version", st.Current)
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
