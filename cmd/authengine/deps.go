// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/config"
	"github.com/holomush/authengine/internal/observability"
	"github.com/holomush/authengine/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreOpener opens the account store.
	// Default: openStore
	StoreOpener func(ctx context.Context, cfg config.DatabaseConfig) (*AccountStore, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, checker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the account API server.
	// Default: api.NewServer
	APIServerFactory func(accounts api.Accounts, cfg api.Config) APIServer
}

// AccountStore is an opened account repository with its health check.
type AccountStore struct {
	Repo auth.AccountRepository
	Ping func(ctx context.Context) error

	close func()
}

// Close releases the store's resources.
func (s *AccountStore) Close() {
	if s.close != nil {
		s.close()
	}
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer interface wraps the methods used from api.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// MigratorFactory creates a Migrator for a database URL.
type MigratorFactory func(databaseURL string) (Migrator, error)

func defaultMigratorFactory(databaseURL string) (Migrator, error) {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}
