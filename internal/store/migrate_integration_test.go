//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/authengine/internal/store"
)

func TestMigrator_FullCycle(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	defer migrator.Close()

	st, err := migrator.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(0), st.Current)
	assert.NotEmpty(t, st.Pending)

	require.NoError(t, migrator.Up())

	st, err = migrator.Status()
	require.NoError(t, err)
	assert.True(t, st.UpToDate())
	assert.Equal(t, st.Latest, st.Current)
	latest := st.Current

	// Up again is a no-op.
	require.NoError(t, migrator.Up())

	require.NoError(t, migrator.Steps(-1))
	version, _, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, latest-1, version, "Steps(-1) should rollback one version")

	require.NoError(t, migrator.Steps(1))
	version, _, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, latest, version)

	require.NoError(t, migrator.Down())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version, "Down() should rollback to version 0")
	assert.False(t, dirty)

	require.NoError(t, migrator.Force(int(latest)))
	version, dirty, err = migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, latest, version, "Force() should record the version")
	assert.False(t, dirty, "Force() should clear dirty flag")
}
