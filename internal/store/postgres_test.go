// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authengine/pkg/errutil"
)

// flakyPinger fails the first failures pings.
type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitReady(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		p := &flakyPinger{failures: 2}
		err := waitReady(ctx, p, PoolOptions{Attempts: 3, Backoff: time.Millisecond})
		require.NoError(t, err)
		assert.Equal(t, 3, p.calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		p := &flakyPinger{failures: 10}
		err := waitReady(ctx, p, PoolOptions{Attempts: 2, Backoff: time.Millisecond})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "DB_CONNECT_FAILED")
		errutil.AssertErrorContext(t, err, "attempts", 2)
		assert.Equal(t, 2, p.calls)
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		p := &flakyPinger{}
		require.NoError(t, waitReady(ctx, p, PoolOptions{}))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		p := &flakyPinger{failures: 100}
		err := waitReady(cctx, p, PoolOptions{Attempts: 50, Backoff: time.Hour})
		require.Error(t, err)
		assert.LessOrEqual(t, p.calls, 1)
	})
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "://not a url", PoolOptions{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}
