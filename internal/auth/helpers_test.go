// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/auth/memory"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func assertKind(t *testing.T, want auth.Kind, err error) {
	t.Helper()
	assert.Equal(t, want, auth.KindOf(err), "error: %v", err)
}

// seedCredential stores a bare account directly in repo.
func seedCredential(t *testing.T, repo *memory.Repository, id, username string) *auth.Credential {
	t.Helper()
	c := &auth.Credential{ID: id, Username: username, SecretHash: "hash-" + id}
	require.NoError(t, repo.Create(context.Background(),
		&auth.Identity{ID: id, FirstName: "First", LastName: "Last"}, c))
	return c
}

func ptr[T any](v T) *T { return &v }
