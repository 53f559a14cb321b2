// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/auth/memory"
	"github.com/holomush/authengine/internal/observability"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

type apiFixture struct {
	t       *testing.T
	repo    *memory.Repository
	clock   *fakeClock
	metrics *observability.Metrics
	handler http.Handler
	pingErr error
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		t:     t,
		repo:  memory.NewRepository(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	hasher := auth.NewArgon2idHasher(auth.Argon2Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1})
	svc, err := auth.NewService(f.repo, hasher,
		auth.WithClock(f.clock.Now),
		auth.WithLogger(discardLogger()))
	require.NoError(t, err)

	f.metrics = observability.NewMetrics(prometheus.NewRegistry())
	f.handler = api.NewServer(svc, api.Config{
		Version: "1.2.3",
		Ping:    func(context.Context) error { return f.pingErr },
		Metrics: f.metrics,
		Logger:  discardLogger(),
	}).Handler()
	return f
}

type response struct {
	status   int
	header   http.Header
	envelope api.Envelope
}

func (r response) data(t *testing.T, v any) {
	t.Helper()
	require.NotEmpty(t, r.envelope.Data, "response has no data")
	require.NoError(t, json.Unmarshal(r.envelope.Data, v))
}

// do sends a request. body may be nil, a string sent verbatim, or a value
// marshaled to JSON.
func (f *apiFixture) do(method, path, token string, body any) response {
	f.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	res := response{status: rec.Code, header: rec.Header()}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &res.envelope), "body: %s", rec.Body.String())
	}
	return res
}

// expect asserts the HTTP status and wire code of r.
func expect(t *testing.T, r response, kind auth.Kind) {
	t.Helper()
	assert.Equal(t, kind.HTTPStatus(), r.status, "http status")
	assert.Equal(t, kind.Status(), r.envelope.Code, "wire code, detail %q", r.envelope.Detail)
	assert.Equal(t, kind, r.envelope.Kind())
	assert.Equal(t, kind.Title(), r.envelope.Title)
	assert.Equal(t, kind.Detail(), r.envelope.Detail)
}

func (f *apiFixture) register(username, secret string, admin bool) {
	f.t.Helper()
	res := f.do(http.MethodPost, "/v1/register", "", api.RegisterRequest{
		Username:  username,
		Secret:    secret,
		FirstName: "First",
		LastName:  "Last",
		Admin:     admin,
	})
	expect(f.t, res, auth.KindNone)
}

func (f *apiFixture) login(username, secret string) string {
	f.t.Helper()
	res := f.do(http.MethodPost, "/v1/authenticate", "", api.AuthenticateRequest{Username: username, Secret: secret})
	expect(f.t, res, auth.KindNone)
	var tok api.TokenResponse
	res.data(f.t, &tok)
	require.NotEmpty(f.t, tok.Token)
	return tok.Token
}

// stubAccounts fails every operation with err.
type stubAccounts struct {
	api.Accounts
	err error
}

func (s stubAccounts) ValidateToken(context.Context, string) error { return s.err }

func (s stubAccounts) Authenticate(context.Context, string, string) (string, error) {
	return "", s.err
}

var errDatabaseDown = errors.New("pq: connection to 10.0.0.5 refused for user app")
