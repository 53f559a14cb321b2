// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/observability"
)

// Accounts is the account service as the HTTP layer uses it.
type Accounts interface {
	Register(ctx context.Context, r auth.Registration) error
	Authenticate(ctx context.Context, username, secret string) (string, error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) error
	RenewToken(ctx context.Context, token string) (string, error)
	DisableUser(ctx context.Context, token, target string) error
	EnableUser(ctx context.Context, token, target string) error
	DeleteUser(ctx context.Context, token, target string) error
	ChangePassword(ctx context.Context, token, username, oldSecret, newSecret string) error
	ResetPassword(ctx context.Context, token, target, newSecret string) error
	GetUserInfo(ctx context.Context, token string) (*auth.Identity, error)
	UpdateUserInfo(ctx context.Context, token string, u auth.ProfileUpdate) error

	// Authorize checks token against role before a body is decoded.
	Authorize(ctx context.Context, token string, role auth.Role) error
}

var _ Accounts = (*auth.Service)(nil)

// StorePinger reports whether the account store is reachable.
type StorePinger func(ctx context.Context) error

// Config configures a Server.
type Config struct {
	// Addr is the listen address in "host:port" form.
	Addr    string
	Version string

	// ReadHeaderTimeout defaults to 10s.
	ReadHeaderTimeout time.Duration

	// Ping is consulted by GET /status. Nil reports the store as unknown.
	Ping StorePinger

	// Metrics may be nil.
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server serves the account API.
type Server struct {
	accounts Accounts
	cfg      Config
	logger   *slog.Logger
	started  time.Time

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an API server over accounts.
func NewServer(accounts Accounts, cfg Config) *Server {
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		accounts: accounts,
		cfg:      cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

// Handler returns the API routes wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleBanner)
	mux.HandleFunc("GET /status", s.handleStatus)

	s.route(mux, "POST /v1/register", "register", s.register)
	s.route(mux, "POST /v1/authenticate", "authenticate", s.authenticate)
	s.route(mux, "POST /v1/logout", "logout", s.logout)
	s.route(mux, "GET /v1/token", "validate_token", s.validateToken)
	s.route(mux, "POST /v1/token/renew", "renew_token", s.renewToken)
	s.route(mux, "POST /v1/users/{username}/disable", "disable_user", s.disableUser)
	s.route(mux, "POST /v1/users/{username}/enable", "enable_user", s.enableUser)
	s.route(mux, "DELETE /v1/users/{username}", "delete_user", s.deleteUser)
	s.route(mux, "POST /v1/password", "change_password", s.changePassword)
	s.route(mux, "PUT /v1/users/{username}/password", "reset_password", s.resetPassword)
	s.route(mux, "GET /v1/me", "get_user_info", s.getUserInfo)
	s.route(mux, "PUT /v1/me", "update_user_info", s.updateUserInfo)

	return s.instrument(mux)
}

// Start begins serving. The returned channel receives any serve error and is
// closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("API_ALREADY_RUNNING").Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("API_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.Code("API_SHUTDOWN_FAILED").Wrap(err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
