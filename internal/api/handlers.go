// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/schema"
)

// storePingTimeout bounds the store check in GET /status.
const storePingTimeout = 2 * time.Second

// operationFunc runs one account operation and returns its response data.
type operationFunc func(r *http.Request) (any, error)

// route registers op under pattern. The outcome is counted under operation
// and written as an envelope.
func (s *Server) route(mux *http.ServeMux, pattern, operation string, op operationFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		data, err := op(r)
		kind := auth.KindOf(err)
		s.cfg.Metrics.RecordOperation(operation, outcome(kind))

		var reqErr *requestError
		if errors.As(err, &reqErr) && data == nil {
			data = ValidationDetail{Violations: reqErr.violations}
		}
		if kind == auth.KindInternal {
			data = nil
		}
		writeEnvelope(w, r, kind, data)
	})
}

// outcome is the metric label for kind.
func outcome(kind auth.Kind) string {
	if kind == auth.KindNone {
		return "success"
	}
	return kind.String()
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
// A missing or malformed header yields "", which never matches an account.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// BannerResponse is the data of GET /.
type BannerResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Message string `json:"message"`
}

// StatusResponse is the data of GET /status.
type StatusResponse struct {
	Running       bool   `json:"running"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
}

// Store states reported by GET /status.
const (
	StoreOK          = "ok"
	StoreUnavailable = "unavailable"
	StoreUnknown     = "unknown"
)

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, r, auth.KindNone, BannerResponse{
		Service: "authengine",
		Version: s.cfg.Version,
		Message: "Hello from authengine!",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Running:       true,
		Version:       s.cfg.Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Store:         StoreUnknown,
	}
	if s.cfg.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), storePingTimeout)
		defer cancel()
		if err := s.cfg.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "store ping failed", "error", err)
			resp.Store = StoreUnavailable
		} else {
			resp.Store = StoreOK
		}
	}
	writeEnvelope(w, r, auth.KindNone, resp)
}

func (s *Server) register(r *http.Request) (any, error) {
	var req RegisterRequest
	if err := decodeBody(r, registerSchema, &req); err != nil {
		return nil, err
	}
	return nil, s.accounts.Register(r.Context(), auth.Registration{
		Username:  req.Username,
		Secret:    req.Secret,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Admin:     req.Admin,
		Disabled:  req.Disabled,
	})
}

func (s *Server) authenticate(r *http.Request) (any, error) {
	var req AuthenticateRequest
	if err := decodeBody(r, authenticateSchema, &req); err != nil {
		return nil, err
	}
	token, err := s.accounts.Authenticate(r.Context(), req.Username, req.Secret)
	if err != nil {
		return nil, err
	}
	return TokenResponse{Token: token, ExpiresIn: int64(auth.AuthenticateTTL.Seconds())}, nil
}

func (s *Server) logout(r *http.Request) (any, error) {
	return nil, s.accounts.Logout(r.Context(), bearerToken(r))
}

func (s *Server) validateToken(r *http.Request) (any, error) {
	return nil, s.accounts.ValidateToken(r.Context(), bearerToken(r))
}

func (s *Server) renewToken(r *http.Request) (any, error) {
	token, err := s.accounts.RenewToken(r.Context(), bearerToken(r))
	if err != nil {
		return nil, err
	}
	return TokenResponse{Token: token, ExpiresIn: int64(auth.RenewTTL.Seconds())}, nil
}

func (s *Server) disableUser(r *http.Request) (any, error) {
	return nil, s.accounts.DisableUser(r.Context(), bearerToken(r), r.PathValue("username"))
}

func (s *Server) enableUser(r *http.Request) (any, error) {
	return nil, s.accounts.EnableUser(r.Context(), bearerToken(r), r.PathValue("username"))
}

func (s *Server) deleteUser(r *http.Request) (any, error) {
	return nil, s.accounts.DeleteUser(r.Context(), bearerToken(r), r.PathValue("username"))
}

// decodeAuthorized runs the gate for role and only then decodes the body,
// so an unauthorized caller never learns anything about body validation.
func (s *Server) decodeAuthorized(r *http.Request, role auth.Role, v *schema.Validator, dst any) (string, error) {
	token := bearerToken(r)
	if err := s.accounts.Authorize(r.Context(), token, role); err != nil {
		return "", err
	}
	if err := decodeBody(r, v, dst); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Server) changePassword(r *http.Request) (any, error) {
	var req ChangePasswordRequest
	token, err := s.decodeAuthorized(r, auth.RoleSelf, changePasswordSchema, &req)
	if err != nil {
		return nil, err
	}
	return nil, s.accounts.ChangePassword(r.Context(), token, req.Username, req.OldSecret, req.NewSecret)
}

func (s *Server) resetPassword(r *http.Request) (any, error) {
	var req ResetPasswordRequest
	token, err := s.decodeAuthorized(r, auth.RoleAdmin, resetPasswordSchema, &req)
	if err != nil {
		return nil, err
	}
	return nil, s.accounts.ResetPassword(r.Context(), token, r.PathValue("username"), req.NewSecret)
}

func (s *Server) getUserInfo(r *http.Request) (any, error) {
	identity, err := s.accounts.GetUserInfo(r.Context(), bearerToken(r))
	if err != nil {
		return nil, err
	}
	return ProfileResponse{
		ID:        identity.ID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Phone:     identity.Phone,
	}, nil
}

func (s *Server) updateUserInfo(r *http.Request) (any, error) {
	var req ProfileRequest
	token, err := s.decodeAuthorized(r, auth.RoleSelf, profileSchema, &req)
	if err != nil {
		return nil, err
	}
	return nil, s.accounts.UpdateUserInfo(r.Context(), token, auth.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
}
