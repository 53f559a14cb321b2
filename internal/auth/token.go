// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"
)

// Token lifetimes.
const (
	AuthenticateTTL = 3600 * time.Second
	RenewTTL        = 120 * time.Second
)

// TokenState is the outcome of validating a credential's token.
type TokenState int

// Token states.
const (
	TokenValid TokenState = iota
	TokenDisabled
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenDisabled:
		return "disabled"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Clock returns the current time.
type Clock func() time.Time

// Lifecycle mints, validates and revokes bearer tokens.
type Lifecycle struct {
	repo   AccountRepository
	digest *DigestProvider
	now    Clock
}

// NewLifecycle creates a token lifecycle engine backed by repo.
// A nil clock uses time.Now.
func NewLifecycle(repo AccountRepository, digest *DigestProvider, now Clock) *Lifecycle {
	if digest == nil {
		digest = NewDigestProvider(DefaultAlgorithm)
	}
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{repo: repo, digest: digest, now: now}
}

// Now returns the engine's current time.
func (l *Lifecycle) Now() time.Time { return l.now() }

// Issue mints a token valid for ttl and persists it over the credential's
// current token. When lastLogin is true the issue time is recorded as the
// last login. The credential is updated in place on success.
func (l *Lifecycle) Issue(ctx context.Context, c *Credential, ttl time.Duration, lastLogin bool) (string, error) {
	now := l.now()

	token, err := l.digest.Derive(c.Username, c.SecretHash, now)
	if err != nil {
		return "", oops.With("operation", "derive token").With("username", c.Username).Wrap(err)
	}
	tokenHash := HashToken(token)
	expires := now.Add(ttl)

	var login *time.Time
	if lastLogin {
		login = &now
	}

	if err := l.repo.SwapToken(ctx, c.ID, c.TokenHash, tokenHash, expires, login); err != nil {
		return "", oops.With("operation", "store token").With("username", c.Username).Wrap(err)
	}

	c.TokenHash = &tokenHash
	c.TokenExpires = &expires
	if login != nil {
		c.LastLogin = login
	}
	return token, nil
}

// Validate reports whether the credential's token may authorize a call.
// The disabled flag wins over expiry; an expiry equal to now is still valid.
func (l *Lifecycle) Validate(c *Credential) TokenState {
	if c.IsDisabled() {
		return TokenDisabled
	}
	if c.TokenExpires == nil || c.TokenExpires.Before(l.now()) {
		return TokenExpired
	}
	return TokenValid
}

// Revoke clears the credential's token and stamps its expiry with now.
func (l *Lifecycle) Revoke(ctx context.Context, c *Credential) error {
	now := l.now()
	if err := l.repo.SwapToken(ctx, c.ID, c.TokenHash, "", now, nil); err != nil {
		return oops.With("operation", "revoke token").With("username", c.Username).Wrap(err)
	}
	empty := ""
	c.TokenHash = &empty
	c.TokenExpires = &now
	return nil
}
