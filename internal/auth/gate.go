// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
)

// Gate resolves bearer tokens and decides whether the caller may proceed.
// Every token-bearing operation goes through Admit.
type Gate struct {
	repo      AccountRepository
	lifecycle *Lifecycle
}

// NewGate creates an authorization gate.
func NewGate(repo AccountRepository, lifecycle *Lifecycle) *Gate {
	return &Gate{repo: repo, lifecycle: lifecycle}
}

// Resolve returns the credential holding token.
// Empty and unknown tokens fail with KindTokenNotFound.
func (g *Gate) Resolve(ctx context.Context, token string) (*Credential, error) {
	if token == "" {
		return nil, KindTokenNotFound.Errorf("token is empty")
	}
	c, err := g.repo.GetByTokenHash(ctx, HashToken(token))
	if errors.Is(err, ErrNotFound) {
		return nil, KindTokenNotFound.Errorf("token does not match any account")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Authorize checks a resolved credential against the required role.
// It returns nil when authorized, or an error of kind AccountDisabled,
// TokenExpired or Forbidden.
func (g *Gate) Authorize(c *Credential, role Role) error {
	switch g.lifecycle.Validate(c) {
	case TokenDisabled:
		return KindAccountDisabled.Errorf("account %q is disabled", c.Username)
	case TokenExpired:
		return KindTokenExpired.Errorf("token for %q has expired", c.Username)
	}
	if role == RoleAdmin && !c.IsAdmin() {
		return KindForbidden.Errorf("account %q is not an administrator", c.Username)
	}
	return nil
}

// Admit resolves token and authorizes it for role.
func (g *Gate) Admit(ctx context.Context, token string, role Role) (*Credential, error) {
	c, err := g.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := g.Authorize(c, role); err != nil {
		return nil, err
	}
	return c, nil
}
