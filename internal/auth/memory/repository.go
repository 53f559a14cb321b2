// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides an in-process auth.AccountRepository for
// development and tests. State is lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/auth"
)

// Repository keeps accounts in maps guarded by a single mutex, which makes
// every method atomic.
type Repository struct {
	mu          sync.Mutex
	identities  map[string]auth.Identity
	credentials map[string]auth.Credential
	byUsername  map[string]string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		identities:  make(map[string]auth.Identity),
		credentials: make(map[string]auth.Credential),
		byUsername:  make(map[string]string),
	}
}

// Compile-time interface check.
var _ auth.AccountRepository = (*Repository)(nil)

// Ping always succeeds.
func (r *Repository) Ping(context.Context) error { return nil }

// Create stores both records.
func (r *Repository) Create(_ context.Context, identity *auth.Identity, credential *auth.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[credential.Username]; taken {
		return oops.Code("ACCOUNT_USERNAME_TAKEN").With("username", credential.Username).Wrap(auth.ErrUsernameTaken)
	}
	if _, exists := r.credentials[credential.ID]; exists {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("id", credential.ID).Errorf("identifier already in use")
	}

	r.identities[identity.ID] = cloneIdentity(*identity)
	r.credentials[credential.ID] = cloneCredential(*credential)
	r.byUsername[credential.Username] = credential.ID
	return nil
}

// GetByUsername returns the credential for username.
func (r *Repository) GetByUsername(_ context.Context, username string) (*auth.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, notFound("username", username)
	}
	c := cloneCredential(r.credentials[id])
	return &c, nil
}

// GetByTokenHash returns the credential holding tokenHash.
func (r *Repository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Credential, error) {
	if tokenHash == "" {
		return nil, notFound("token_hash", "")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.credentials {
		if c.TokenHash != nil && *c.TokenHash == tokenHash {
			out := cloneCredential(c)
			return &out, nil
		}
	}
	return nil, notFound("token_hash", tokenHash)
}

// GetByID returns the credential with the given identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*auth.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.credentials[id]
	if !ok {
		return nil, notFound("id", id)
	}
	out := cloneCredential(c)
	return &out, nil
}

// SwapToken replaces the token if the stored hash still equals expected.
func (r *Repository) SwapToken(_ context.Context, id string, expected *string, tokenHash string, expires time.Time, lastLogin *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.credentials[id]
	if !ok {
		return notFound("id", id)
	}
	if !sameHash(c.TokenHash, expected) {
		return oops.Code("ACCOUNT_TOKEN_CONFLICT").With("id", id).Wrap(auth.ErrConflict)
	}

	c.TokenHash = &tokenHash
	c.TokenExpires = &expires
	if lastLogin != nil {
		login := *lastLogin
		c.LastLogin = &login
	}
	r.credentials[id] = c
	return nil
}

// SetDisabled sets the disabled flag of the named account.
func (r *Repository) SetDisabled(_ context.Context, username string, disabled bool) error {
	return r.mutate(username, func(c *auth.Credential) {
		c.Disabled = &disabled
	})
}

// UpdateSecret overwrites the secret hash of the named account.
func (r *Repository) UpdateSecret(_ context.Context, username, secretHash string, changedAt *time.Time) error {
	return r.mutate(username, func(c *auth.Credential) {
		c.SecretHash = secretHash
		if changedAt != nil {
			at := *changedAt
			c.PasswordChangedAt = &at
		}
	})
}

// Delete removes the named account and its identity.
func (r *Repository) Delete(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return notFound("username", username)
	}
	delete(r.byUsername, username)
	delete(r.credentials, id)
	delete(r.identities, id)
	return nil
}

// GetIdentity returns the identity paired with id.
func (r *Repository) GetIdentity(_ context.Context, id string) (*auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[id]
	if !ok {
		return nil, notFound("id", id)
	}
	out := cloneIdentity(identity)
	return &out, nil
}

// UpdateIdentity overwrites the stored profile for identity.ID.
func (r *Repository) UpdateIdentity(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.identities[identity.ID]; !ok {
		return notFound("id", identity.ID)
	}
	r.identities[identity.ID] = cloneIdentity(*identity)
	return nil
}

// DropIdentity removes only the identity half of an account, leaving an
// orphaned credential. Used to exercise integrity checks.
func (r *Repository) DropIdentity(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.identities, id)
}

func (r *Repository) mutate(username string, fn func(*auth.Credential)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return notFound("username", username)
	}
	c := r.credentials[id]
	fn(&c)
	r.credentials[id] = c
	return nil
}

func notFound(key, value string) error {
	return oops.Code("ACCOUNT_NOT_FOUND").With(key, value).Wrap(auth.ErrNotFound)
}

func sameHash(stored, expected *string) bool {
	if stored == nil || expected == nil {
		return stored == nil && expected == nil
	}
	return *stored == *expected
}

func cloneIdentity(i auth.Identity) auth.Identity {
	i.Email = clonePtr(i.Email)
	i.Phone = clonePtr(i.Phone)
	return i
}

func cloneCredential(c auth.Credential) auth.Credential {
	c.TokenHash = clonePtr(c.TokenHash)
	c.LastLogin = clonePtr(c.LastLogin)
	c.PasswordChangedAt = clonePtr(c.PasswordChangedAt)
	c.TokenExpires = clonePtr(c.TokenExpires)
	c.Admin = clonePtr(c.Admin)
	c.Disabled = clonePtr(c.Disabled)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
