// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"
)

// Identity is the profile half of an account.
type Identity struct {
	ID        string
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
}

// Credential is the secret and session half of an account. It shares its ID
// with the paired Identity.
type Credential struct {
	ID                string
	Username          string
	SecretHash        string
	CreatedAt         time.Time
	LastLogin         *time.Time
	PasswordChangedAt *time.Time

	// TokenHash is nil when no token was ever issued and "" once revoked.
	TokenHash    *string
	TokenExpires *time.Time

	// Admin and Disabled are tri-state; nil reads as false.
	Admin    *bool
	Disabled *bool
}

// IsAdmin reports whether the admin flag is set to true.
func (c *Credential) IsAdmin() bool { return c.Admin != nil && *c.Admin }

// IsDisabled reports whether the disabled flag is set to true.
func (c *Credential) IsDisabled() bool { return c.Disabled != nil && *c.Disabled }

// Role is the authorization level an operation requires.
type Role int

// Roles.
const (
	RoleSelf Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleSelf:
		return "self"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Registration carries the inputs of a register call.
type Registration struct {
	Username  string
	Secret    string
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Admin     bool
	Disabled  bool
}

// Validate checks for missing required inputs.
func (r Registration) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Username) == "" {
		missing = append(missing, "username")
	}
	if r.Secret == "" {
		missing = append(missing, "secret")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(r.LastName) == "" {
		missing = append(missing, "last name")
	}
	if len(missing) > 0 {
		return KindValidation.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ProfileUpdate carries the inputs of an updateUserInfo call.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
}

// AccountRepository persists identity and credential pairs.
// Every method is atomic on its own.
type AccountRepository interface {
	// Create inserts both records together. Returns ErrUsernameTaken on a duplicate username.
	Create(ctx context.Context, identity *Identity, credential *Credential) error

	// GetByUsername returns the credential with an exact username match.
	GetByUsername(ctx context.Context, username string) (*Credential, error)

	// GetByTokenHash returns the credential holding tokenHash. An empty hash never matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Credential, error)

	// GetByID returns the credential with the given identifier.
	GetByID(ctx context.Context, id string) (*Credential, error)

	// SwapToken replaces the token hash and expiry if the stored hash still
	// equals expected (nil matches a never-issued token). lastLogin, when
	// non-nil, is recorded too. Returns ErrConflict if the row changed.
	SwapToken(ctx context.Context, id string, expected *string, tokenHash string, expires time.Time, lastLogin *time.Time) error

	// SetDisabled sets the disabled flag of the named account.
	SetDisabled(ctx context.Context, username string, disabled bool) error

	// UpdateSecret overwrites the secret hash. changedAt, when non-nil, is
	// recorded as the password change time.
	UpdateSecret(ctx context.Context, username, secretHash string, changedAt *time.Time) error

	// Delete removes the named account's identity and credential.
	Delete(ctx context.Context, username string) error

	// GetIdentity returns the identity paired with id.
	GetIdentity(ctx context.Context, id string) (*Identity, error)

	// UpdateIdentity overwrites the profile fields of an existing identity.
	UpdateIdentity(ctx context.Context, identity *Identity) error
}
