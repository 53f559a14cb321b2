// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authengine/pkg/errutil"
)

// dummySecret is hashed once per Service. Its hash is verified when a
// username does not exist, so unknown and known usernames cost the same
// hasher work to reject. A match there still fails the login.
//
//nolint:gosec // G101: not a credential.
const dummySecret = "authengine-unknown-user"

// Service implements the account operations. Each method returns nil or an
// error whose KindOf is the failure kind; internal causes are logged and
// never returned.
type Service struct {
	repo      AccountRepository
	hasher    SecretHasher
	digest    *DigestProvider
	lifecycle *Lifecycle
	gate      *Gate
	logger    *slog.Logger
	now       Clock

	// dummyHash is dummySecret hashed with the service's own hasher.
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for internal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now Clock) Option {
	return func(s *Service) { s.now = now }
}

// WithDigest sets the provider used to derive identifiers and tokens.
func WithDigest(digest *DigestProvider) Option {
	return func(s *Service) { s.digest = digest }
}

// NewService creates the account service.
func NewService(repo AccountRepository, hasher SecretHasher, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("secret hasher is required")
	}

	s := &Service{repo: repo, hasher: hasher}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.digest == nil {
		s.digest = NewDigestProvider(DefaultAlgorithm)
	}

	dummyHash, err := hasher.Hash(dummySecret)
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").With("operation", "hash dummy secret").Wrap(err)
	}
	s.dummyHash = dummyHash

	s.lifecycle = NewLifecycle(repo, s.digest, s.now)
	s.gate = NewGate(repo, s.lifecycle)
	return s, nil
}

// Gate returns the service's authorization gate.
func (s *Service) Gate() *Gate { return s.gate }

// fail returns err unchanged when it carries a caller-facing kind. Anything
// else is logged and replaced by a bare KindInternal error.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	if kind := KindOf(err); kind != KindInternal {
		return err
	}
	errutil.LogErrorContext(ctx, s.logger, "account operation failed", err, "operation", op)
	return oops.Code(KindInternal.Code()).With("operation", op).Errorf("internal error")
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, r Registration) error {
	const op = "register"
	if err := r.Validate(); err != nil {
		return err
	}

	_, err := s.repo.GetByUsername(ctx, r.Username)
	switch {
	case err == nil:
		return KindUserExists.Errorf("username %q already exists", r.Username)
	case !errors.Is(err, ErrNotFound):
		return s.fail(ctx, op, err)
	}

	secretHash, err := s.hasher.Hash(r.Secret)
	if err != nil {
		return s.fail(ctx, op, err)
	}

	now := s.now()
	id, err := s.digest.Derive(r.Username, secretHash, now)
	if err != nil {
		return s.fail(ctx, op, err)
	}

	identity := &Identity{
		ID:        id,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
	}
	admin, disabled := r.Admin, r.Disabled
	credential := &Credential{
		ID:         id,
		Username:   r.Username,
		SecretHash: secretHash,
		CreatedAt:  now,
		Admin:      &admin,
		Disabled:   &disabled,
	}

	if err := s.repo.Create(ctx, identity, credential); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return KindUserExists.Errorf("username %q already exists", r.Username)
		}
		return s.fail(ctx, op, err)
	}

	s.logger.InfoContext(ctx, "account registered", "username", r.Username, "admin", admin)
	return nil
}

// Authenticate checks username and secret and returns a fresh token.
func (s *Service) Authenticate(ctx context.Context, username, secret string) (string, error) {
	const op = "authenticate"

	c, lookupErr := s.repo.GetByUsername(ctx, username)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return "", s.fail(ctx, op, lookupErr)
	}

	target := s.dummyHash
	if lookupErr == nil {
		target = c.SecretHash
	}

	valid, verifyErr := s.hasher.Verify(secret, target)
	if lookupErr != nil {
		return "", KindInvalidCredentials.Errorf("invalid username or password")
	}
	if verifyErr != nil {
		return "", s.fail(ctx, op, verifyErr)
	}
	if !valid {
		return "", KindInvalidCredentials.Errorf("invalid username or password")
	}

	if c.IsDisabled() {
		return "", KindAccountDisabled.Errorf("account %q is disabled", username)
	}

	token, err := s.lifecycle.Issue(ctx, c, AuthenticateTTL, true)
	if err != nil {
		return "", s.fail(ctx, op, err)
	}

	if s.hasher.NeedsRehash(c.SecretHash) {
		s.upgradeSecret(ctx, c, secret)
	}
	return token, nil
}

// upgradeSecret rehashes a secret stored with outdated parameters.
// Failure is logged and does not fail the login.
func (s *Service) upgradeSecret(ctx context.Context, c *Credential, secret string) {
	newHash, err := s.hasher.Hash(secret)
	if err == nil {
		err = s.repo.UpdateSecret(ctx, c.Username, newHash, nil)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "secret rehash failed", "username", c.Username, "error", err)
		return
	}
	c.SecretHash = newHash
}

// Logout revokes the caller's token.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "logout"
	c, err := s.gate.Admit(ctx, token, RoleSelf)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if err := s.lifecycle.Revoke(ctx, c); err != nil {
		return s.tokenWriteFailure(ctx, op, err)
	}
	return nil
}

// Authorize runs the authorization gate for role without performing an
// operation. Transports call it before reading a request body.
func (s *Service) Authorize(ctx context.Context, token string, role Role) error {
	if _, err := s.gate.Admit(ctx, token, role); err != nil {
		return s.fail(ctx, "authorize", err)
	}
	return nil
}

// ValidateToken reports whether token currently authorizes its holder.
func (s *Service) ValidateToken(ctx context.Context, token string) error {
	if _, err := s.gate.Admit(ctx, token, RoleSelf); err != nil {
		return s.fail(ctx, "validate_token", err)
	}
	return nil
}

// RenewToken replaces the caller's token with a short-lived one.
func (s *Service) RenewToken(ctx context.Context, token string) (string, error) {
	const op = "renew_token"
	c, err := s.gate.Admit(ctx, token, RoleSelf)
	if err != nil {
		return "", s.fail(ctx, op, err)
	}
	renewed, err := s.lifecycle.Issue(ctx, c, RenewTTL, false)
	if err != nil {
		return "", s.tokenWriteFailure(ctx, op, err)
	}
	return renewed, nil
}

// tokenWriteFailure maps a failed compare-and-swap on the caller's own token.
// A conflict means the presented token was replaced concurrently.
func (s *Service) tokenWriteFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, ErrConflict) {
		return KindTokenNotFound.Errorf("token was replaced concurrently")
	}
	return s.fail(ctx, op, err)
}

// DisableUser marks the target account disabled. Admin only.
func (s *Service) DisableUser(ctx context.Context, token, target string) error {
	return s.setDisabled(ctx, "disable_user", token, target, true)
}

// EnableUser clears the target account's disabled flag. Admin only.
func (s *Service) EnableUser(ctx context.Context, token, target string) error {
	return s.setDisabled(ctx, "enable_user", token, target, false)
}

func (s *Service) setDisabled(ctx context.Context, op, token, target string, disabled bool) error {
	caller, err := s.gate.Admit(ctx, token, RoleAdmin)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if err := s.repo.SetDisabled(ctx, target, disabled); err != nil {
		return s.targetFailure(ctx, op, target, err)
	}
	s.logger.InfoContext(ctx, "account state changed",
		"operation", op, "target", target, "disabled", disabled, "by", caller.Username)
	return nil
}

// DeleteUser removes the target account. Admin only.
func (s *Service) DeleteUser(ctx context.Context, token, target string) error {
	const op = "delete_user"
	caller, err := s.gate.Admit(ctx, token, RoleAdmin)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if err := s.repo.Delete(ctx, target); err != nil {
		return s.targetFailure(ctx, op, target, err)
	}
	s.logger.InfoContext(ctx, "account deleted", "target", target, "by", caller.Username)
	return nil
}

// ChangePassword replaces the caller's secret after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, token, username, oldSecret, newSecret string) error {
	const op = "change_password"
	c, err := s.gate.Admit(ctx, token, RoleSelf)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if newSecret == "" {
		return KindValidation.Errorf("new secret is required")
	}

	// Verify first so a username mismatch costs the same as a wrong secret.
	valid, err := s.hasher.Verify(oldSecret, c.SecretHash)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if !valid || c.Username != username {
		return KindInvalidCredentials.Errorf("invalid username or password")
	}

	return s.storeSecret(ctx, op, c.Username, newSecret)
}

// ResetPassword overwrites the target account's secret. Admin only.
func (s *Service) ResetPassword(ctx context.Context, token, target, newSecret string) error {
	const op = "reset_password"
	caller, err := s.gate.Admit(ctx, token, RoleAdmin)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	if newSecret == "" {
		return KindValidation.Errorf("new secret is required")
	}
	if err := s.storeSecret(ctx, op, target, newSecret); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password reset", "target", target, "by", caller.Username)
	return nil
}

func (s *Service) storeSecret(ctx context.Context, op, username, secret string) error {
	secretHash, err := s.hasher.Hash(secret)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	now := s.now()
	if err := s.repo.UpdateSecret(ctx, username, secretHash, &now); err != nil {
		return s.targetFailure(ctx, op, username, err)
	}
	return nil
}

// GetUserInfo returns the caller's identity record.
func (s *Service) GetUserInfo(ctx context.Context, token string) (*Identity, error) {
	const op = "get_user_info"
	c, err := s.gate.Admit(ctx, token, RoleSelf)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	identity, err := s.repo.GetIdentity(ctx, c.ID)
	if err != nil {
		return nil, s.targetFailure(ctx, op, c.Username, err)
	}
	return identity, nil
}

// UpdateUserInfo overwrites the caller's profile fields.
func (s *Service) UpdateUserInfo(ctx context.Context, token string, u ProfileUpdate) error {
	const op = "update_user_info"
	c, err := s.gate.Admit(ctx, token, RoleSelf)
	if err != nil {
		return s.fail(ctx, op, err)
	}
	identity := &Identity{
		ID:        c.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
	if err := s.repo.UpdateIdentity(ctx, identity); err != nil {
		return s.targetFailure(ctx, op, c.Username, err)
	}
	return nil
}

// targetFailure maps a repository miss on the operation's target account.
func (s *Service) targetFailure(ctx context.Context, op, username string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return KindUserNotFound.Errorf("user %q not found", username)
	}
	return s.fail(ctx, op, err)
}
