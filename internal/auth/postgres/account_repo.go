// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/auth"
)

// usernameConstraint is the unique constraint guarding credentials.username.
const usernameConstraint = "credentials_username_key"

// pool is the subset of *pgxpool.Pool used by the repository.
// pgxmock.PgxPoolIface satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(p pool) *AccountRepository {
	return &AccountRepository{pool: p}
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)

const credentialColumns = `id, username, secret_hash, created_at, last_login,
	       password_changed_at, token_hash, token_expires, is_admin, is_disabled`

// Ping checks database connectivity.
func (r *AccountRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return oops.Code("ACCOUNT_PING_FAILED").Wrap(err)
	}
	return nil
}

// Create inserts the identity and credential in one transaction.
func (r *AccountRepository) Create(ctx context.Context, identity *auth.Identity, credential *auth.Credential) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "begin transaction").Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO identities (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
	`, identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.Phone)
	if err != nil {
		rollback(ctx, tx)
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert identity").
			With("username", credential.Username).
			Wrap(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO credentials (
			id, username, secret_hash, created_at, last_login,
			password_changed_at, token_hash, token_expires, is_admin, is_disabled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		credential.ID,
		credential.Username,
		credential.SecretHash,
		credential.CreatedAt,
		credential.LastLogin,
		credential.PasswordChangedAt,
		credential.TokenHash,
		credential.TokenExpires,
		credential.Admin,
		credential.Disabled,
	)
	if err != nil {
		rollback(ctx, tx)
		if isUsernameViolation(err) {
			return oops.Code("ACCOUNT_USERNAME_TAKEN").
				With("username", credential.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert credential").
			With("username", credential.Username).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUsernameViolation(err) {
			return oops.Code("ACCOUNT_USERNAME_TAKEN").
				With("username", credential.Username).
				Wrap(auth.ErrUsernameTaken)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "commit").Wrap(err)
	}
	return nil
}

// GetByUsername retrieves a credential by exact username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE username = $1`, username)
	return r.getCredential(row, "username", username)
}

// GetByTokenHash retrieves the credential holding tokenHash.
func (r *AccountRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Credential, error) {
	if tokenHash == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("token_hash", "").Wrap(auth.ErrNotFound)
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+credentialColumns+`
		FROM credentials
		WHERE token_hash = $1 AND token_hash <> ''
	`, tokenHash)
	return r.getCredential(row, "token_hash", tokenHash)
}

// GetByID retrieves a credential by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*auth.Credential, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	return r.getCredential(row, "id", id)
}

func (r *AccountRepository) getCredential(row pgx.Row, key, value string) (*auth.Credential, error) {
	c, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With(key, value).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get credential by "+key).
			With(key, value).
			Wrap(err)
	}
	return c, nil
}

// SwapToken replaces the token hash and expiry if the stored hash still equals expected.
func (r *AccountRepository) SwapToken(ctx context.Context, id string, expected *string, tokenHash string, expires time.Time, lastLogin *time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET token_hash = $3, token_expires = $4, last_login = COALESCE($5, last_login)
		WHERE id = $1 AND token_hash IS NOT DISTINCT FROM $2
	`, id, expected, tokenHash, expires, lastLogin)
	if err != nil {
		return oops.Code("ACCOUNT_TOKEN_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_TOKEN_CONFLICT").With("id", id).Wrap(auth.ErrConflict)
	}
	return nil
}

// SetDisabled sets the disabled flag of the named account.
func (r *AccountRepository) SetDisabled(ctx context.Context, username string, disabled bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE credentials SET is_disabled = $2 WHERE username = $1`, username, disabled)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "set disabled").
			With("username", username).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateSecret overwrites the secret hash of the named account.
func (r *AccountRepository) UpdateSecret(ctx context.Context, username, secretHash string, changedAt *time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET secret_hash = $2, password_changed_at = COALESCE($3, password_changed_at)
		WHERE username = $1
	`, username, secretHash, changedAt)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update secret").
			With("username", username).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes the named account. The credential row follows its identity
// through ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, username string) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM identities
		WHERE id = (SELECT id FROM credentials WHERE username = $1)
	`, username)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").With("username", username).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	return nil
}

// GetIdentity retrieves the identity paired with id.
func (r *AccountRepository) GetIdentity(ctx context.Context, id string) (*auth.Identity, error) {
	var identity auth.Identity
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone
		FROM identities
		WHERE id = $1
	`, id).Scan(&identity.ID, &identity.FirstName, &identity.LastName, &identity.Email, &identity.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get identity").
			With("id", id).
			Wrap(err)
	}
	return &identity, nil
}

// UpdateIdentity overwrites the profile fields of an existing identity.
func (r *AccountRepository) UpdateIdentity(ctx context.Context, identity *auth.Identity) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET first_name = $2, last_name = $3, email = $4, phone = $5
		WHERE id = $1
	`, identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.Phone)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update identity").
			With("id", identity.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", identity.ID).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanCredential(row pgx.Row) (*auth.Credential, error) {
	var c auth.Credential
	err := row.Scan(
		&c.ID,
		&c.Username,
		&c.SecretHash,
		&c.CreatedAt,
		&c.LastLogin,
		&c.PasswordChangedAt,
		&c.TokenHash,
		&c.TokenExpires,
		&c.Admin,
		&c.Disabled,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with operation context
	}
	return &c, nil
}

func isUsernameViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == usernameConstraint
}

func rollback(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(ctx) //nolint:errcheck // the original error takes precedence
}
