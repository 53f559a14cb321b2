// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/auth"
	"github.com/holomush/authengine/internal/schema"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// RegisterRequest is the body of POST /v1/register.
type RegisterRequest struct {
	Username  string  `json:"username" jsonschema:"required"`
	Secret    string  `json:"secret" jsonschema:"required"`
	FirstName string  `json:"first_name" jsonschema:"required"`
	LastName  string  `json:"last_name" jsonschema:"required"`
	Email     *string `json:"email,omitempty" jsonschema:"nullable"`
	Phone     *string `json:"phone,omitempty" jsonschema:"nullable"`
	Admin     bool    `json:"admin,omitempty"`
	Disabled  bool    `json:"disabled,omitempty"`
}

// AuthenticateRequest is the body of POST /v1/authenticate.
type AuthenticateRequest struct {
	Username string `json:"username" jsonschema:"required"`
	Secret   string `json:"secret" jsonschema:"required"`
}

// ChangePasswordRequest is the body of POST /v1/password.
type ChangePasswordRequest struct {
	Username  string `json:"username" jsonschema:"required"`
	OldSecret string `json:"old_secret" jsonschema:"required"`
	NewSecret string `json:"new_secret" jsonschema:"required"`
}

// ResetPasswordRequest is the body of PUT /v1/users/{username}/password.
type ResetPasswordRequest struct {
	NewSecret string `json:"new_secret" jsonschema:"required"`
}

// ProfileRequest is the body of PUT /v1/me.
type ProfileRequest struct {
	FirstName string  `json:"first_name" jsonschema:"required"`
	LastName  string  `json:"last_name" jsonschema:"required"`
	Email     *string `json:"email,omitempty" jsonschema:"nullable"`
	Phone     *string `json:"phone,omitempty" jsonschema:"nullable"`
}

// TokenResponse is the data of authenticate and renew.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// ProfileResponse is the data of GET /v1/me.
type ProfileResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// ValidationDetail is the data of a rejected request body.
type ValidationDetail struct {
	Violations []string `json:"violations"`
}

var (
	registerSchema       = requestSchema(&RegisterRequest{}, "register")
	authenticateSchema   = requestSchema(&AuthenticateRequest{}, "authenticate")
	changePasswordSchema = requestSchema(&ChangePasswordRequest{}, "change-password")
	resetPasswordSchema  = requestSchema(&ResetPasswordRequest{}, "reset-password")
	profileSchema        = requestSchema(&ProfileRequest{}, "profile")
)

// RequestSchemas returns the schema of every request body, keyed by name.
func RequestSchemas() map[string]*schema.Validator {
	return map[string]*schema.Validator{
		"register":        registerSchema,
		"authenticate":    authenticateSchema,
		"change-password": changePasswordSchema,
		"reset-password":  resetPasswordSchema,
		"profile":         profileSchema,
	}
}

func requestSchema(v any, name string) *schema.Validator {
	return schema.For(v, schema.Options{
		ID: "https://holomush.dev/schemas/authengine/" + name + ".schema.json",
	})
}

// requestError is a rejected request body. It carries KindValidation.
type requestError struct {
	err        error
	violations []string
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// decodeBody reads r's body, validates it against s and decodes it into dst.
func decodeBody(r *http.Request, s *schema.Validator, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return &requestError{
			err:        auth.KindValidation.Errorf("read request body: %v", err),
			violations: []string{"request body could not be read"},
		}
	}
	if err := s.ValidateJSON(data); err != nil {
		return &requestError{
			err:        oops.Code(auth.KindValidation.Code()).Errorf("request body rejected: %v", err),
			violations: schema.Violations(err),
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &requestError{
			err:        auth.KindValidation.Errorf("decode request body: %v", err),
			violations: []string{"request body does not match the expected shape"},
		}
	}
	return nil
}
