// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/authengine/internal/auth"
)

// MockAccountRepository is a mock implementation of auth.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

var _ auth.AccountRepository = (*MockAccountRepository)(nil)

// NewMockAccountRepository creates a mock and registers expectation
// assertions with t's cleanup.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create provides a mock function.
func (m *MockAccountRepository) Create(ctx context.Context, identity *auth.Identity, credential *auth.Credential) error {
	args := m.Called(ctx, identity, credential)
	return args.Error(0)
}

// GetByUsername provides a mock function.
func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*auth.Credential, error) {
	args := m.Called(ctx, username)
	return credentialArg(args, 0), args.Error(1)
}

// GetByTokenHash provides a mock function.
func (m *MockAccountRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Credential, error) {
	args := m.Called(ctx, tokenHash)
	return credentialArg(args, 0), args.Error(1)
}

// GetByID provides a mock function.
func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*auth.Credential, error) {
	args := m.Called(ctx, id)
	return credentialArg(args, 0), args.Error(1)
}

// SwapToken provides a mock function.
func (m *MockAccountRepository) SwapToken(ctx context.Context, id string, expected *string, tokenHash string, expires time.Time, lastLogin *time.Time) error {
	args := m.Called(ctx, id, expected, tokenHash, expires, lastLogin)
	return args.Error(0)
}

// SetDisabled provides a mock function.
func (m *MockAccountRepository) SetDisabled(ctx context.Context, username string, disabled bool) error {
	args := m.Called(ctx, username, disabled)
	return args.Error(0)
}

// UpdateSecret provides a mock function.
func (m *MockAccountRepository) UpdateSecret(ctx context.Context, username, secretHash string, changedAt *time.Time) error {
	args := m.Called(ctx, username, secretHash, changedAt)
	return args.Error(0)
}

// Delete provides a mock function.
func (m *MockAccountRepository) Delete(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// GetIdentity provides a mock function.
func (m *MockAccountRepository) GetIdentity(ctx context.Context, id string) (*auth.Identity, error) {
	args := m.Called(ctx, id)
	var identity *auth.Identity
	if v := args.Get(0); v != nil {
		identity = v.(*auth.Identity)
	}
	return identity, args.Error(1)
}

// UpdateIdentity provides a mock function.
func (m *MockAccountRepository) UpdateIdentity(ctx context.Context, identity *auth.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

func credentialArg(args mock.Arguments, i int) *auth.Credential {
	if v := args.Get(i); v != nil {
		return v.(*auth.Credential)
	}
	return nil
}
