// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/holomush/authengine/internal/auth"
)

// MockSecretHasher is a mock implementation of auth.SecretHasher.
type MockSecretHasher struct {
	mock.Mock
}

var _ auth.SecretHasher = (*MockSecretHasher)(nil)

// NewMockSecretHasher creates a mock and registers expectation assertions
// with t's cleanup.
func NewMockSecretHasher(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockSecretHasher {
	m := &MockSecretHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash provides a mock function.
func (m *MockSecretHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

// Verify provides a mock function.
func (m *MockSecretHasher) Verify(secret, encoded string) (bool, error) {
	args := m.Called(secret, encoded)
	return args.Bool(0), args.Error(1)
}

// NeedsRehash provides a mock function.
func (m *MockSecretHasher) NeedsRehash(encoded string) bool {
	args := m.Called(encoded)
	return args.Bool(0)
}
