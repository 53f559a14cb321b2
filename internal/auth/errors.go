// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// Repository sentinels. Implementations wrap these so callers can use errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when an insert violates username uniqueness.
	ErrUsernameTaken = errors.New("username taken")

	// ErrConflict is returned when a conditional update finds the row changed.
	ErrConflict = errors.New("conflicting update")
)
