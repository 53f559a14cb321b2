// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements the account and session core of AuthEngine.
//
// # Components
//
//   - DigestProvider derives opaque identifiers and bearer tokens.
//   - Argon2idHasher stores secrets as salted argon2id PHC strings.
//   - Lifecycle issues, validates and revokes tokens.
//   - Gate resolves a token to its credential and authorizes it for a Role.
//   - Service runs the account operations, each through the Gate.
//
// # Outcomes
//
// Service methods return nil on success or an error carrying exactly one
// Kind, recovered with KindOf. Unexpected failures are logged and reported
// as KindInternal without their cause.
//
// # Tokens
//
// A credential holds at most one token. Issuing overwrites the previous one
// with a compare-and-swap on the stored token hash. Revoking stores an empty
// hash, which no lookup ever matches, and stamps the expiry with the current
// time.
package auth
