// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/md5"  //nolint:gosec // offered for interoperability, never the default
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // offered for interoperability, never the default
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Algorithm names a digest function supported by the hash provider.
type Algorithm string

// Supported digest algorithms.
const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

// derivationNonceBytes is the random material mixed into derived values.
const derivationNonceBytes = 16

var algorithms = map[Algorithm]func() hash.Hash{
	MD5:    md5.New,
	SHA1:   sha1.New,
	SHA256: sha256.New,
	SHA384: sha512.New384,
	SHA512: sha512.New,
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if alg == "" {
		return DefaultAlgorithm, nil
	}
	if _, ok := algorithms[alg]; !ok {
		return "", oops.Code("AUTH_UNKNOWN_ALGORITHM").With("algorithm", name).Errorf("unknown digest algorithm %q", name)
	}
	return alg, nil
}

// Digest returns the upper-case hex digest of input. Unknown algorithms fall
// back to DefaultAlgorithm; use ParseAlgorithm to reject them up front.
func Digest(alg Algorithm, input string) string {
	newHash, ok := algorithms[alg]
	if !ok {
		newHash = algorithms[DefaultAlgorithm]
	}
	h := newHash()
	_, _ = h.Write([]byte(input)) // hash.Hash.Write never returns an error
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// DigestProvider derives opaque identifiers and tokens.
type DigestProvider struct {
	alg  Algorithm
	rand func([]byte) (int, error)
}

// NewDigestProvider creates a provider for the given algorithm.
func NewDigestProvider(alg Algorithm) *DigestProvider {
	if _, ok := algorithms[alg]; !ok {
		alg = DefaultAlgorithm
	}
	return &DigestProvider{alg: alg, rand: rand.Read}
}

// Algorithm returns the configured algorithm.
func (p *DigestProvider) Algorithm() Algorithm { return p.alg }

// Derive digests username, secret material and the instant at, plus a random
// nonce. Two calls in the same clock tick yield different values, but the
// result is still not guaranteed unique.
func (p *DigestProvider) Derive(username, secret string, at time.Time) (string, error) {
	nonce := make([]byte, derivationNonceBytes)
	if _, err := p.rand(nonce); err != nil {
		return "", oops.Code("AUTH_NONCE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", derivationNonceBytes).
			Wrap(err)
	}
	return Digest(p.alg, username+secret+at.UTC().Format(time.RFC3339Nano)+hex.EncodeToString(nonce)), nil
}

// HashToken computes the lookup key stored for a bearer token.
// Tokens are never persisted in plaintext.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
