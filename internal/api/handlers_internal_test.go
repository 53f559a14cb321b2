// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/authengine/internal/auth"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
		{"surrounding space", "Bearer   abc123  ", "abc123"},
		{"missing", "", ""},
		{"no token", "Bearer", ""},
		{"other scheme", "Basic abc123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(r))
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(auth.KindNone))
	assert.Equal(t, "UserExists", outcome(auth.KindUserExists))
}

func TestEnvelopeKind(t *testing.T) {
	for k := auth.KindNone; k <= auth.KindAccountDisabled; k++ {
		assert.Equal(t, k, Envelope{Code: k.Status()}.Kind())
	}
	assert.Equal(t, auth.KindInternal, Envelope{Code: 42}.Kind())
}
