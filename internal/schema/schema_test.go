// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package schema_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authengine/internal/schema"
	"github.com/holomush/authengine/pkg/errutil"
)

type loginRequest struct {
	Username string `json:"username" jsonschema:"required,minLength=1"`
	Secret   string `json:"secret" jsonschema:"required"`
	Remember bool   `json:"remember,omitempty"`
}

type serverSettings struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
}

type settings struct {
	Server serverSettings `koanf:"server"`
	Level string `koanf:"level" jsonschema:"enum=debug,enum=info"`
	Conns int32  `koanf:"conns" jsonschema:"minimum=1"`
}

func TestValidator_JSON(t *testing.T) {
	v := schema.For(&loginRequest{}, schema.Options{ID: "https://authengine.dev/schemas/login.json", Title: "Login"})

	data, err := v.JSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "https://authengine.dev/schemas/login.json", doc["$id"])
	assert.Equal(t, "Login", doc["title"])
	assert.ElementsMatch(t, []any{"username", "secret"}, doc["required"])
	assert.Equal(t, false, doc["additionalProperties"])
}

func TestValidator_ValidateJSON(t *testing.T) {
	v := schema.For(&loginRequest{}, schema.Options{})

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"username":"alice","secret":"pw"}`, false},
		{"valid with optional", `{"username":"alice","secret":"pw","remember":true}`, false},
		{"missing secret", `{"username":"alice"}`, true},
		{"empty username", `{"username":"","secret":"pw"}`, true},
		{"wrong type", `{"username":42,"secret":"pw"}`, true},
		{"unknown field", `{"username":"alice","secret":"pw","admin":true}`, true},
		{"not json", `{"username":`, true},
		{"empty body", ``, true},
		{"array", `[]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateJSON([]byte(tt.body))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "SCHEMA_VALIDATION_FAILED")
		})
	}
}

func TestValidator_ViolationsInContext(t *testing.T) {
	v := schema.For(&loginRequest{}, schema.Options{})
	err := v.ValidateJSON([]byte(`{"username":"alice"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}

func TestValidator_ValidateYAML(t *testing.T) {
	v := schema.For(&settings{}, schema.Options{FieldNameTag: "koanf"})

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty document", "", false},
		{"valid", "server:\n  addr: \":8080\"\n  timeout: 5s\nlevel: info\nconns: 4\n", false},
		{"compound duration", "server:\n  timeout: 1m30s\n", false},
		{"bad duration", "server:\n  timeout: soon\n", true},
		{"numeric duration", "server:\n  timeout: 5\n", true},
		{"bad enum", "level: loud\n", true},
		{"below minimum", "conns: 0\n", true},
		{"unknown key", "srever:\n  addr: x\n", true},
		{"invalid yaml", "server: [\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateYAML([]byte(tt.doc))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "SCHEMA_VALIDATION_FAILED")
		})
	}
}

func TestViolations(t *testing.T) {
	assert.Nil(t, schema.Violations(nil))

	v := schema.For(&settings{}, schema.Options{FieldNameTag: "koanf"})
	err := v.ValidateYAML([]byte("level: loud\nconns: 0\n"))
	require.Error(t, err)
	assert.NotEmpty(t, schema.Violations(err))
}
