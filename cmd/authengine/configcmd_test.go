// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/authengine/pkg/errutil"
)

func TestConfigSchema(t *testing.T) {
	isolateEnv(t)
	out, _, err := execute(t, "config", "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"log", "http", "metrics", "database", "hasher", "token"} {
		assert.Contains(t, props, key)
	}
}

func TestConfigShow(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "authengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	out, _, err := execute(t, "--config", path,
		"--database-url", "postgres://app:hunter2@db/accounts",
		"config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
	assert.Contains(t, out, "postgres://app:xxxxx@db/accounts")
	assert.NotContains(t, out, "hunter2")
}

func TestConfigShow_SchemaViolation(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "authengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  colour: green\n"), 0o600))

	_, _, err := execute(t, "--config", path, "config", "show")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SCHEMA_VALIDATION_FAILED")
}

func TestConfigValidate(t *testing.T) {
	isolateEnv(t)
	out, _, err := execute(t, "--database-driver", "memory", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	isolateEnv(t)
	_, _, err = execute(t, "config", "validate")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
