// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the configuration and API request JSON Schemas.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/oops"

	"github.com/holomush/authengine/internal/api"
	"github.com/holomush/authengine/internal/config"
)

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	written, err := generate(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schemas: %v\n", err)
		os.Exit(1)
	}
	for _, path := range written {
		fmt.Printf("Generated %s\n", path)
	}
}

// generate writes every schema under dir and returns the written paths.
func generate(dir string) ([]string, error) {
	cfgSchema, err := config.Schema()
	if err != nil {
		return nil, err
	}
	files := map[string][]byte{
		filepath.Join(dir, "config.schema.json"): cfgSchema,
	}
	for name, v := range api.RequestSchemas() {
		data, err := v.JSON()
		if err != nil {
			return nil, oops.With("schema", name).Wrap(err)
		}
		files[filepath.Join(dir, "api", name+".schema.json")] = data
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, oops.Code("SCHEMA_WRITE_FAILED").With("path", path).Wrap(err)
		}
		if err := os.WriteFile(path, append(files[path], '\n'), 0o600); err != nil {
			return nil, oops.Code("SCHEMA_WRITE_FAILED").With("path", path).Wrap(err)
		}
	}
	return paths, nil
}
