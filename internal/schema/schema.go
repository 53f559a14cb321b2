// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package schema reflects JSON Schemas from Go structs and validates JSON
// and YAML documents against them.
package schema

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// durationPattern matches strings accepted by time.ParseDuration.
const durationPattern = `^-?([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

var durationType = reflect.TypeOf(time.Duration(0))

// Options controls schema reflection.
type Options struct {
	// ID is the schema $id. It doubles as the compiler resource name.
	ID          string
	Title       string
	Description string

	// FieldNameTag selects the struct tag that names properties. Empty means json.
	FieldNameTag string
}

// Validator holds a reflected schema and compiles it on first use.
type Validator struct {
	schema *jsonschema.Schema
	id     string

	once     sync.Once
	compiled *jschema.Schema
	err      error
}

// For reflects a schema from the type of v, which should be a struct pointer.
// Fields are required only when tagged `jsonschema:"required"`, and
// time.Duration fields are described as duration strings.
func For(v any, opts Options) *Validator {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		FieldNameTag:               opts.FieldNameTag,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == durationType {
				return &jsonschema.Schema{Type: "string", Pattern: durationPattern}
			}
			return nil
		},
	}
	s := r.Reflect(v)

	id := opts.ID
	if id == "" {
		id = "schema.json"
	}
	s.ID = jsonschema.ID(id)
	if opts.Title != "" {
		s.Title = opts.Title
	}
	if opts.Description != "" {
		s.Description = opts.Description
	}
	return &Validator{schema: s, id: id}
}

// JSON returns the indented schema document.
func (v *Validator) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(v.schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}

// ValidateJSON validates a JSON document.
func (v *Validator) ValidateJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return oops.Code("SCHEMA_VALIDATION_FAILED").
			With("violations", []string{"document is empty"}).
			Errorf("document is empty")
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").
			With("violations", []string{"invalid JSON"}).
			Wrap(err)
	}
	return v.validate(doc)
}

// ValidateYAML validates a YAML document. An empty document is treated as
// an empty mapping.
func (v *Validator) ValidateYAML(data []byte) error {
	var parsed any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").
			With("violations", []string{"invalid YAML"}).
			Wrap(err)
	}
	if parsed == nil {
		parsed = map[string]any{}
	}

	// Round-trip through JSON so numbers arrive as json.Number.
	raw, err := json.Marshal(parsed)
	if err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").
			With("violations", []string{"document is not JSON compatible"}).
			Wrap(err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").Wrap(err)
	}
	return v.validate(doc)
}

func (v *Validator) validate(doc any) error {
	sch, err := v.compile()
	if err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("SCHEMA_VALIDATION_FAILED").
			With("violations", Violations(err)).
			Wrap(err)
	}
	return nil
}

func (v *Validator) compile() (*jschema.Schema, error) {
	v.once.Do(func() {
		data, err := v.JSON()
		if err != nil {
			v.err = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			v.err = oops.Code("SCHEMA_COMPILE_FAILED").With("operation", "parse schema").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource(v.id, doc); err != nil {
			v.err = oops.Code("SCHEMA_COMPILE_FAILED").With("operation", "add resource").Wrap(err)
			return
		}
		v.compiled, err = c.Compile(v.id)
		if err != nil {
			v.err = oops.Code("SCHEMA_COMPILE_FAILED").With("operation", "compile").Wrap(err)
		}
	})
	return v.compiled, v.err
}

// Violations splits a validation error into one line per failed keyword.
func Violations(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "- "); ok {
			out = append(out, rest)
		}
	}
	if len(out) == 0 {
		out = []string{strings.TrimSpace(err.Error())}
	}
	return out
}
