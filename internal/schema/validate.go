// Package schema validates decoded definition files against embedded JSON
// schemas before they are mapped onto typed structs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON schema.
type Schema struct {
	id       string
	compiled *jsonschema.Schema
}

// Compile parses a schema document under an in-memory resource id.
func Compile(id string, doc []byte) (*Schema, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("schema %q is empty", id)
	}
	resourceID := "inmemory://" + id
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{id: id, compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error.
// Use only for schemas embedded in the binary.
func MustCompile(id string, doc []byte) *Schema {
	s, err := Compile(id, doc)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded YAML or JSON value. The value is normalised
// through JSON first so YAML integers and maps compare the same way JSON
// input does.
func (s *Schema) Validate(value any) error {
	payload, err := normalize(value)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", s.id, err)
	}
	if err := s.compiled.Validate(payload); err != nil {
		return fmt.Errorf("%s: schema validation failed: %w", s.id, err)
	}
	return nil
}

func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
