// Package schema holds the static field schema that guides structured
// extraction. The schema is loaded once at startup and read-only
// thereafter; a malformed schema is fatal.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed fields.json
var fieldsJSON []byte

// Field describes one extractable field. Type mirrors JSON Schema and may
// be a single type name or a list (e.g. ["string", "null"]).
type Field struct {
	Type        any              `json:"type"`
	Format      string           `json:"format,omitempty"`
	Description string           `json:"description"`
	Properties  map[string]Field `json:"properties,omitempty"`
}

// Registry is the loaded, immutable field schema.
type Registry struct {
	fields   map[string]Field
	raw      []byte
	compiled *jsonschema.Schema
}

// Load parses the embedded field schema and compiles it into a JSON Schema
// document for validating extraction output. Any error here is a startup
// failure.
func Load() (*Registry, error) {
	var fields map[string]Field
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("parse field schema: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("field schema is empty")
	}

	// Wrap the enumerated properties into an object schema. Extraction
	// output may omit any field, so nothing is required; unknown fields are
	// tolerated rather than rejected.
	doc := map[string]any{
		"type":       "object",
		"properties": json.RawMessage(fieldsJSON),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("fields.json")
	if err != nil {
		return nil, fmt.Errorf("compile field schema: %w", err)
	}

	return &Registry{fields: fields, raw: fieldsJSON, compiled: compiled}, nil
}

// Raw returns the schema exactly as loaded, for verbatim hand-off to the
// extraction engine.
func (r *Registry) Raw() []byte { return r.raw }

// Len returns the number of enumerated fields.
func (r *Registry) Len() int { return len(r.fields) }

// Lookup returns the descriptor for a field name.
func (r *Registry) Lookup(name string) (Field, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Names returns all field names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.fields))
	for name := range r.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateRecord checks that doc is a JSON object whose present fields
// conform to the schema. Absent fields are always acceptable.
func (r *Registry) ValidateRecord(doc []byte) error {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := r.compiled.Validate(v); err != nil {
		return fmt.Errorf("record does not match field schema: %w", err)
	}
	return nil
}
