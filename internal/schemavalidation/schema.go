// Package schemavalidation gates ingress Evidence JSON against a JSON
// Schema document before it is handed to internal/breadcrumb for
// canonical parsing, using github.com/santhosh-tekuri/jsonschema/v5 the
// same way the teacher's own schema test harness compiles and validates
// fixtures against docs/schema/*.schema.json.
package schemavalidation

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tripverifier/criticality/internal/triperr"
)

// EvidenceSchemaV1 is the JSON Schema a breadcrumb evidence export must
// satisfy before canonical parsing.
const EvidenceSchemaV1 = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "$id": "trip-evidence-v1.schema.json",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": [
      "index", "identity_public_key", "timestamp", "location_cell",
      "location_resolution", "context_digest", "signature", "block_hash"
    ],
    "properties": {
      "index":               { "type": "integer", "minimum": 0 },
      "identity_public_key": { "type": "string", "pattern": "^[0-9a-fA-F]{64}$" },
      "timestamp":           { "type": "string", "format": "date-time" },
      "location_cell":       { "type": "string", "minLength": 1 },
      "location_resolution": { "type": "integer", "minimum": 0, "maximum": 15 },
      "context_digest":      { "type": "string", "pattern": "^[0-9a-fA-F]{64}$" },
      "previous_hash":       { "type": ["string", "null"] },
      "meta_flags": {
        "type": "object",
        "properties": {
          "battery":  { "type": "integer" },
          "sampling": { "type": "string" },
          "state":    { "type": "string" },
          "network":  { "type": "string" },
          "accuracy": { "type": "number" },
          "manual":   { "type": "boolean" }
        }
      },
      "signature":  { "type": "string", "pattern": "^[0-9a-fA-F]{128}$" },
      "block_hash": { "type": "string", "pattern": "^[0-9a-fA-F]{64}$" }
    }
  }
}`

// Validator compiles and applies one JSON Schema document.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a validator from a schema document's raw bytes.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	resourceID := "trip-schema.json"
	if err := compiler.AddResource(resourceID, bytes.NewReader(schemaJSON)); err != nil {
		return nil, triperr.DeserializeError("add schema resource: %v", err)
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, triperr.DeserializeError("compile schema: %v", err)
	}
	return &Validator{schema: schema}, nil
}

// NewDefaultValidator compiles the built-in evidence schema.
func NewDefaultValidator() (*Validator, error) {
	return NewValidator([]byte(EvidenceSchemaV1))
}

// Validate checks raw JSON bytes against the compiled schema. On failure
// it returns a triperr.DeserializeError carrying the JSON Pointer of the
// first offending instance location.
func (v *Validator) Validate(data []byte) error {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return triperr.DeserializeError("invalid JSON: %v", err)
	}

	if err := v.schema.Validate(instance); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			for len(verr.Causes) > 0 {
				verr = verr.Causes[0]
			}
			return triperr.DeserializeError("schema violation at %s: %s", verr.InstanceLocation, verr.Message)
		}
		return triperr.DeserializeError("schema violation: %v", err)
	}
	return nil
}
