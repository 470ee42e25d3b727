package api

import (
	"context"
	"encoding/json"

	"github.com/qri-io/jsonschema"

	"github.com/repchain/repchain/internal/fault"
)

// Request schemas compiled once at startup. Handlers still unmarshal into
// typed structs afterwards; the schema pass gives clients precise field
// errors instead of a decode failure.
var (
	createJobSchema = mustSchema(`{
		"type": "object",
		"required": ["title", "description", "budget", "deadline"],
		"properties": {
			"title":        {"type": "string", "minLength": 1, "maxLength": 200},
			"description":  {"type": "string", "minLength": 1, "maxLength": 10000},
			"requirements": {"type": "string", "maxLength": 10000},
			"budget":       {"type": "integer", "minimum": 1},
			"deadline":     {"type": "string", "minLength": 1}
		}
	}`)

	reviewSchema = mustSchema(`{
		"type": "object",
		"required": ["action"],
		"properties": {
			"action": {"type": "string", "enum": ["approve", "reject", "request_revision"]},
			"reason": {"type": "string", "maxLength": 2000}
		}
	}`)
)

func mustSchema(src string) *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(src), rs); err != nil {
		panic("bad request schema: " + err.Error())
	}
	return rs
}

// validateBody checks raw JSON against a schema and converts the first
// violation into a validation error.
func validateBody(ctx context.Context, rs *jsonschema.Schema, body []byte) error {
	keyErrs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return fault.Validation("invalid json: %v", err)
	}
	if len(keyErrs) > 0 {
		return fault.Validation("%s", keyErrs[0].Error())
	}
	return nil
}
