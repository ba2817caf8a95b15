package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema is the structural contract for incoming workflow
// definitions, checked before any field is bound. Semantic rules (step
// variants, cron syntax, graph shape) are enforced by the models and the
// engine afterwards.
const definitionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "name", "owner_id", "trigger", "steps"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 3},
		"description": {"type": "string"},
		"owner_id": {"type": "string", "minLength": 1},
		"trigger": {
			"type": "object",
			"required": ["type"],
			"properties": {
				"type": {"type": "string", "enum": ["immediate", "schedule"]},
				"cron": {"type": "string"}
			}
		},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "kind"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"kind": {"type": "string", "enum": ["code", "tool"]},
					"code": {
						"type": "object",
						"required": ["source"],
						"properties": {
							"source": {"type": "string", "minLength": 1},
							"entry_point": {"type": "string"}
						}
					},
					"tool": {
						"type": "object",
						"required": ["name"],
						"properties": {
							"name": {"type": "string", "minLength": 1},
							"args": {"type": "object"}
						}
					},
					"depends_on": {
						"type": "array",
						"items": {"type": "string"}
					}
				}
			}
		},
		"result": {"type": "object"}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// validateDefinitionJSON checks a raw request body against the definition
// schema and returns a readable violation summary.
func validateDefinitionJSON(body []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}

	return fmt.Errorf("definition does not match schema: %s", strings.Join(violations, "; "))
}
