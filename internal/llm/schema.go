package llm

import (
	"contractfill/internal/schema"
)

// confidenceKey is the one non-field key tolerated in provider responses:
// an object mapping field names to 0..1 scores.
const confidenceKey = "confidence"

// BuildFieldJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We embed it in the prompt as a structured-output constraint
// and also use it locally to validate the response.
//
// Every field property is a plain string: values arrive raw and the
// validator owns type coercion and allowed-values membership. No field is
// required at this layer and no enum is enforced here; absence is a
// validation outcome (missing) and a disallowed value is a validation
// outcome (invalid), not a wire error. Allowed values still reach the
// provider through the field descriptions in the system prompt.
func BuildFieldJSONSchema(s *schema.Schema) map[string]any {
	props := make(map[string]any, s.Len()+1)
	for _, f := range s.Fields() {
		props[f.Name] = map[string]any{"type": "string", "minLength": 1}
	}
	props[confidenceKey] = map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type": "number", "minimum": 0.0, "maximum": 1.0,
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
