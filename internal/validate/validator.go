// Package validate applies per-field rules (type, format, required,
// allowed values) to an extracted mapping and produces normalized values
// or field-level errors. Validation is deterministic: same extracted
// mapping and schema, same results, every call.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"contractfill/constants"
	"contractfill/internal/llm"
	"contractfill/internal/schema"
)

// Status classifies one field's validation outcome.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusMissing Status = "missing"
)

// Result is the validation outcome for one schema field.
type Result struct {
	FieldName       string  `json:"field_name"`
	Status          Status  `json:"status"`
	NormalizedValue *string `json:"normalized_value,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	RawValue        string  `json:"raw_value,omitempty"`
}

// Validate checks every schema field against the extracted mapping.
// There is exactly one Result per schema field:
//   - required and absent            -> missing
//   - optional and absent            -> valid, nil normalized value
//   - present, coercion/rule failure -> invalid with the expected format
//   - present and well-formed        -> valid with the normalized value
func Validate(extracted map[string]llm.ExtractedField, s *schema.Schema) map[string]Result {
	out := make(map[string]Result, s.Len())
	for _, f := range s.Fields() {
		out[f.Name] = validateField(f, extracted)
	}
	return out
}

func validateField(f schema.Field, extracted map[string]llm.ExtractedField) Result {
	ef, present := extracted[f.Name]
	if !present || strings.TrimSpace(ef.RawValue) == "" {
		if f.Required {
			return Result{
				FieldName:    f.Name,
				Status:       StatusMissing,
				ErrorMessage: "required field not found in document",
			}
		}
		return Result{FieldName: f.Name, Status: StatusValid}
	}

	raw := strings.TrimSpace(ef.RawValue)

	// format_pattern applies to the raw value before coercion for text
	// fields; other types check it against the normalized value below.
	if f.Type == constants.FieldText && f.FormatPattern != nil && !f.FormatPattern.MatchString(raw) {
		return invalid(f.Name, raw, fmt.Sprintf("value does not match required pattern %s", f.FormatPattern))
	}

	normalized, err := coerce(f.Type, raw)
	if err != nil {
		return invalid(f.Name, raw, err.Error())
	}

	if f.Type != constants.FieldText && f.FormatPattern != nil && !f.FormatPattern.MatchString(normalized) {
		return invalid(f.Name, raw, fmt.Sprintf("normalized value %q does not match required pattern %s", normalized, f.FormatPattern))
	}

	if !f.AllowsValue(normalized) {
		return invalid(f.Name, raw, fmt.Sprintf("value %q is not one of the allowed values: %s",
			normalized, strings.Join(f.AllowedValues, ", ")))
	}

	return Result{
		FieldName:       f.Name,
		Status:          StatusValid,
		NormalizedValue: &normalized,
		RawValue:        raw,
	}
}

func invalid(name, raw, msg string) Result {
	return Result{
		FieldName:    name,
		Status:       StatusInvalid,
		ErrorMessage: msg,
		RawValue:     raw,
	}
}

// OK reports whether every result is valid.
func OK(results map[string]Result) bool {
	for _, r := range results {
		if r.Status != StatusValid {
			return false
		}
	}
	return true
}

// Problems returns the invalid and missing results, ordered by field name.
func Problems(results map[string]Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Status != StatusValid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FieldName < out[j].FieldName })
	return out
}

// Error aggregates field-level failures into a single error value.
type Error struct {
	Problems []Result
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.Status == StatusMissing {
			parts = append(parts, p.FieldName+": missing")
		} else {
			parts = append(parts, p.FieldName+": "+p.ErrorMessage)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsError returns an *Error when any result is invalid or missing, else nil.
func AsError(results map[string]Result) error {
	problems := Problems(results)
	if len(problems) == 0 {
		return nil
	}
	return &Error{Problems: problems}
}
