// Package llm defines the typed boundary around the external reasoning
// provider. The schema travels into the prompt as a JSON Schema and the
// response is validated against that same schema before anything
// downstream sees it, so the rest of the pipeline never branches on
// untyped data.
package llm

import (
	"context"

	"contractfill/internal/schema"
)

// ExtractedField is one field as reported by the provider, before validation.
type ExtractedField struct {
	Name       string  `json:"name"`
	RawValue   string  `json:"raw_value"`
	Confidence float32 `json:"confidence,omitempty"` // 0 when the provider did not report one
}

// ExtractRequest carries everything one extraction call needs.
type ExtractRequest struct {
	RawText        string
	Schema         *schema.Schema
	DocumentHint   string  // filename or other short provenance signal
	PrepConfidence float32 // loader OCR confidence, 0 for born-digital text
}

// FieldExtractor is the interface the pipeline depends on.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (map[string]ExtractedField, []byte /*rawJSON*/, error)
}
