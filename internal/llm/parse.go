package llm

import (
	"encoding/json"
	"fmt"

	"contractfill/internal/common"
	"contractfill/internal/schema"
)

// ParseResponse maps a sanitized, schema-validated provider response to
// the ExtractedField mapping. Field values are strings; per-field scores
// come from the optional confidence object.
func ParseResponse(clean []byte, s *schema.Schema) (map[string]ExtractedField, error) {
	var m map[string]any
	if err := json.Unmarshal(clean, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionParse, err)
	}

	conf := map[string]float64{}
	if c, ok := m[confidenceKey].(map[string]any); ok {
		for k, v := range c {
			if f, ok := v.(float64); ok {
				conf[k] = f
			}
		}
	}

	out := make(map[string]ExtractedField, len(m))
	for k, v := range m {
		if k == confidenceKey {
			continue
		}
		if _, known := s.Lookup(k); !known {
			return nil, fmt.Errorf("%w: unexpected field %q", common.ErrExtractionParse, k)
		}
		sv, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not a string", common.ErrExtractionParse, k)
		}
		out[k] = ExtractedField{
			Name:       k,
			RawValue:   sv,
			Confidence: float32(conf[k]),
		}
	}
	return out, nil
}
