package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"contractfill/internal/schema"
)

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripFences removes a surrounding markdown code fence, which some
// providers add around JSON despite instructions.
func StripFences(raw []byte) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return []byte(m[1])
	}
	return []byte(trimmed)
}

// NormalizeAndSanitize cleans a provider response before strict schema
// validation:
//   - strips markdown fences
//   - coerces numeric and boolean values to strings (field values are
//     strings on the wire; coercion to types happens in the validator)
//   - drops null and empty values
//   - removes keys not present in the schema
//
// Returns the cleaned JSON and the list of adjustments made.
func NormalizeAndSanitize(raw []byte, s *schema.Schema, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(StripFences(raw), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	for k, v := range m {
		if k == confidenceKey {
			if _, ok := v.(map[string]any); !ok {
				delete(m, k)
				dropped = append(dropped, k+"(type)")
			}
			continue
		}
		if _, known := s.Lookup(k); !known {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}

		switch t := v.(type) {
		case string:
			trimmedV := strings.TrimSpace(t)
			if trimmedV == "" || strings.EqualFold(trimmedV, "null") {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = trimmedV
			}
		case float64:
			m[k] = formatNumber(t)
			dropped = append(dropped, k+"(number)")
		case bool:
			m[k] = strconv.FormatBool(t)
			dropped = append(dropped, k+"(bool)")
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			// arrays/objects have no place in a flat field mapping
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "adjusted", dropped)
	}
	return out, dropped, nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
