package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"contractfill/constants"
)

// fileField is the on-disk shape of one descriptor. JSON and YAML sidecar
// files share it.
type fileField struct {
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type" yaml:"type"`
	Required      bool     `json:"required" yaml:"required"`
	FormatPattern string   `json:"format_pattern,omitempty" yaml:"format_pattern,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty" yaml:"allowed_values,omitempty"`
}

type fileSchema struct {
	Fields []fileField `json:"fields" yaml:"fields"`
}

// LoadFile reads a schema definition from a .json, .yaml or .yml file.
func LoadFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	var fs fileSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &fs); err != nil {
			return nil, fmt.Errorf("decode schema %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &fs); err != nil {
			return nil, fmt.Errorf("decode schema %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("schema %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if len(fs.Fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields defined", path)
	}

	fields := make([]Field, 0, len(fs.Fields))
	for _, ff := range fs.Fields {
		ft, err := constants.ParseFieldType(ff.Type)
		if err != nil {
			return nil, fmt.Errorf("schema %s: field %q: %w", path, ff.Name, err)
		}
		var pat *regexp.Regexp
		if ff.FormatPattern != "" {
			pat, err = regexp.Compile(ff.FormatPattern)
			if err != nil {
				return nil, fmt.Errorf("schema %s: field %q: bad format_pattern: %w", path, ff.Name, err)
			}
		}
		fields = append(fields, Field{
			Name:          ff.Name,
			Type:          ft,
			Required:      ff.Required,
			FormatPattern: pat,
			AllowedValues: ff.AllowedValues,
		})
	}
	return New(fields)
}
