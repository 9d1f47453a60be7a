package constants

import (
	"fmt"
	"strings"
)

// FieldType is the declared type of a contract field in a schema.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldDate     FieldType = "date"
	FieldCurrency FieldType = "currency"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
)

// FieldTypes holds the allowed values for the type field in a schema descriptor.
var FieldTypes = []FieldType{FieldText, FieldDate, FieldCurrency, FieldNumber, FieldBoolean}

// ParseFieldType maps a schema-file string to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(strings.ToLower(strings.TrimSpace(s))) {
	case FieldText:
		return FieldText, nil
	case FieldDate:
		return FieldDate, nil
	case FieldCurrency:
		return FieldCurrency, nil
	case FieldNumber:
		return FieldNumber, nil
	case FieldBoolean:
		return FieldBoolean, nil
	default:
		return "", fmt.Errorf("unknown field type: %q", s)
	}
}
