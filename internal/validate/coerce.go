package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"contractfill/constants"
)

// Normalization canon: date -> 2006-01-02, currency -> plain decimal with
// two places, number -> canonical decimal, boolean -> "true"/"false",
// text -> trimmed raw value.

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"02 Jan, 2006",
	"2006-01-02T15:04:05Z07:00",
}

var (
	reCurrencyCode = regexp.MustCompile(`^[A-Z]{3}\s+`)
	reDecimal      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

func coerce(t constants.FieldType, raw string) (string, error) {
	switch t {
	case constants.FieldText:
		return raw, nil
	case constants.FieldDate:
		return coerceDate(raw)
	case constants.FieldCurrency:
		return coerceCurrency(raw)
	case constants.FieldNumber:
		return coerceNumber(raw)
	case constants.FieldBoolean:
		return coerceBoolean(raw)
	default:
		return "", fmt.Errorf("unknown field type %q", t)
	}
}

func coerceDate(raw string) (string, error) {
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("expected a date in YYYY-MM-DD form, got %q", raw)
}

// coerceCurrency accepts "$1,200.00", "EUR 1.200,00" is NOT handled;
// separators follow the en locale as the extraction prompt requests.
func coerceCurrency(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = reCurrencyCode.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, "$£€ ")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !reDecimal.MatchString(s) {
		return "", fmt.Errorf("expected a currency amount such as 1200.00, got %q", raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("expected a currency amount such as 1200.00, got %q", raw)
	}
	return fmt.Sprintf("%.2f", f), nil
}

func coerceNumber(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if !reDecimal.MatchString(s) {
		return "", fmt.Errorf("expected a number, got %q", raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", fmt.Errorf("expected a number, got %q", raw)
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func coerceBoolean(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1":
		return "true", nil
	case "false", "no", "n", "0":
		return "false", nil
	default:
		return "", fmt.Errorf("expected true or false, got %q", raw)
	}
}
