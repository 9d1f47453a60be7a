package validate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractfill/constants"
	"contractfill/internal/llm"
	"contractfill/internal/schema"
)

func mustSchema(t *testing.T, fields []schema.Field) *schema.Schema {
	t.Helper()
	s, err := schema.New(fields)
	require.NoError(t, err)
	return s
}

func extractedMap(kv map[string]string) map[string]llm.ExtractedField {
	out := make(map[string]llm.ExtractedField, len(kv))
	for k, v := range kv {
		out[k] = llm.ExtractedField{Name: k, RawValue: v}
	}
	return out
}

// The contract scenario from the pipeline's acceptance checks:
// {name text required, amount currency required, signed boolean optional}.
func scenarioSchema(t *testing.T) *schema.Schema {
	return mustSchema(t, []schema.Field{
		{Name: "name", Type: constants.FieldText, Required: true},
		{Name: "amount", Type: constants.FieldCurrency, Required: true},
		{Name: "signed", Type: constants.FieldBoolean},
	})
}

func TestValidate_AllPresent(t *testing.T) {
	res := Validate(extractedMap(map[string]string{
		"name":   "Acme Corp",
		"amount": "$1,200.00",
	}), scenarioSchema(t))

	require.Len(t, res, 3)

	name := res["name"]
	assert.Equal(t, StatusValid, name.Status)
	require.NotNil(t, name.NormalizedValue)
	assert.Equal(t, "Acme Corp", *name.NormalizedValue)

	amount := res["amount"]
	assert.Equal(t, StatusValid, amount.Status)
	require.NotNil(t, amount.NormalizedValue)
	assert.Equal(t, "1200.00", *amount.NormalizedValue)

	signed := res["signed"]
	assert.Equal(t, StatusValid, signed.Status)
	assert.Nil(t, signed.NormalizedValue)
	assert.Empty(t, signed.ErrorMessage)

	assert.True(t, OK(res))
	assert.NoError(t, AsError(res))
}

func TestValidate_RequiredMissing(t *testing.T) {
	res := Validate(extractedMap(map[string]string{
		"name": "Acme Corp",
	}), scenarioSchema(t))

	amount := res["amount"]
	assert.Equal(t, StatusMissing, amount.Status)
	assert.NotEmpty(t, amount.ErrorMessage)
	assert.False(t, OK(res))

	err := AsError(res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount: missing")
}

func TestValidate_InvalidCurrency(t *testing.T) {
	res := Validate(extractedMap(map[string]string{
		"name":   "Acme Corp",
		"amount": "twelve dollars",
	}), scenarioSchema(t))

	amount := res["amount"]
	assert.Equal(t, StatusInvalid, amount.Status)
	assert.Contains(t, amount.ErrorMessage, "currency amount")
	assert.Equal(t, "twelve dollars", amount.RawValue)
}

func TestValidate_MissingNeverInvalid(t *testing.T) {
	// a required absent field is always missing, never invalid
	s := mustSchema(t, []schema.Field{
		{Name: "po", Type: constants.FieldText, Required: true, FormatPattern: regexp.MustCompile(`^PO-\d+$`)},
	})
	res := Validate(nil, s)
	assert.Equal(t, StatusMissing, res["po"].Status)
}

func TestValidate_Deterministic(t *testing.T) {
	s := scenarioSchema(t)
	in := extractedMap(map[string]string{"name": "Acme", "amount": "7", "signed": "yes"})

	first := Validate(in, s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Validate(in, s))
	}
}

func TestValidate_TextPatternCheckedOnRaw(t *testing.T) {
	s := mustSchema(t, []schema.Field{
		{Name: "po", Type: constants.FieldText, Required: true, FormatPattern: regexp.MustCompile(`^PO-\d+$`)},
	})

	ok := Validate(extractedMap(map[string]string{"po": "PO-991"}), s)
	assert.Equal(t, StatusValid, ok["po"].Status)

	bad := Validate(extractedMap(map[string]string{"po": "order 991"}), s)
	assert.Equal(t, StatusInvalid, bad["po"].Status)
	assert.Contains(t, bad["po"].ErrorMessage, "pattern")
}

func TestValidate_AllowedValues(t *testing.T) {
	s := mustSchema(t, []schema.Field{
		{Name: "state", Type: constants.FieldText, Required: true, AllowedValues: []string{"draft", "final"}},
	})

	ok := Validate(extractedMap(map[string]string{"state": "final"}), s)
	assert.Equal(t, StatusValid, ok["state"].Status)

	bad := Validate(extractedMap(map[string]string{"state": "signed"}), s)
	assert.Equal(t, StatusInvalid, bad["state"].Status)
	assert.Contains(t, bad["state"].ErrorMessage, "allowed values")
}

func TestValidate_EmptyRawTreatedAsAbsent(t *testing.T) {
	res := Validate(extractedMap(map[string]string{"amount": "   "}), scenarioSchema(t))
	assert.Equal(t, StatusMissing, res["amount"].Status)
}

func TestProblems_SortedByFieldName(t *testing.T) {
	res := Validate(nil, mustSchema(t, []schema.Field{
		{Name: "zeta", Type: constants.FieldText, Required: true},
		{Name: "alpha", Type: constants.FieldText, Required: true},
	}))
	probs := Problems(res)
	require.Len(t, probs, 2)
	assert.Equal(t, "alpha", probs[0].FieldName)
	assert.Equal(t, "zeta", probs[1].FieldName)
}

func TestCoerceDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-30":     "2024-03-30",
		"03/30/2024":     "2024-03-30",
		"March 30, 2024": "2024-03-30",
		"30 Mar, 2024":   "2024-03-30",
		"30 March 2024":  "2024-03-30",
	}
	for in, want := range cases {
		got, err := coerceDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := coerceDate("next tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestCoerceCurrency(t *testing.T) {
	cases := map[string]string{
		"$1,200.00":    "1200.00",
		"1200":         "1200.00",
		"USD 1,200.50": "1200.50",
		"€45.5":        "45.50",
		"-12.30":       "-12.30",
	}
	for in, want := range cases {
		got, err := coerceCurrency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"twelve dollars", "", "1.2.3"} {
		_, err := coerceCurrency(bad)
		require.Error(t, err, bad)
	}
}

func TestCoerceNumber(t *testing.T) {
	got, err := coerceNumber("1,250")
	require.NoError(t, err)
	assert.Equal(t, "1250", got)

	got, err = coerceNumber("12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.5", got)

	_, err = coerceNumber("a dozen")
	require.Error(t, err)
}

func TestCoerceBoolean(t *testing.T) {
	for _, in := range []string{"true", "TRUE", "yes", "1", "Y"} {
		got, err := coerceBoolean(in)
		require.NoError(t, err, in)
		assert.Equal(t, "true", got, in)
	}
	for _, in := range []string{"false", "no", "0", "N"} {
		got, err := coerceBoolean(in)
		require.NoError(t, err, in)
		assert.Equal(t, "false", got, in)
	}
	_, err := coerceBoolean("maybe")
	require.Error(t, err)
}
