package populate

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractfill/internal/template"
	"contractfill/internal/validate"
)

func valid(name, value string) validate.Result {
	return validate.Result{
		FieldName:       name,
		Status:          validate.StatusValid,
		NormalizedValue: &value,
	}
}

func TestPopulate_OK(t *testing.T) {
	tpl := template.Parse("svc", "This agreement is between {{name}} for {{amount}}.")
	out, err := Populate(tpl, map[string]validate.Result{
		"name":   valid("name", "Acme Corp"),
		"amount": valid("amount", "1200.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "This agreement is between Acme Corp for 1200.00.", out)
}

func TestPopulate_Idempotent(t *testing.T) {
	tpl := template.Parse("svc", "{{name}} / {{name}} / {{amount}}")
	results := map[string]validate.Result{
		"name":   valid("name", "Acme"),
		"amount": valid("amount", "7.00"),
	}
	first, err := Populate(tpl, results)
	require.NoError(t, err)
	second, err := Populate(tpl, results)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Populating a template and reading the substituted values back out of
// the populated text must return exactly the normalized values that went
// in.
func TestPopulate_RoundTrip(t *testing.T) {
	tpl := template.Parse("svc", "client=<{{client_name}}>\ndate=<{{start_date}}>\namount=<{{amount}}>")
	normalized := map[string]string{
		"client_name": "Acme Corp",
		"start_date":  "2024-03-01",
		"amount":      "1200.00",
	}
	results := map[string]validate.Result{}
	for name, value := range normalized {
		results[name] = valid(name, value)
	}

	out, err := Populate(tpl, results)
	require.NoError(t, err)

	re := regexp.MustCompile(`(\w+)=<([^>]*)>`)
	reread := map[string]string{}
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		switch m[1] {
		case "client":
			reread["client_name"] = m[2]
		case "date":
			reread["start_date"] = m[2]
		case "amount":
			reread["amount"] = m[2]
		}
	}
	assert.Equal(t, normalized, reread)
}

func TestPopulate_ZeroPlaceholders(t *testing.T) {
	tpl := template.Parse("fixed", "No placeholders here.")
	out, err := Populate(tpl, map[string]validate.Result{})
	require.NoError(t, err)
	assert.Equal(t, "No placeholders here.", out)
}

func TestPopulate_NamesEveryUnresolvedPlaceholder(t *testing.T) {
	tpl := template.Parse("svc", "{{name}} {{amount}} {{signed}}")
	_, err := Populate(tpl, map[string]validate.Result{
		"name": valid("name", "Acme"),
		"amount": {
			FieldName:    "amount",
			Status:       validate.StatusMissing,
			ErrorMessage: "required field not found in document",
		},
		"signed": {
			FieldName:    "signed",
			Status:       validate.StatusInvalid,
			ErrorMessage: "expected true or false",
		},
	})
	require.Error(t, err)

	var ice *IncompleteContractError
	require.True(t, errors.As(err, &ice))
	require.Len(t, ice.Unresolved, 2)
	assert.Equal(t, "amount", ice.Unresolved[0].Name)
	assert.Equal(t, validate.StatusMissing, ice.Unresolved[0].Status)
	assert.Equal(t, "signed", ice.Unresolved[1].Name)
	assert.Equal(t, validate.StatusInvalid, ice.Unresolved[1].Status)
	assert.Contains(t, err.Error(), "amount")
	assert.Contains(t, err.Error(), "signed")
}

func TestPopulate_ValidNilValueIsUnresolved(t *testing.T) {
	// optional field absent from the document: valid result, nil value,
	// but a placeholder referencing it still cannot resolve
	tpl := template.Parse("svc", "Signed: {{signed}}")
	_, err := Populate(tpl, map[string]validate.Result{
		"signed": {FieldName: "signed", Status: validate.StatusValid},
	})
	var ice *IncompleteContractError
	require.True(t, errors.As(err, &ice))
	require.Len(t, ice.Unresolved, 1)
	assert.Equal(t, "signed", ice.Unresolved[0].Name)
}

func TestPopulate_MissingResultForPlaceholder(t *testing.T) {
	tpl := template.Parse("svc", "{{mystery}}")
	_, err := Populate(tpl, map[string]validate.Result{})
	var ice *IncompleteContractError
	require.True(t, errors.As(err, &ice))
	assert.Equal(t, "mystery", ice.Unresolved[0].Name)
}

func TestPopulate_NoPartialOutput(t *testing.T) {
	tpl := template.Parse("svc", "{{name}} {{amount}}")
	out, err := Populate(tpl, map[string]validate.Result{
		"name": valid("name", "Acme"),
	})
	require.Error(t, err)
	assert.Empty(t, out)
}
