// Package populate substitutes validated field values into a contract
// template. Population is all-or-nothing: a single unresolved placeholder
// fails the whole operation, and every unresolved placeholder is named.
package populate

import (
	"sort"
	"strings"

	"contractfill/internal/template"
	"contractfill/internal/validate"
)

// IncompleteContractError reports every placeholder that could not be
// resolved, together with the validation status that blocked it.
type IncompleteContractError struct {
	Template   string
	Unresolved []UnresolvedPlaceholder
}

// UnresolvedPlaceholder names one blocked placeholder and why.
type UnresolvedPlaceholder struct {
	Name   string
	Status validate.Status // missing, invalid, or valid-with-nil value
	Reason string
}

func (e *IncompleteContractError) Error() string {
	names := make([]string, len(e.Unresolved))
	for i, u := range e.Unresolved {
		names[i] = u.Name
	}
	return "incomplete contract " + e.Template + ": unresolved placeholders: " + strings.Join(names, ", ")
}

// Populate fills tpl from results. Every placeholder must map to a valid
// result with a non-nil normalized value; otherwise the operation fails
// with an IncompleteContractError naming all unresolved placeholders.
// The operation is pure: same inputs, byte-identical output.
func Populate(tpl *template.Template, results map[string]validate.Result) (string, error) {
	values := make(map[string]string)
	var unresolved []UnresolvedPlaceholder

	for _, name := range tpl.Placeholders() {
		r, ok := results[name]
		if !ok {
			unresolved = append(unresolved, UnresolvedPlaceholder{
				Name:   name,
				Status: validate.StatusMissing,
				Reason: "no validation result for placeholder",
			})
			continue
		}
		switch {
		case r.Status != validate.StatusValid:
			unresolved = append(unresolved, UnresolvedPlaceholder{
				Name:   name,
				Status: r.Status,
				Reason: r.ErrorMessage,
			})
		case r.NormalizedValue == nil:
			unresolved = append(unresolved, UnresolvedPlaceholder{
				Name:   name,
				Status: r.Status,
				Reason: "field absent from document",
			})
		default:
			values[name] = *r.NormalizedValue
		}
	}

	if len(unresolved) > 0 {
		sort.Slice(unresolved, func(i, j int) bool { return unresolved[i].Name < unresolved[j].Name })
		return "", &IncompleteContractError{Template: tpl.Name, Unresolved: unresolved}
	}

	return tpl.Replace(values), nil
}
