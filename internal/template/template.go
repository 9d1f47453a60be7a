// Package template loads contract templates and enforces the load-time
// invariant that every placeholder is declared by the associated schema.
//
// Placeholder syntax is {{name}}. Matching is token-exact: replacing
// {{NAME}} can never touch the interior of {{NAME2}}.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"contractfill/internal/schema"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Template is a contract template: raw text plus the placeholders found in it.
type Template struct {
	Name         string
	Text         string
	placeholders []string // unique, order of first appearance
}

// Parse scans text for placeholders and returns an immutable Template.
func Parse(name, text string) *Template {
	seen := make(map[string]struct{})
	var order []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		order = append(order, m[1])
	}
	return &Template{Name: name, Text: text, placeholders: order}
}

// Placeholders returns the distinct placeholder names in order of first appearance.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.placeholders))
	copy(out, t.placeholders)
	return out
}

// CheckSchema verifies that every placeholder is declared in s.
// All undeclared placeholders are reported, not just the first.
func (t *Template) CheckSchema(s *schema.Schema) error {
	var undeclared []string
	for _, p := range t.placeholders {
		if _, ok := s.Lookup(p); !ok {
			undeclared = append(undeclared, p)
		}
	}
	if len(undeclared) > 0 {
		sort.Strings(undeclared)
		return fmt.Errorf("template %q: placeholders not in schema: %s",
			t.Name, strings.Join(undeclared, ", "))
	}
	return nil
}

// Replace substitutes placeholder tokens using values. Tokens whose name is
// absent from values are left untouched. Substitution is textual and exact.
func (t *Template) Replace(values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(t.Text, func(tok string) string {
		name := placeholderRe.FindStringSubmatch(tok)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return tok
	})
}
