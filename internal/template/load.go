package template

import (
	"fmt"
	"os"
	"path/filepath"

	"contractfill/internal/schema"
)

var (
	templateExts = []string{".tmpl", ".txt"}
	schemaExts   = []string{".yaml", ".yml", ".json"}
)

// Load reads template <name> and its schema sidecar from dir.
// It looks for <name>.tmpl or <name>.txt, and <name>.yaml/.yml/.json.
// The template/schema invariant is checked before returning.
func Load(dir, name string) (*Template, *schema.Schema, error) {
	tplPath, err := findFirst(dir, name, templateExts)
	if err != nil {
		return nil, nil, fmt.Errorf("template %q: %w", name, err)
	}
	raw, err := os.ReadFile(tplPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read template %s: %w", tplPath, err)
	}
	tpl := Parse(name, string(raw))

	schemaPath, err := findFirst(dir, name, schemaExts)
	if err != nil {
		return nil, nil, fmt.Errorf("schema for template %q: %w", name, err)
	}
	sch, err := schema.LoadFile(schemaPath)
	if err != nil {
		return nil, nil, err
	}

	if err := tpl.CheckSchema(sch); err != nil {
		return nil, nil, err
	}
	return tpl, sch, nil
}

// List returns the names of all templates in dir that have a schema sidecar.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		for _, te := range templateExts {
			if ext == te {
				base := e.Name()[:len(e.Name())-len(ext)]
				if _, err := findFirst(dir, base, schemaExts); err == nil {
					names = append(names, base)
				}
			}
		}
	}
	return names, nil
}

func findFirst(dir, name string, exts []string) (string, error) {
	for _, ext := range exts {
		p := filepath.Join(dir, name+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no file %s.{%v} in %s", name, exts, dir)
}
