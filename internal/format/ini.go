package format

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/redhatinsights/hydroconf/internal/value"
)

// parseINI decodes INI documents. Section names and keys are split on dots
// into nested tables, so "[default.pg]" with "host = x" and "[default]" with
// "pg.host = x" are the same tree. INI values carry no type, so they are
// coerced the same way environment overrides are.
func parseINI(data []byte) (value.Value, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to parse INI: %w", err)
	}

	root := value.Table{}
	for _, section := range f.Sections() {
		var prefix []string
		if section.Name() != ini.DefaultSection {
			prefix = strings.Split(section.Name(), ".")
		}
		for _, key := range section.Keys() {
			path := append(append([]string(nil), prefix...), strings.Split(key.Name(), ".")...)
			if err := insert(root, path, value.Parse(key.Value())); err != nil {
				return value.Value{}, fmt.Errorf("failed to parse INI: section %q: %w", section.Name(), err)
			}
		}
	}
	return value.TableOf(root), nil
}

// insert stores leaf at path, creating tables on the way.
func insert(root value.Table, path []string, leaf value.Value) error {
	current := root
	for i, segment := range path[:len(path)-1] {
		next, exists := current[segment]
		if !exists {
			t := value.Table{}
			current[segment] = value.TableOf(t)
			current = t
			continue
		}
		t, ok := next.AsTable()
		if !ok {
			return fmt.Errorf("key %q is both a value and a section", strings.Join(path[:i+1], "."))
		}
		current = t
	}
	last := path[len(path)-1]
	if existing, ok := current[last]; ok && existing.IsTable() {
		return fmt.Errorf("key %q is both a value and a section", strings.Join(path, "."))
	}
	current[last] = leaf
	return nil
}
