// Package overlay turns prefixed environment variables into a configuration
// tree that is merged over every file-based layer.
//
// With the default prefix HYDRO and separator "__", HYDRO_PG__HOST=db-0
// becomes {pg: {host: "db-0"}}. Values are coerced with value.Parse.
package overlay

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/redhatinsights/hydroconf/internal/value"
)

const (
	DefaultPrefix    = "HYDRO"
	DefaultSeparator = "__"
)

// Options controls how variable names map to paths.
type Options struct {
	// Prefix selects the variables to read. It is matched case-insensitively
	// and is followed by a single underscore, which may be included here or
	// not ("HYDRO" and "HYDRO_" are the same prefix).
	Prefix string
	// Separator splits the rest of the name into nested keys.
	Separator string

	Logger *slog.Logger
}

// ConflictError reports a variable whose path runs through a value that is
// not a table, either in the resolved files or in another variable.
type ConflictError struct {
	Variable string
	Path     []string
	// At is the prefix of Path that holds the blocking value.
	At []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s addresses %s but %s is not a table",
		e.Variable, strings.Join(e.Path, "."), strings.Join(e.At, "."))
}

// Variable is one environment variable matched by the prefix.
type Variable struct {
	Name  string
	Path  []string
	Value value.Value
}

// Match returns the variables of environ addressed by opts, sorted by name.
// Names with nothing after the prefix or with an empty nested key are
// skipped.
func Match(environ map[string]string, opts Options) []Variable {
	opts = withDefaults(opts)
	prefix := strings.TrimSuffix(opts.Prefix, "_") + "_"

	var vars []Variable
	for name, raw := range environ {
		if len(name) < len(prefix) || !strings.EqualFold(name[:len(prefix)], prefix) {
			continue
		}
		key := name[len(prefix):]
		if key == "" {
			opts.Logger.Warn("ignoring environment variable without a key", "variable", name)
			continue
		}

		segments := strings.Split(key, opts.Separator)
		path := make([]string, 0, len(segments))
		for _, s := range segments {
			if s == "" {
				path = nil
				break
			}
			path = append(path, strings.ToLower(s))
		}
		if path == nil {
			opts.Logger.Warn("ignoring environment variable with an empty nested key", "variable", name)
			continue
		}

		vars = append(vars, Variable{Name: name, Path: path, Value: value.Parse(raw)})
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	return vars
}

// Build returns the overlay tree for environ. base is the tree the overlay
// will be merged onto; a variable whose path descends through a non-table
// value of base, or through a value set by another variable, is a
// *ConflictError. Replacing a leaf or a whole table of base is allowed.
func Build(environ map[string]string, base value.Value, opts Options) (value.Value, error) {
	opts = withDefaults(opts)

	root := value.Table{}
	for _, v := range Match(environ, opts) {
		if at, blocked := blockedIn(base, v.Path); blocked {
			return value.Value{}, &ConflictError{Variable: v.Name, Path: v.Path, At: at}
		}
		if err := insert(root, v); err != nil {
			return value.Value{}, err
		}
		opts.Logger.Debug("applied environment override", "variable", v.Name, "path", strings.Join(v.Path, "."))
	}
	return value.TableOf(root), nil
}

// blockedIn reports the first proper prefix of path that exists in tree as
// something other than a table.
func blockedIn(tree value.Value, path []string) ([]string, bool) {
	current := tree
	for i, segment := range path[:len(path)-1] {
		t, ok := current.AsTable()
		if !ok {
			return nil, false
		}
		next, exists := t[segment]
		if !exists {
			return nil, false
		}
		if !next.IsTable() {
			return path[:i+1], true
		}
		current = next
	}
	return nil, false
}

// insert places v.Value at v.Path in root. Two variables are independent
// unless one addresses a table the other creates.
func insert(root value.Table, v Variable) error {
	current := root
	for i, segment := range v.Path[:len(v.Path)-1] {
		next, exists := current[segment]
		if !exists {
			t := value.Table{}
			current[segment] = value.TableOf(t)
			current = t
			continue
		}
		t, ok := next.AsTable()
		if !ok {
			return &ConflictError{Variable: v.Name, Path: v.Path, At: v.Path[:i+1]}
		}
		current = t
	}

	last := v.Path[len(v.Path)-1]
	if existing, exists := current[last]; exists {
		// Only possible when the same key holds both a value and children,
		// e.g. HYDRO_PG and HYDRO_PG__HOST.
		if existing.IsTable() {
			return &ConflictError{Variable: v.Name, Path: v.Path, At: v.Path}
		}
	}
	current[last] = v.Value
	return nil
}

func withDefaults(opts Options) Options {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}
