// Package format converts configuration documents into value trees. Each
// supported file format has an Adapter, chosen by file extension.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/redhatinsights/hydroconf/internal/value"
)

// ErrUnsupported is returned for extensions no adapter handles.
var ErrUnsupported = errors.New("unsupported file format")

// Adapter parses the bytes of one document format.
type Adapter interface {
	// Parse decodes data into a tree whose root is a table.
	Parse(data []byte) (value.Value, error)
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(data []byte) (value.Value, error)

func (f AdapterFunc) Parse(data []byte) (value.Value, error) { return f(data) }

// extensions lists the supported extensions in search order.
var extensions = []string{"toml", "json", "yaml", "yml", "ini", "hjson"}

var adapters = map[string]Adapter{
	"toml":  AdapterFunc(parseTOML),
	"json":  AdapterFunc(parseJSON),
	"yaml":  AdapterFunc(parseYAML),
	"yml":   AdapterFunc(parseYAML),
	"ini":   AdapterFunc(parseINI),
	"hjson": AdapterFunc(parseHJSON),
}

// Extensions returns the supported extensions, without dots, in the order
// files are searched for.
func Extensions() []string {
	return append([]string(nil), extensions...)
}

// Supported reports whether an adapter exists for ext ("toml" or ".toml").
func Supported(ext string) bool {
	_, ok := adapters[normalize(ext)]
	return ok
}

// ForPath returns the adapter for the extension of path.
func ForPath(path string) (Adapter, error) {
	ext := filepath.Ext(path)
	a, ok := adapters[normalize(ext)]
	if !ok {
		if ext == "" {
			return nil, fmt.Errorf("%w: %s has no extension", ErrUnsupported, filepath.Base(path))
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return a, nil
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// document converts decoder output into a tree and checks that the root is a
// table. An empty document yields an empty table.
func document(raw any) (value.Value, error) {
	v, err := value.FromAny(raw)
	if err != nil {
		return value.Value{}, err
	}
	switch v.Kind() {
	case value.KindNil:
		return value.EmptyTable(), nil
	case value.KindTable:
		return v, nil
	default:
		return value.Value{}, fmt.Errorf("top-level value must be a table, got %s", v.Kind())
	}
}
