package format

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/redhatinsights/hydroconf/internal/value"
)

func parseTOML(data []byte) (value.Value, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return value.Value{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return document(raw)
}
