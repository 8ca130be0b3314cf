package format

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/redhatinsights/hydroconf/internal/value"
)

func parseYAML(data []byte) (value.Value, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return value.Value{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return document(raw)
}
