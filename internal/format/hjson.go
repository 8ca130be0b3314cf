package format

import (
	"fmt"

	"github.com/hjson/hjson-go/v4"

	"github.com/redhatinsights/hydroconf/internal/value"
)

// parseHJSON decodes HJSON. HJSON numbers decode as floats; the materializer
// narrows whole floats into integer fields.
func parseHJSON(data []byte) (value.Value, error) {
	var raw any
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return value.Value{}, fmt.Errorf("failed to parse HJSON: %w", err)
	}
	return document(raw)
}
