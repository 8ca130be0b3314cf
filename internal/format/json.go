package format

import (
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/redhatinsights/hydroconf/internal/value"
)

func parseJSON(data []byte) (value.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return value.EmptyTable(), nil
	}

	dec := gojson.NewDecoder(bytes.NewReader(data))
	// Keep integers apart from floats.
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return value.Value{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		return value.Value{}, fmt.Errorf("failed to parse JSON: unexpected data after the document")
	}
	return document(raw)
}
