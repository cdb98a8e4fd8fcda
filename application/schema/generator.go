// Package schema generates and registers JSON schemas for manifest documents.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// KindManifest is the registry key of the probe manifest schema.
const KindManifest = "manifest"

// GenerateSchema reflects v into an indented JSON Schema document with the
// top-level struct expanded inline.
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}

	data, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
