// Package parser decodes probe manifests.
package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

// YamlManifestParser implements ManifestParser for YAML.
type YamlManifestParser struct {
	strict bool
}

// ParserOption configures a YamlManifestParser.
type ParserOption func(*YamlManifestParser)

// WithStrict rejects unknown keys.
func WithStrict(strict bool) ParserOption {
	return func(p *YamlManifestParser) {
		p.strict = strict
	}
}

// NewYamlManifestParser creates a parser. Unknown keys are rejected by default.
func NewYamlManifestParser(opts ...ParserOption) ports.ManifestParser {
	p := &YamlManifestParser{strict: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse unmarshals YAML bytes into a ProbeManifest.
func (p *YamlManifestParser) Parse(data []byte) (*entities.ProbeManifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.strict)

	var manifest entities.ProbeManifest
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &manifest, nil
}
