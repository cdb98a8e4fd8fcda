// Package loader runs the manifest pipeline: render the template, parse the
// YAML, validate against the manifest schema.
package loader

import (
	"fmt"

	"github.com/reglet-dev/permprobe/application/template"
	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/ports"
	"github.com/reglet-dev/permprobe/infrastructure/parser"
)

type loaderConfig struct {
	templateEngine  ports.TemplateEngine
	parser          ports.ManifestParser
	validator       ports.ManifestValidator
	strictTemplates bool
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		parser:          parser.NewYamlManifestParser(),
		strictTemplates: true,
	}
}

// Loader loads probe manifests.
type Loader struct {
	config loaderConfig
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithValidator validates every parsed manifest.
func WithValidator(v ports.ManifestValidator) LoaderOption {
	return func(c *loaderConfig) {
		c.validator = v
	}
}

// WithParser sets a custom manifest parser.
func WithParser(p ports.ManifestParser) LoaderOption {
	return func(c *loaderConfig) {
		c.parser = p
	}
}

// WithTemplateEngine sets a template engine.
func WithTemplateEngine(t ports.TemplateEngine) LoaderOption {
	return func(c *loaderConfig) {
		c.templateEngine = t
	}
}

// WithStrictTemplates makes rendering fail on missing keys. On by default;
// ignored when WithTemplateEngine is given.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictTemplates = enabled
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.templateEngine == nil {
		cfg.templateEngine = template.NewGoTemplateEngine(template.WithStrict(cfg.strictTemplates))
	}
	return &Loader{config: cfg}
}

// TemplateData is the dot of a manifest template.
func TemplateData(sdk int, vars map[string]string) map[string]interface{} {
	v := make(map[string]interface{}, len(vars))
	for k, val := range vars {
		v[k] = val
	}
	return map[string]interface{}{"sdk": sdk, "vars": v}
}

// LoadManifest renders, parses and validates raw.
func (l *Loader) LoadManifest(raw []byte, data map[string]interface{}) (*entities.ProbeManifest, error) {
	rendered, err := l.config.templateEngine.Render(raw, data)
	if err != nil {
		return nil, &errors.ConfigError{Field: "manifest", Err: err}
	}

	manifest, err := l.config.parser.Parse(rendered)
	if err != nil {
		return nil, &errors.ConfigError{Field: "manifest", Err: err}
	}

	if l.config.validator != nil {
		res, err := l.config.validator.Validate(manifest)
		if err != nil {
			return nil, fmt.Errorf("validation error: %w", err)
		}
		if err := res.Err(); err != nil {
			return nil, &errors.ConfigError{Field: "manifest", Err: err}
		}
	}
	return manifest, nil
}
