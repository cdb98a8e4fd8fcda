// Package template renders probe manifests before parsing, so one manifest
// can adapt to the session (platform version, package names, variables).
package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/reglet-dev/permprobe/domain/ports"
)

type templateConfig struct {
	funcs  template.FuncMap
	strict bool
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		strict: true,
		funcs: template.FuncMap{
			"default": func(def, v interface{}) interface{} {
				if v == nil || v == "" {
					return def
				}
				return v
			},
		},
	}
}

// TemplateOption configures a GoTemplateEngine.
type TemplateOption func(*templateConfig)

// WithStrict fails rendering when a referenced key is missing. On by default.
func WithStrict(enabled bool) TemplateOption {
	return func(c *templateConfig) {
		c.strict = enabled
	}
}

// WithFunc adds a template function.
func WithFunc(name string, fn interface{}) TemplateOption {
	return func(c *templateConfig) {
		c.funcs[name] = fn
	}
}

// GoTemplateEngine implements ports.TemplateEngine with text/template.
type GoTemplateEngine struct {
	config templateConfig
}

// NewGoTemplateEngine creates a GoTemplateEngine.
func NewGoTemplateEngine(opts ...TemplateOption) ports.TemplateEngine {
	cfg := defaultTemplateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &GoTemplateEngine{config: cfg}
}

// Render implements ports.TemplateEngine.
func (e *GoTemplateEngine) Render(raw []byte, data map[string]interface{}) ([]byte, error) {
	tmpl := template.New("manifest").Funcs(e.config.funcs)
	if e.config.strict {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest template: %w", err)
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute manifest template: %w", err)
	}
	return buf.Bytes(), nil
}
