// Package validation checks probe manifests against their registered JSON
// schema and their struct constraints.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/permprobe/application/schema"
	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

var validate = validator.New()

// ManifestValidator implements ports.ManifestValidator.
type ManifestValidator struct {
	registry ports.SchemaRegistry
	compiled *jsonschema.Schema
	err      error
	once     sync.Once
}

// NewManifestValidator creates a validator reading the KindManifest schema
// from registry.
func NewManifestValidator(registry ports.SchemaRegistry) *ManifestValidator {
	return &ManifestValidator{registry: registry}
}

func (v *ManifestValidator) schema() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		src, ok := v.registry.GetSchema(schema.KindManifest)
		if !ok {
			v.err = fmt.Errorf("no schema registered for %s", schema.KindManifest)
			return
		}
		compiler := jsonschema.NewCompiler()
		url := schema.KindManifest + ".json"
		if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
			v.err = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		v.compiled, v.err = compiler.Compile(url)
	})
	return v.compiled, v.err
}

// Validate reports every schema and constraint violation in manifest. The
// error return is reserved for an unusable schema.
func (v *ManifestValidator) Validate(manifest *entities.ProbeManifest) (*entities.ValidationResult, error) {
	if manifest == nil {
		res := &entities.ValidationResult{}
		res.Add("manifest", "manifest is nil")
		return res, nil
	}

	sch, err := v.schema()
	if err != nil {
		return nil, err
	}

	result := &entities.ValidationResult{}

	b, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		result.Errors = append(result.Errors, leaves(ve)...)
	}

	if err := validate.Struct(manifest); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			result.Add(fe.Namespace(), "failed %q constraint", fe.Tag())
		}
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// leaves flattens a schema error tree to its innermost causes.
func leaves(ve *jsonschema.ValidationError) []entities.ValidationError {
	if len(ve.Causes) == 0 {
		field := ve.InstanceLocation
		if field == "" {
			field = "/"
		}
		return []entities.ValidationError{{Field: field, Message: ve.Message}}
	}
	var out []entities.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

var _ ports.ManifestValidator = (*ManifestValidator)(nil)
