package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/permprobe/application/schema"
	"github.com/reglet-dev/permprobe/application/validation"
	"github.com/reglet-dev/permprobe/domain/entities"
)

type mockRegistry struct {
	schemas map[string]string
}

func (m *mockRegistry) Register(string, interface{}) error { return nil }
func (m *mockRegistry) GetSchema(name string) (string, bool) {
	s, ok := m.schemas[name]
	return s, ok
}
func (m *mockRegistry) List() []string { return nil }

func newValidator(t *testing.T) *validation.ManifestValidator {
	t.Helper()
	registry, err := schema.NewManifestRegistry()
	require.NoError(t, err)
	return validation.NewManifestValidator(registry)
}

func TestManifestValidator_Valid(t *testing.T) {
	v := newValidator(t)
	res, err := v.Validate(&entities.ProbeManifest{
		Name: "power",
		Probes: []entities.ProbeEntry{
			{Capability: "REBOOT", Body: "power.reboot", Timeout: "5s", SDKMin: 21},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestManifestValidator_Invalid(t *testing.T) {
	v := newValidator(t)

	t.Run("no probes", func(t *testing.T) {
		res, err := v.Validate(&entities.ProbeManifest{Name: "empty"})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Errors)
	})

	t.Run("bad timeout", func(t *testing.T) {
		res, err := v.Validate(&entities.ProbeManifest{
			Name:   "power",
			Probes: []entities.ProbeEntry{{Capability: "REBOOT", Body: "power.reboot", Timeout: "soon"}},
		})
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.NotEmpty(t, res.Errors)
		assert.Contains(t, res.Errors[0].Field, "/probes/0")
	})

	t.Run("missing body", func(t *testing.T) {
		res, err := v.Validate(&entities.ProbeManifest{
			Name:   "power",
			Probes: []entities.ProbeEntry{{Capability: "REBOOT"}},
		})
		require.NoError(t, err)
		assert.False(t, res.Valid)

		var fields []string
		for _, e := range res.Errors {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "ProbeManifest.Probes[0].Body")
	})

	t.Run("nil manifest", func(t *testing.T) {
		res, err := v.Validate(nil)
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})
}

func TestManifestValidator_MissingSchema(t *testing.T) {
	v := validation.NewManifestValidator(&mockRegistry{})
	_, err := v.Validate(&entities.ProbeManifest{Name: "x"})
	assert.Error(t, err)
}

func TestManifestValidator_CustomSchema(t *testing.T) {
	registry := &mockRegistry{schemas: map[string]string{
		schema.KindManifest: `{"type": "object", "required": ["description"]}`,
	}}
	v := validation.NewManifestValidator(registry)

	res, err := v.Validate(&entities.ProbeManifest{
		Name:   "power",
		Probes: []entities.ProbeEntry{{Capability: "REBOOT", Body: "power.reboot"}},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "/", res.Errors[0].Field)
}
