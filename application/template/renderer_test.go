package template_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/permprobe/application/template"
)

func TestGoTemplateEngine_Render(t *testing.T) {
	engine := template.NewGoTemplateEngine()

	t.Run("resolves session values", func(t *testing.T) {
		raw := []byte("name: {{.vars.name}}\nsdk_min: {{.sdk}}")
		out, err := engine.Render(raw, map[string]interface{}{
			"sdk":  30,
			"vars": map[string]interface{}{"name": "device-a"},
		})
		require.NoError(t, err)
		assert.Equal(t, "name: device-a\nsdk_min: 30", string(out))
	})

	t.Run("missing key fails", func(t *testing.T) {
		_, err := engine.Render([]byte(`name: {{.missing}}`), map[string]interface{}{"sdk": 30})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "map has no entry for key")
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := engine.Render([]byte(`name: {{.name`), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest template")
	})

	t.Run("plain yaml passes through", func(t *testing.T) {
		raw := []byte("name: plain\n")
		out, err := engine.Render(raw, nil)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})
}

func TestGoTemplateEngine_Lenient(t *testing.T) {
	engine := template.NewGoTemplateEngine(template.WithStrict(false))
	out, err := engine.Render([]byte(`pkg: {{.vars.pkg}}`), map[string]interface{}{"vars": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Equal(t, "pkg: <no value>", string(out))
}

func TestGoTemplateEngine_Funcs(t *testing.T) {
	engine := template.NewGoTemplateEngine(template.WithFunc("upper", strings.ToUpper))
	out, err := engine.Render([]byte(`{{upper "reboot"}} {{default "com.android.shell" .pkg}}`),
		map[string]interface{}{"pkg": ""})
	require.NoError(t, err)
	assert.Equal(t, "REBOOT com.android.shell", string(out))
}
