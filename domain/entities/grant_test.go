package entities_test

import (
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCapability(t *testing.T) {
	assert.Equal(t, "android.permission.REBOOT", entities.NormalizeCapability("REBOOT"))
	assert.Equal(t, "com.example.CUSTOM", entities.NormalizeCapability("com.example.CUSTOM"))
	assert.Equal(t, "", entities.NormalizeCapability(""))
}

func TestGrantSet_Has(t *testing.T) {
	g := entities.NewGrantSet("REBOOT", "android.permission.SET_TIME")

	assert.True(t, g.Has("android.permission.REBOOT"))
	assert.True(t, g.Has("SET_TIME"))
	assert.False(t, g.Has("FORCE_BACK"))

	var nilSet *entities.GrantSet
	assert.False(t, nilSet.Has("REBOOT"))
	assert.True(t, nilSet.IsEmpty())
}

func TestGrantSet_Merge_Deduplicates(t *testing.T) {
	g := entities.NewGrantSet("REBOOT")
	g.Merge(entities.NewGrantSet("android.permission.REBOOT", "DUMP"))

	assert.Equal(t, []string{"android.permission.DUMP", "android.permission.REBOOT"}, g.Capabilities)
}

func TestGrantSet_CloneAndDifference(t *testing.T) {
	g := entities.NewGrantSet("REBOOT", "DUMP")
	clone := g.Clone()
	clone.Capabilities[0] = "changed"
	assert.Equal(t, "android.permission.DUMP", g.Capabilities[0])

	diff := g.Difference(entities.NewGrantSet("DUMP"))
	assert.Equal(t, []string{"android.permission.REBOOT"}, diff.Capabilities)
}
