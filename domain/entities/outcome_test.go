package entities_test

import (
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestOutcome_Finding(t *testing.T) {
	o := entities.NotEnforced()
	assert.True(t, o.Finding())

	o.Granted = true
	assert.False(t, o.Finding(), "reachable while granted is the healthy case")

	assert.False(t, entities.Enforced("denied").Finding())
	assert.False(t, entities.Bypassed("hazard").Finding())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "enforced", entities.Enforced("").String())
	assert.Equal(t, `bypassed("reboots device")`, entities.Bypassed("reboots device").String())
	assert.Equal(t, "inconclusive(timeout)", entities.Inconclusive(entities.FailureTimeout, "").String())
}

func TestArgKind_ParseRoundTrip(t *testing.T) {
	for _, k := range []entities.ArgKind{
		entities.ArgInt32, entities.ArgInt64, entities.ArgUint32, entities.ArgUint64,
		entities.ArgBool, entities.ArgString, entities.ArgCharSequence, entities.ArgBlob,
		entities.ArgInt32Array, entities.ArgStringArray, entities.ArgStruct, entities.ArgReference,
	} {
		parsed, ok := entities.ParseArgKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}

	_, ok := entities.ParseArgKind("float128")
	assert.False(t, ok)
}

func TestCallResult(t *testing.T) {
	ok := entities.Succeeded(int32(7))
	assert.True(t, ok.OK())
	v, err := ok.Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, int32(7), v)

	failed := entities.Failed(entities.FailureAccessDenied, assert.AnError)
	assert.False(t, failed.OK())
	_, err = failed.Unwrap()
	assert.ErrorIs(t, err, assert.AnError)
}
