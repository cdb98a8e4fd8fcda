package entities_test

import (
	"testing"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestVersionRange_Contains(t *testing.T) {
	tests := []struct {
		name    string
		r       entities.VersionRange
		version int
		want    bool
	}{
		{"below min", entities.Between(29, 33), 28, false},
		{"at min", entities.Between(29, 33), 29, true},
		{"inside", entities.Between(29, 33), 31, true},
		{"at max", entities.Between(29, 33), 33, true},
		{"above max", entities.Between(29, 33), 34, false},
		{"unbounded", entities.Since(30), 1000, true},
		{"unbounded below min", entities.Since(30), 29, false},
		{"any", entities.AnyVersion(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.version))
		})
	}
}

func TestVersionRange_Valid(t *testing.T) {
	assert.True(t, entities.Between(30, 30).Valid())
	assert.True(t, entities.Since(0).Valid())
	assert.False(t, entities.Between(31, 30).Valid())
	assert.False(t, entities.VersionRange{Min: -1, Max: 3}.Valid())
}

func TestVersionRange_String(t *testing.T) {
	assert.Equal(t, "[28, 33]", entities.Between(28, 33).String())
	assert.Equal(t, "[30, +inf)", entities.Since(30).String())
}
