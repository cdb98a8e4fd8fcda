package probe

import "github.com/reglet-dev/permprobe/domain/entities"

// Shape is one call form of a capability, valid on a range of versions.
type Shape struct {
	Call       entities.CallDescriptor
	Capability string
	Range      entities.VersionRange
}

// Shapes lists the call forms of capabilities whose service or descriptor
// changed across platform versions. Order matters: the first match wins.
type Shapes []Shape

// Select returns the first call form of capability applicable to version.
// It is a pure function of its inputs.
func (s Shapes) Select(capability string, version int) (entities.CallDescriptor, bool) {
	for _, shape := range s {
		if shape.Capability == capability && shape.Range.Contains(version) {
			return shape.Call, true
		}
	}
	return entities.CallDescriptor{}, false
}
