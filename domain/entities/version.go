package entities

import "fmt"

// Unbounded is the SDKMax value meaning "no upper bound".
const Unbounded = -1

// VersionRange is an inclusive platform version interval [Min, Max].
// A Max of Unbounded leaves the range open-ended.
type VersionRange struct {
	Min int `json:"sdk_min" yaml:"sdk_min"`
	Max int `json:"sdk_max" yaml:"sdk_max"`
}

// AnyVersion returns a range that contains every platform version.
func AnyVersion() VersionRange {
	return VersionRange{Min: 0, Max: Unbounded}
}

// Since returns the range [min, unbounded].
func Since(min int) VersionRange {
	return VersionRange{Min: min, Max: Unbounded}
}

// Between returns the range [min, max].
func Between(min, max int) VersionRange {
	return VersionRange{Min: min, Max: max}
}

// Contains reports whether v lies within the range, bounds included.
func (r VersionRange) Contains(v int) bool {
	if v < r.Min {
		return false
	}
	return r.Max == Unbounded || v <= r.Max
}

// Valid reports whether the range is well formed.
func (r VersionRange) Valid() bool {
	if r.Min < 0 {
		return false
	}
	return r.Max == Unbounded || r.Max >= r.Min
}

// String returns the range in "[min, max]" form.
func (r VersionRange) String() string {
	if r.Max == Unbounded {
		return fmt.Sprintf("[%d, +inf)", r.Min)
	}
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}
