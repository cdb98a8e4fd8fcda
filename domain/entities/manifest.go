package entities

// ProbeManifest is the declarative catalog: which probes exist, in which order,
// and the metadata that binds each to a registered body.
type ProbeManifest struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Probes      []ProbeEntry `json:"probes" yaml:"probes" validate:"required,min=1,dive"`
}

// ProbeEntry is one manifest line. Body names a probe body registered with the
// catalog builder.
type ProbeEntry struct {
	Capability string   `json:"capability" yaml:"capability" validate:"required" jsonschema:"minLength=1"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
	Body       string   `json:"body" yaml:"body" validate:"required" jsonschema:"minLength=1"`
	Timeout    string   `json:"timeout,omitempty" yaml:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m)$"`
	Hazard     string   `json:"hazard,omitempty" yaml:"hazard,omitempty"`
	Ignore     string   `json:"ignore,omitempty" yaml:"ignore,omitempty"`
	Requires   []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	SDKMin     int      `json:"sdk_min" yaml:"sdk_min" validate:"gte=0" jsonschema:"minimum=0"`
	SDKMax     *int     `json:"sdk_max,omitempty" yaml:"sdk_max,omitempty" validate:"omitempty,gte=-1" jsonschema:"minimum=-1"`
}

// Range returns the entry's applicability interval. A missing sdk_max is
// unbounded.
func (e ProbeEntry) Range() VersionRange {
	if e.SDKMax == nil {
		return Since(e.SDKMin)
	}
	return VersionRange{Min: e.SDKMin, Max: *e.SDKMax}
}
