package probe

import (
	"fmt"
	"sort"
	"time"

	"github.com/reglet-dev/permprobe/domain/entities"
)

// Bodies maps body names used in manifests to implementations.
type Bodies map[string]Body

// Names returns the registered body names, sorted.
func (b Bodies) Names() []string {
	out := make([]string, 0, len(b))
	for n := range b {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Bind turns manifest entries into specs, in manifest order. Every entry must
// name a registered body.
func Bind(m *entities.ProbeManifest, bodies Bodies) ([]Spec, error) {
	specs := make([]Spec, 0, len(m.Probes))
	for i, e := range m.Probes {
		body, ok := bodies[e.Body]
		if !ok {
			return nil, fmt.Errorf("manifest entry %d (%s): unknown body %q", i, e.Capability, e.Body)
		}

		var timeout time.Duration
		if e.Timeout != "" {
			d, err := time.ParseDuration(e.Timeout)
			if err != nil {
				return nil, fmt.Errorf("manifest entry %d (%s): timeout: %w", i, e.Capability, err)
			}
			timeout = d
		}

		specs = append(specs, Spec{
			Capability:      entities.NormalizeCapability(e.Capability),
			Label:           e.Label,
			Range:           e.Range(),
			Timeout:         timeout,
			BypassIfGranted: e.Hazard,
			Requires:        e.Requires,
			Ignore:          e.Ignore,
			Body:            body,
		})
	}
	return specs, nil
}
