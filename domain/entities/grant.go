package entities

import (
	"sort"
	"strings"
)

// PermissionPrefix is prepended to bare capability names such as "REBOOT".
const PermissionPrefix = "android.permission."

// NormalizeCapability qualifies a bare capability name with PermissionPrefix.
// Names that already contain a dot are returned unchanged.
func NormalizeCapability(name string) string {
	if name == "" || strings.Contains(name, ".") {
		return name
	}
	return PermissionPrefix + name
}

// GrantSet is the set of capabilities held by the caller, as captured from
// the platform under test.
type GrantSet struct {
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// NewGrantSet builds a GrantSet from capability names, normalized and deduplicated.
func NewGrantSet(capabilities ...string) *GrantSet {
	g := &GrantSet{}
	g.Merge(&GrantSet{Capabilities: capabilities})
	return g
}

// IsEmpty returns true if no capabilities are present.
func (g *GrantSet) IsEmpty() bool {
	return g == nil || len(g.Capabilities) == 0
}

// Has reports whether the capability is granted.
func (g *GrantSet) Has(capability string) bool {
	if g == nil {
		return false
	}
	capability = NormalizeCapability(capability)
	for _, c := range g.Capabilities {
		if NormalizeCapability(c) == capability {
			return true
		}
	}
	return false
}

// Merge unions other into g, keeping the result sorted and free of duplicates.
func (g *GrantSet) Merge(other *GrantSet) {
	if other == nil {
		return
	}
	seen := make(map[string]struct{}, len(g.Capabilities)+len(other.Capabilities))
	merged := make([]string, 0, len(g.Capabilities)+len(other.Capabilities))
	for _, list := range [][]string{g.Capabilities, other.Capabilities} {
		for _, c := range list {
			c = NormalizeCapability(c)
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			merged = append(merged, c)
		}
	}
	sort.Strings(merged)
	g.Capabilities = merged
}

// Clone returns a deep copy of the GrantSet.
func (g *GrantSet) Clone() *GrantSet {
	if g == nil {
		return nil
	}
	return &GrantSet{Capabilities: append([]string(nil), g.Capabilities...)}
}

// Difference returns capabilities in g that are not in other.
func (g *GrantSet) Difference(other *GrantSet) *GrantSet {
	if g == nil {
		return nil
	}
	result := &GrantSet{}
	for _, c := range g.Capabilities {
		if !other.Has(c) {
			result.Capabilities = append(result.Capabilities, NormalizeCapability(c))
		}
	}
	return result
}

// Hazard names a capability whose probe has a disruptive side effect when the
// platform lets the call through.
type Hazard struct {
	Capability string
	Reason     string
}
