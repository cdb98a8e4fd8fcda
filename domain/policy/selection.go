package policy

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/permprobe/domain/entities"
)

// selectionConfig holds the capability patterns of a Selection.
type selectionConfig struct {
	include []string
	exclude []string
}

// SelectionOption configures a Selection.
type SelectionOption func(*selectionConfig)

// WithInclude restricts the selection to capabilities matching any pattern.
func WithInclude(patterns ...string) SelectionOption {
	return func(c *selectionConfig) {
		c.include = append(c.include, patterns...)
	}
}

// WithExclude removes capabilities matching any pattern.
func WithExclude(patterns ...string) SelectionOption {
	return func(c *selectionConfig) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// Selection decides which capabilities of a catalog take part in a session.
// Patterns are doublestar globs matched against both the full capability
// name and its short form, so "REBOOT" and "android.permission.REBOOT" are
// equivalent. Exclusion wins over inclusion; no include patterns means all.
type Selection struct {
	config selectionConfig
}

// NewSelection creates a Selection. Invalid patterns are reported by Validate.
func NewSelection(opts ...SelectionOption) *Selection {
	var cfg selectionConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Selection{config: cfg}
}

// Validate checks that every pattern is a well-formed glob.
func (s *Selection) Validate() error {
	for _, p := range append(append([]string{}, s.config.include...), s.config.exclude...) {
		if !doublestar.ValidatePattern(p) {
			return &invalidPatternError{pattern: p}
		}
	}
	return nil
}

// Allows reports whether capability is selected.
func (s *Selection) Allows(capability string) bool {
	if s == nil {
		return true
	}
	if matchAny(s.config.exclude, capability) {
		return false
	}
	if len(s.config.include) == 0 {
		return true
	}
	return matchAny(s.config.include, capability)
}

func matchAny(patterns []string, capability string) bool {
	full := entities.NormalizeCapability(capability)
	short := strings.TrimPrefix(full, entities.PermissionPrefix)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, full); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, short); ok {
			return true
		}
	}
	return false
}

type invalidPatternError struct {
	pattern string
}

func (e *invalidPatternError) Error() string {
	return "invalid capability pattern: " + e.pattern
}
