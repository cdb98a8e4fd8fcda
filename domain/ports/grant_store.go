package ports

import "github.com/reglet-dev/permprobe/domain/entities"

// GrantStore provides persistence for a snapshot of the caller's grants.
type GrantStore interface {
	// Load retrieves the granted capabilities.
	// Returns empty GrantSet (not error) if no snapshot exists.
	Load() (*entities.GrantSet, error)

	// Save persists the granted capabilities.
	Save(grants *entities.GrantSet) error

	// ConfigPath returns the path to the backing store (for user messaging).
	ConfigPath() string
}
