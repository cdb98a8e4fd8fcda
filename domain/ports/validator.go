package ports

import "github.com/reglet-dev/permprobe/domain/entities"

// ManifestValidator validates a manifest document against its registered schema.
type ManifestValidator interface {
	Validate(manifest *entities.ProbeManifest) (*entities.ValidationResult, error)
}
