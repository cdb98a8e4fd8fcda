package ports

import "github.com/reglet-dev/permprobe/domain/entities"

// ManifestParser parses raw YAML bytes into a ProbeManifest.
type ManifestParser interface {
	Parse(data []byte) (*entities.ProbeManifest, error)
}
