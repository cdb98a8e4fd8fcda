// Package grantstore persists snapshots of the caller's granted capabilities.
package grantstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/permprobe/domain/entities"
	"github.com/reglet-dev/permprobe/domain/ports"
)

type fileStoreConfig struct {
	path     string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

func defaultFileStoreConfig() fileStoreConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return fileStoreConfig{
		path:     filepath.Join(home, ".permprobe", "grants.yaml"),
		dirPerm:  0o755,
		filePerm: 0o600,
	}
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*fileStoreConfig)

// WithPath sets the snapshot file path.
func WithPath(path string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.path = path
	}
}

// WithFilePermissions sets the mode of the snapshot file. Default is 0o600.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets the mode of created parent directories.
// Default is 0o755.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dirPerm = perm
	}
}

// FileStore keeps a GrantSet in a YAML file.
type FileStore struct {
	config fileStoreConfig
}

// NewFileStore creates a FileStore.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{config: cfg}
}

// Load reads the snapshot. A missing file yields an empty set.
func (s *FileStore) Load() (*entities.GrantSet, error) {
	data, err := os.ReadFile(s.config.path)
	if os.IsNotExist(err) {
		return &entities.GrantSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grant snapshot: %w", err)
	}

	var raw entities.GrantSet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse grant snapshot %s: %w", s.config.path, err)
	}
	return entities.NewGrantSet(raw.Capabilities...), nil
}

// Save writes the snapshot, creating parent directories as needed.
func (s *FileStore) Save(grants *entities.GrantSet) error {
	if grants == nil {
		grants = &entities.GrantSet{}
	}
	data, err := yaml.Marshal(entities.NewGrantSet(grants.Capabilities...))
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.config.path), s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create grant snapshot directory: %w", err)
	}
	if err := os.WriteFile(s.config.path, data, s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write grant snapshot: %w", err)
	}
	return nil
}

// ConfigPath returns the snapshot file path.
func (s *FileStore) ConfigPath() string {
	return s.config.path
}

var _ ports.GrantStore = (*FileStore)(nil)
