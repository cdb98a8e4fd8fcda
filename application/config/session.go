// Package config loads and validates probe session configuration.
package config

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/permprobe/domain/errors"
	"github.com/reglet-dev/permprobe/domain/policy"
)

// Transport kinds.
const (
	TransportReference = "reference"
	TransportGRPC      = "grpc"
	TransportWasm      = "wasm"
)

const (
	defaultProbeTimeout = 10 * time.Second
	defaultSDKVersion   = 34
	defaultCallerUID    = 2000
)

var validate = validator.New()

// SessionConfig describes one probe session.
type SessionConfig struct {
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`

	// SDKVersion overrides the platform version reported by the device.
	// Zero means use the reported version.
	SDKVersion     int           `yaml:"sdk_version" validate:"gte=0"`
	DefaultTimeout time.Duration `yaml:"default_timeout" validate:"gt=0"`

	// CallerUID is the identity reported for in-process and sandboxed
	// devices. Remote agents report their own.
	CallerUID int `yaml:"caller_uid" validate:"gte=0"`

	AcceptDangerous bool     `yaml:"accept_dangerous"`
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`

	TablesDir    string `yaml:"tables_dir"`
	GrantsPath   string `yaml:"grants"`
	ManifestPath string `yaml:"manifest"`
	ReportPath   string `yaml:"report"`

	// TableFallback accepts the nearest earlier transaction table when
	// TablesDir has none for the exact platform version.
	TableFallback bool `yaml:"table_fallback"`

	// Vars are exposed to the manifest template as .vars.
	Vars map[string]string `yaml:"vars"`
}

// TransportConfig selects how services on the device are reached.
type TransportConfig struct {
	Kind      string `yaml:"kind" validate:"oneof=reference grpc wasm"`
	Address   string `yaml:"address" validate:"required_if=Kind grpc"`
	ModuleDir string `yaml:"module_dir" validate:"required_if=Kind wasm"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns a configuration probing the in-process reference device.
func Default() *SessionConfig {
	c := &SessionConfig{}
	c.applyDefaults()
	return c
}

func (c *SessionConfig) applyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = defaultProbeTimeout
	}
	if c.CallerUID == 0 {
		c.CallerUID = defaultCallerUID
	}
	if c.Transport.Kind == "" {
		c.Transport.Kind = TransportReference
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// LocalSDKVersion is the platform version of in-process and sandboxed
// devices.
func (c *SessionConfig) LocalSDKVersion() int {
	if c.SDKVersion > 0 {
		return c.SDKVersion
	}
	return defaultSDKVersion
}

// Selection builds the capability selection from the include and exclude
// patterns.
func (c *SessionConfig) Selection() *policy.Selection {
	return policy.NewSelection(policy.WithInclude(c.Include...), policy.WithExclude(c.Exclude...))
}

// Validate checks struct constraints and capability patterns.
func (c *SessionConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &errors.ConfigError{
				Field: fe.Namespace(),
				Err:   fmt.Errorf("failed %q constraint", fe.Tag()),
			}
		}
		return &errors.ConfigError{Err: err}
	}
	if err := c.Selection().Validate(); err != nil {
		return &errors.ConfigError{Field: "include/exclude", Err: err}
	}
	return nil
}

// Parse decodes YAML configuration, applies defaults and validates it.
// Relative paths are resolved against baseDir.
func Parse(data []byte, baseDir string) (*SessionConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	c := &SessionConfig{}
	if err := dec.Decode(c); err != nil {
		return nil, &errors.ConfigError{Err: fmt.Errorf("failed to parse session config: %w", err)}
	}
	c.applyDefaults()
	c.resolvePaths(baseDir)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the configuration file at path.
func Load(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.ConfigError{Err: fmt.Errorf("failed to read session config: %w", err)}
	}
	return Parse(data, filepath.Dir(path))
}

func (c *SessionConfig) resolvePaths(baseDir string) {
	if baseDir == "" {
		return
	}
	for _, p := range []*string{
		&c.TablesDir, &c.GrantsPath, &c.ManifestPath, &c.ReportPath, &c.Transport.ModuleDir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}
