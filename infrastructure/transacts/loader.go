package transacts

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FilePattern matches table files named binderdb-<sdk>.json or .yaml.
const FilePattern = "binderdb-*.{json,yaml,yml}"

// loaderConfig holds configuration for Load.
type loaderConfig struct {
	fsys     fs.FS
	logger   *slog.Logger
	fallback bool
}

// LoaderOption configures Load.
type LoaderOption func(*loaderConfig)

// WithFS reads table files from fsys instead of the directory argument.
func WithFS(fsys fs.FS) LoaderOption {
	return func(c *loaderConfig) {
		c.fsys = fsys
	}
}

// WithFallback lets Load use the nearest earlier table when none matches the
// version exactly. Codes may have moved in between, so the substitution is
// logged at warn level and the returned table keeps its own SDK.
func WithFallback() LoaderOption {
	return func(c *loaderConfig) {
		c.fallback = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		c.logger = l
	}
}

// Load reads the table captured for platform version sdk from dir.
// Transaction codes change between versions, so only binderdb-<sdk> is
// accepted unless WithFallback is given.
func Load(dir string, sdk int, opts ...LoaderOption) (*Table, error) {
	cfg := loaderConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fsys == nil {
		cfg.fsys = os.DirFS(dir)
	}

	matches, err := doublestar.Glob(cfg.fsys, FilePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction tables: %w", err)
	}

	best, bestSDK := "", -1
	for _, m := range matches {
		v, ok := fileVersion(m)
		if !ok || v > sdk || v <= bestSDK {
			continue
		}
		best, bestSDK = m, v
	}
	switch {
	case best == "":
		return nil, fmt.Errorf("no transaction table for sdk %d in %s", sdk, dir)
	case bestSDK != sdk && !cfg.fallback:
		return nil, fmt.Errorf("no transaction table for sdk %d in %s (nearest earlier is %s; fallback not enabled)",
			sdk, dir, path.Base(best))
	case bestSDK != sdk:
		cfg.logger.Warn("using transaction table of an earlier platform version",
			slog.Int("sdk", sdk),
			slog.Int("table_sdk", bestSDK),
			slog.String("file", best),
		)
	}

	data, err := fs.ReadFile(cfg.fsys, best)
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", best, err)
	}
	if t.SDK == 0 {
		t.SDK = bestSDK
	}

	cfg.logger.Debug("loaded transaction table",
		slog.String("file", best),
		slog.Int("sdk", sdk),
		slog.Int("descriptors", len(t.Methods)),
	)
	return t, nil
}

// Parse decodes a table document. JSON documents are accepted as YAML.
func Parse(data []byte) (*Table, error) {
	t := New()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, err
	}
	if t.Services == nil {
		t.Services = make(map[string]string)
	}
	if t.Methods == nil {
		t.Methods = make(map[string]map[string]uint32)
	}
	return t, nil
}

// Marshal encodes a table as YAML.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(t)
}

func fileVersion(name string) (int, bool) {
	base := path.Base(name)
	base = strings.TrimPrefix(base, "binderdb-")
	base = strings.TrimSuffix(base, path.Ext(base))
	v, err := strconv.Atoi(base)
	return v, err == nil
}
