package host

import (
	"log/slog"

	"github.com/reglet-dev/permprobe/hostfuncs"
)

type executorConfig struct {
	registry         *hostfuncs.HandlerRegistry
	logger           *slog.Logger
	memoryLimitPages uint32
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger:           slog.Default(),
		memoryLimitPages: 512, // 32 MiB
	}
}

// Option configures an Executor.
type Option func(*executorConfig)

// WithHostFunctions sets the host functions exposed to services.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(c *executorConfig) {
		c.registry = registry
	}
}

// WithLogger sets the logger that receives service log records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMemoryLimitPages caps each module's linear memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *executorConfig) {
		if pages > 0 {
			c.memoryLimitPages = pages
		}
	}
}
