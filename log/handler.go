// Package log configures structured logging (slog) for the prober and
// replays log records forwarded by sandboxed reference services.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects the handler encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// HandlerOption configures NewHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	format    Format
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:  slog.LevelInfo,
		format: FormatText,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithFormat selects text or JSON output.
func WithFormat(f Format) HandlerOption {
	return func(c *handlerConfig) {
		c.format = f
	}
}

// NewHandler creates a slog handler writing to w.
func NewHandler(w io.Writer, opts ...HandlerOption) slog.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ho := &slog.HandlerOptions{Level: cfg.level, AddSource: cfg.addSource}
	if cfg.format == FormatJSON {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// Setup builds a logger writing to w and installs it as the default.
func Setup(w io.Writer, opts ...HandlerOption) *slog.Logger {
	logger := slog.New(NewHandler(w, opts...))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// ParseFormat parses "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return FormatText, fmt.Errorf("invalid log format %q", s)
	}
}
