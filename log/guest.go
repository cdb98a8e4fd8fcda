//go:build wasip1

package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/permprobe/internal/abi"
)

//go:wasmimport permprobe_host log_message
//nolint:revive // snake_case matches the import name
func host_log_message(messagePacked uint64)

// GuestHandler forwards records from a sandboxed service to the host.
type GuestHandler struct {
	attrs []slog.Attr
	level slog.Leveler
}

// NewGuestHandler returns a handler forwarding records at or above level.
func NewGuestHandler(level slog.Leveler) *GuestHandler {
	return &GuestHandler{level: level}
}

func init() {
	slog.SetDefault(slog.New(NewGuestHandler(slog.LevelInfo)))
}

// Enabled implements slog.Handler.
func (h *GuestHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *GuestHandler) Handle(_ context.Context, record slog.Record) error {
	if len(h.attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(h.attrs...)
	}

	payload, err := json.Marshal(ToWire(record))
	if err != nil {
		fmt.Printf("log: cannot forward record %q: %v\n", record.Message, err)
		return nil
	}
	packed := abi.PtrFromBytes(payload)
	host_log_message(packed)
	abi.DeallocatePacked(packed)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *GuestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &GuestHandler{attrs: merged, level: h.level}
}

// WithGroup implements slog.Handler. Groups are flattened on the wire.
func (h *GuestHandler) WithGroup(string) slog.Handler {
	return h
}
