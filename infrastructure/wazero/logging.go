package wazero

import (
	"context"
	"encoding/json"

	"log/slog"

	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/permprobe/log"
)

// FuncLogMessage is the guest logging import.
const FuncLogMessage = "log_message"

// LogMessageHandler replays guest log records through logger, tagged with
// the guest module name.
func LogMessageHandler(logger *slog.Logger) CustomHandler {
	return CustomHandler{
		Name:        FuncLogMessage,
		ParamTypes:  []api.ValueType{api.ValueTypeI64},
		ResultTypes: []api.ValueType{},
		Handler: api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			handleLog(ctx, logger, mod.Name(), mod, stack[0])
		}),
	}
}

func handleLog(ctx context.Context, logger *slog.Logger, source string, mod api.Module, packed uint64) {
	payload, ok := ReadGuest(mod, packed)
	if !ok {
		logger.WarnContext(ctx, "guest log record out of bounds", "source", source)
		return
	}
	var msg log.LogMessageWire
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.WarnContext(ctx, "malformed guest log record", "source", source, "error", err)
		return
	}
	msg.Source = source
	log.Replay(ctx, logger, msg)
}
