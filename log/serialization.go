package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// LogMessageWire is the JSON form of a log record forwarded by a sandboxed
// reference service.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	Source    string        `json:"source,omitempty"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "any"
	Value string `json:"value"` // String representation of the value
}

// ToWire converts a slog record to its wire form.
func ToWire(record slog.Record) LogMessageWire {
	msg := LogMessageWire{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg.Attrs = append(msg.Attrs, toLogAttrWire(attr))
		return true
	})
	return msg
}

// Replay emits a forwarded record through logger, tagged with its source.
// Attribute values keep their wire string form.
func Replay(ctx context.Context, logger *slog.Logger, msg LogMessageWire) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(msg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if !logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(msg.Attrs)+1)
	if msg.Source != "" {
		attrs = append(attrs, slog.String("source", msg.Source))
	}
	for _, a := range msg.Attrs {
		attrs = append(attrs, slog.String(a.Key, a.Value))
	}
	logger.LogAttrs(ctx, level, msg.Message, attrs...)
}

// toLogAttrWire flattens an attribute to a typed string value.
func toLogAttrWire(attr slog.Attr) LogAttrWire {
	v := attr.Value.Resolve()
	wire := LogAttrWire{Key: attr.Key, Type: "any"}

	switch v.Kind() {
	case slog.KindString:
		wire.Type, wire.Value = "string", v.String()
	case slog.KindInt64:
		wire.Type, wire.Value = "int64", strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		wire.Type, wire.Value = "uint64", strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		wire.Type, wire.Value = "bool", strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		wire.Type, wire.Value = "float64", strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		wire.Type, wire.Value = "time", v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type, wire.Value = "duration", v.Duration().String()
	case slog.KindGroup:
		// Groups are not nested on the wire.
		wire.Type, wire.Value = "group", fmt.Sprint(v.Group())
	default:
		wire.Value = anyValue(v.Any(), &wire.Type)
	}
	return wire
}

func anyValue(v any, typ *string) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case error:
		*typ = "error"
		return x.Error()
	}
	if data, err := json.Marshal(v); err == nil {
		*typ = "json"
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
