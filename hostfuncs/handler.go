package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"
)

// HostFunc is a typed host function.
type HostFunc[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler accepts a JSON request and returns a JSON response.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler adapts a typed HostFunc to a ByteHandler.
func NewJSONHandler[Req any, Resp any](fn HostFunc[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("failed to unmarshal request: %w", err)
			}
		}

		respBytes, err := json.Marshal(fn(ctx, req))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return respBytes, nil
	}
}
