package hostfuncs

import (
	"encoding/json"
	"fmt"
)

// ErrorResponse is the JSON error a guest receives in place of a result.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToJSON encodes the response.
func (e ErrorResponse) ToJSON() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}

// NewValidationError reports a malformed request.
func NewValidationError(message string) ErrorResponse {
	return ErrorResponse{Error: "VALIDATION_ERROR", Message: message, Code: 400}
}

// NewNotFoundError reports an unknown host function.
func NewNotFoundError(name string) ErrorResponse {
	return ErrorResponse{Error: "NOT_FOUND", Message: "unknown host function: " + name, Code: 404}
}

// NewInternalError reports an unexpected failure.
func NewInternalError(message string) ErrorResponse {
	return ErrorResponse{Error: "INTERNAL_ERROR", Message: message, Code: 500}
}

// NewPanicError reports a recovered panic.
func NewPanicError(v any) ErrorResponse {
	return NewInternalError(fmt.Sprintf("panic: %v", v))
}
